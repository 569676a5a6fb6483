package http

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "doorstroom/internal/errors"
	chimw "doorstroom/internal/middleware"
	"doorstroom/pkg/contracts/domain"
)

// uploadFieldName is the multipart form field carrying the data files.
const uploadFieldName = "files"

// SessionHandler handles session lifecycle, uploads and filter state.
type SessionHandler struct {
	service        DashboardServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewSessionHandler creates a session handler with RFC 7807 error handling.
func NewSessionHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "session_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the full session route tree, including the dashboard
// endpoints that live under each session.
func (h *SessionHandler) Routes(dashboard *DashboardHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Post("/files", h.UploadFiles)
		r.Get("/filters", h.GetFilters)
		r.Put("/filters", h.PutFilters)
		dashboard.RegisterRoutes(r)
	})
	return r
}

// SessionCtx validates the session ID parameter.
func (h *SessionHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "sessionID") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sessionID", "Session ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSession handles POST /api/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.service.CreateSession(r.Context())

	h.logger.InfoContext(r.Context(), "session created",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("session_id", sess.ID))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"session_id": sess.ID,
			"created_at": sess.CreatedAt,
		},
	})
}

// UploadFiles handles POST /api/sessions/{sessionID}/files. The batch is
// a multipart form with one or more entries under the "files" field.
func (h *SessionHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	reqID := chimw.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadFieldName]
	if len(headers) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFieldName, "At least one file is required"))
		return
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, header := range headers {
		data, err := readUpload(header)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		files = append(files, domain.UploadedFile{Name: header.Filename, Data: data})
	}

	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("request_id", reqID),
		slog.String("session_id", sessionID),
		slog.Int("files", len(files)))

	result, err := h.service.Ingest(r.Context(), sessionID, files)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  len(result.Files),
	})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// GetFilters handles GET /api/sessions/{sessionID}/filters.
func (h *SessionHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Filters(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   state,
	})
}

// PutFilters handles PUT /api/sessions/{sessionID}/filters.
func (h *SessionHandler) PutFilters(w http.ResponseWriter, r *http.Request) {
	var sel domain.FilterSelection
	if err := render.DecodeJSON(r.Body, &sel); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(sel); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("source", "Source institution is required"))
		return
	}

	state, err := h.service.SetFilters(r.Context(), chi.URLParam(r, "sessionID"), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "filters updated",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("session_id", chi.URLParam(r, "sessionID")),
		slog.String("source", sel.Source))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   state,
	})
}
