// Package http contains the HTTP handlers of the doorstroom monitor API.
// Handlers stay thin: they decode requests, delegate to the service
// layer, and render either the standard success envelope or an RFC 7807
// problem response through the central error handler.
package http
