// Package services implements the business logic layer of the doorstroom
// monitor. It sits between the HTTP handlers and the data processing
// pipeline, ensuring business rules stay centralized and testable.
//
// # Architecture
//
// Services follow these principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
//	- DashboardService: session lifecycle, upload ingestion, filtering
//	  and the dashboard aggregates
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return domain-specific errors that handlers transform into
// RFC 7807 problem responses: not-found errors for unknown sessions,
// validation errors for bad selections, and internal errors for
// unexpected failures.
package services
