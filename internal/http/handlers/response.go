// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints.
// Every endpoint answers with the same envelope so clients can branch on a
// single `success` flag:
//
//	HTTP/1.1 201 Created
//	{ "success": true, "data": { "id": "abc123", ... } }
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "error": {
//	    "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	    "code": "not_found",
//	    "message": "complaint not found"
//	  }
//	}
//
// Paginated list endpoints additionally carry `count`, `total`, and a
// `pagination` block.
//
// Conventions:
//   - All error responses must carry an ErrorBody with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()`, `okMessage()`, `okList()`, and `noContent()` keep success
//     responses in a consistent shape across handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicconnect/go-complaints-backend/internal/http/middleware"
)

// ErrorBody is the error payload inside the standard envelope.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
type ErrorBody struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"complaint not found"`
}

// Envelope is the standard response wrapper returned by all endpoints.
// Exactly one of Data, Message, or Error is populated.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ListEnvelope wraps a page of results with its counts and pagination block.
type ListEnvelope struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Total      int64      `json:"total"`
	Pagination Pagination `json:"pagination"`
	Data       any        `json:"data"`
}

// fail aborts the request with a structured error envelope and logs
// server-side errors.
//
// It constructs an Envelope with an ErrorBody, writes it as JSON with the
// given HTTP status, and calls gin.Context.AbortWithStatusJSON to stop
// further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := Envelope{
		Success: false,
		Error: &ErrorBody{
			RequestID: reqID,
			Code:      code,
			Message:   msg,
		},
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success envelope carrying data.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// okMessage writes a success envelope carrying only a message.
func okMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: true, Message: msg})
}

// okList writes a paginated list envelope. count is the number of items on
// this page; total the number of matches across all pages.
func okList(c *gin.Context, data any, count, page, limit int, total int64) {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, ListEnvelope{
		Success: true,
		Count:   count,
		Total:   total,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
		Data: data,
	})
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
