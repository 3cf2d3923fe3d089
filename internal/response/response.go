// Package response writes JSON bodies and maps domain errors to HTTP
// statuses.
package response

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// MessageBody is the JSON shape of plain acknowledgements.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Error writes an error body without a code.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Message: msg})
}

// HandleError writes the response for err. Domain errors keep their
// message and code; anything else becomes a logged 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error, log *zap.Logger) {
	var domainErr *domainerrors.Error
	if domainerrors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
		JSON(w, domainErr.HTTPStatus(), ErrorBody{
			Message: domainErr.Message,
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		})
		return
	}

	if log != nil {
		log.Error("unhandled error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	JSON(w, http.StatusInternalServerError, ErrorBody{
		Message: "internal server error",
		Code:    string(domainerrors.CodeInternal),
	})
}
