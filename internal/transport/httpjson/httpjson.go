// Package httpjson is the JSON glue shared by every handler: request
// decoding, response writing, and the coded error envelope.
package httpjson

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "appaccounts/pkg/domain-errors"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decode reads a JSON request body into dst. Unknown fields are rejected
// so client typos fail loudly instead of silently dropping data.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "malformed request body")
	}
	return nil
}

// Respond writes a JSON response with the given status.
func Respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// Error writes the coded error envelope. Internal causes are logged, not
// leaked; permission responses stay uniform regardless of whether the
// resource exists.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.HTTPStatus(code)

	message := dErrors.Message(err)
	if code == dErrors.CodeInternal {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		message = "internal server error"
	}

	Respond(w, status, errorEnvelope{Error: errorBody{
		Code:    string(code),
		Message: message,
	}})
}
