// Package httputil writes JSON responses and the coded error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	dErrors "equilibrium/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the error envelope. Description is omitted for codes whose
// message is not client facing.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err's domain code to a status and envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if dErrors.IsClientFacing(code) {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields and
// trailing data. Failures are returned as bad_request errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body: trailing data")
	}
	return nil
}
