package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"crm/internal/platform/requestctx"
)

var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes a single JSON object and rejects unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// ClientIP is the caller address resolved by middleware.ClientIP.
func ClientIP(r *http.Request) string {
	return requestctx.ClientIP(r)
}
