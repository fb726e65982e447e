// Package decode contains decoders for various HTTP artefacts
package decode

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/leg100/roster/internal"
)

// maxBodySize is the maximum size of a request body that is decoded.
const maxBodySize = 1 << 20

// Query schema decoder: caches structs, and safe for sharing.
var decoder *schema.Decoder

func init() {
	decoder = schema.NewDecoder()
	// Don't error if there are keys in the source map that are not present in
	// the destination struct.
	decoder.IgnoreUnknownKeys(true)
}

// Route decodes a mux route parameters (e.g. /foo/{bar}) into dst.
func Route(dst any, r *http.Request) error {
	// decoder only takes map[string][]string, not map[string]string
	vars := convertStrMapToStrSliceMap(mux.Vars(r))
	if err := decode(dst, vars); err != nil {
		return err
	}
	return nil
}

// JSON decodes a JSON request body into dst.
func JSON(dst any, r *http.Request) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst)
	if err == nil {
		return nil
	}
	// preserve parameter errors raised by custom unmarshalers
	var (
		missing *internal.ErrMissingParameter
		invalid *internal.ErrInvalidParameter
	)
	if errors.As(err, &missing) || errors.As(err, &invalid) {
		return err
	}
	if errors.Is(err, io.EOF) {
		return &internal.ErrMissingParameter{Parameter: "body"}
	}
	return &internal.ErrInvalidParameter{Parameter: "body", Reason: err.Error()}
}

func decode(dst any, src map[string][]string) error {
	if err := decoder.Decode(dst, src); err != nil {
		var emptyField schema.EmptyFieldError
		if errors.As(err, &emptyField) {
			return &internal.ErrMissingParameter{Parameter: emptyField.Key}
		}
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for _, e := range multi {
				if errors.As(e, &emptyField) {
					return &internal.ErrMissingParameter{Parameter: emptyField.Key}
				}
			}
		}
		return err
	}
	return nil
}

func convertStrMapToStrSliceMap(m map[string]string) map[string][]string {
	mm := make(map[string][]string, len(m))
	for k, v := range m {
		mm[k] = []string{v}
	}
	return mm
}
