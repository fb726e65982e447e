// Package student manages student records.
package student

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/leg100/roster/internal"
)

type (
	// Student is a student record.
	Student struct {
		ID   string `json:"-"`
		Name string `json:"name"`
		// Age is rendered as a string, as it is held in the store.
		Age    int      `json:"age,string"`
		Skills []string `json:"skills"`
	}

	// Options are the fields of a student record supplied upon creating or
	// updating a student. All fields are required.
	Options struct {
		Name   string   `json:"name"`
		Age    int      `json:"age"`
		Skills []string `json:"skills"`
	}
)

// UnmarshalJSON decodes options, checking each field is present. The age may
// be given as either a JSON number or a string holding a number, so long as it
// is a whole number, e.g. 20, "20", 20.0 or 2e1.
func (opts *Options) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name   *string         `json:"name"`
		Age    json.RawMessage `json:"age"`
		Skills *[]string       `json:"skills"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Name == nil {
		return &internal.ErrMissingParameter{Parameter: "name"}
	}
	if raw.Skills == nil {
		return &internal.ErrMissingParameter{Parameter: "skills"}
	}
	age, err := parseAge(raw.Age)
	if err != nil {
		return err
	}
	*opts = Options{
		Name:   *raw.Name,
		Age:    age,
		Skills: *raw.Skills,
	}
	return nil
}

func parseAge(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, &internal.ErrMissingParameter{Parameter: "age"}
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &internal.ErrInvalidParameter{Parameter: "age", Reason: err.Error()}
		}
	}
	if age, err := strconv.Atoi(s); err == nil {
		return age, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, &internal.ErrInvalidParameter{Parameter: "age", Reason: "must be an integer"}
	}
	return int(f), nil
}
