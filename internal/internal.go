// Package internal is code only for consumption from within the roster project.
package internal

import "github.com/gorilla/mux"

// Build-time variables, overridden with -ldflags.
var (
	Version = "unknown"
	Commit  = "unknown"
	Built   = "unknown"
)

// Handlers is an http application with handlers
type Handlers interface {
	AddHandlers(r *mux.Router)
}
