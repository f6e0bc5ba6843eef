package engine

import (
	"github.com/bootlace-io/bootlace/internal/logging"
)

// RunContext tracks scoped acquisitions (borrowed files, scratch plan
// artifacts) for one orchestrator run. Releases run in reverse acquisition
// order on every exit path; callers arrange that with a single deferred
// Release at the top of the run.
type RunContext struct {
	scopes []scope
}

type scope struct {
	name    string
	release func() error
}

func NewRunContext() *RunContext {
	return &RunContext{}
}

// Defer registers a release function for an acquired resource.
func (rc *RunContext) Defer(name string, release func() error) {
	rc.scopes = append(rc.scopes, scope{name: name, release: release})
}

// Release runs all registered release functions in reverse order. Release
// failures are warnings, never fatal: the primary operation's outcome is
// the correctness-critical one.
func (rc *RunContext) Release() {
	for i := len(rc.scopes) - 1; i >= 0; i-- {
		s := rc.scopes[i]
		if err := s.release(); err != nil {
			logging.Warn("cleanup failed", "resource", s.name, "error", err)
		}
	}
	rc.scopes = nil
}
