// Package mock provides a test double for the command.Runner interface.
//
// Use Runner to script the outcome of external programs and to verify the
// exact argument lists passed to them.
//
// Example:
//
//	r := &mock.Runner{
//	    Respond: func(c mock.Call) command.Result {
//	        out, _ := c.ArgAfter("-o")
//	        _ = os.WriteFile(out, []byte("FORM"), 0o600)
//	        return command.Result{Name: c.Name}
//	    },
//	}
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/nadzzz/ttsbroker/internal/command"
)

// Call records a single invocation of Run.
type Call struct {
	// Name is the program name passed to Run.
	Name string
	// Args is a copy of the argument list passed to Run.
	Args []string
}

// ArgAfter returns the argument following flag.
func (c Call) ArgAfter(flag string) (string, bool) {
	i := slices.Index(c.Args, flag)
	if i < 0 || i+1 >= len(c.Args) {
		return "", false
	}
	return c.Args[i+1], true
}

// Has reports whether flag appears in the argument list.
func (c Call) Has(flag string) bool {
	return slices.Contains(c.Args, flag)
}

// Last returns the final argument, or "" when there is none.
func (c Call) Last() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Runner is a mock implementation of command.Runner.
type Runner struct {
	mu sync.Mutex

	// Respond decides the outcome of each call. When nil every call succeeds
	// with exit code 0.
	Respond func(c Call) command.Result

	// Calls records every call to Run in order.
	Calls []Call
}

// Run implements command.Runner.
func (r *Runner) Run(_ context.Context, name string, args ...string) command.Result {
	call := Call{Name: name, Args: slices.Clone(args)}

	r.mu.Lock()
	r.Calls = append(r.Calls, call)
	respond := r.Respond
	r.mu.Unlock()

	if respond == nil {
		return command.Result{Name: name}
	}
	return respond(call)
}

// CallCount returns the number of calls made so far.
func (r *Runner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}

// Call returns the i-th recorded call.
func (r *Runner) Call(i int) Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Calls[i]
}
