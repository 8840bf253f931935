// Package build drives the kernel build system through an explicit
// state machine: clean, configure, warning-policy adjust, platform
// quirk, compile. All child processes receive an explicit environment;
// the orchestrator's own environment is never mutated.
package build

import (
	"sort"
	"strings"
)

// Env is the explicit environment handed to child processes. It starts
// as a copy of the parent environment and accumulates toolchain paths
// and build variables without touching the process-global state.
type Env struct {
	vars map[string]string
}

// NewEnv copies a KEY=VALUE environment slice (usually os.Environ())
// into a new Env.
func NewEnv(base []string) *Env {
	e := &Env{vars: make(map[string]string, len(base))}
	for _, kv := range base {
		if i := strings.IndexByte(kv, '='); i > 0 {
			e.vars[kv[:i]] = kv[i+1:]
		}
	}
	return e
}

// Set assigns a variable.
func (e *Env) Set(key, value string) {
	e.vars[key] = value
}

// Get returns a variable's value, or empty when unset.
func (e *Env) Get(key string) string {
	return e.vars[key]
}

// Prepend puts dirs in front of a colon-separated list variable such
// as PATH or LD_LIBRARY_PATH, keeping any existing value behind them.
func (e *Env) Prepend(key string, dirs ...string) {
	if len(dirs) == 0 {
		return
	}
	joined := strings.Join(dirs, ":")
	if existing := e.vars[key]; existing != "" {
		joined = joined + ":" + existing
	}
	e.vars[key] = joined
}

// Clone returns an independent copy.
func (e *Env) Clone() *Env {
	c := &Env{vars: make(map[string]string, len(e.vars))}
	for k, v := range e.vars {
		c.vars[k] = v
	}
	return c
}

// Environ renders the environment as a sorted KEY=VALUE slice for
// exec.Cmd.
func (e *Env) Environ() []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
