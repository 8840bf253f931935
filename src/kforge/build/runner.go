package build

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kforge/kforge/src/common/errors"
)

// RunOpts describes a single builder invocation.
type RunOpts struct {
	// Args are the make arguments, including variable assignments.
	Args []string

	// Extra variables are layered on top of the runner's base
	// environment for this invocation only.
	Extra map[string]string

	// Stdout and Stderr receive the builder's output streams. When
	// both are the same writer, os/exec serializes writes to it.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes the external kernel builder.
type Runner interface {
	Run(ctx context.Context, opts RunOpts) error
}

// MakeRunner invokes make inside the kernel tree with an explicit
// environment.
type MakeRunner struct {
	// KernelDir is the working directory for every invocation.
	KernelDir string

	// Env is the base environment, already carrying the toolchain
	// search paths.
	Env *Env
}

// Run executes one make invocation. A builder that cannot be spawned
// at all yields ErrBuilderUnavailable; a builder that starts and exits
// non-zero yields a plain error so callers can decide whether the
// failure is terminal.
func (r *MakeRunner) Run(ctx context.Context, opts RunOpts) error {
	cmd := exec.CommandContext(ctx, "make", opts.Args...)
	cmd.Dir = r.KernelDir

	env := r.Env.Clone()
	for k, v := range opts.Extra {
		env.Set(k, v)
	}
	cmd.Env = env.Environ()

	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	}

	log.Debug("Invoking builder", "args", strings.Join(opts.Args, " "), "dir", r.KernelDir)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if goerrors.As(err, &exitErr) {
			return fmt.Errorf("make %s: %w", strings.Join(opts.Args, " "), err)
		}
		return errors.ErrBuilderUnavailable.WithCause(err)
	}
	return nil
}
