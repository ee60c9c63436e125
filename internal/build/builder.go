package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/qntx/zigbuild/internal/rustc"
	"github.com/qntx/zigbuild/internal/ui"
)

// Toolchain reports facts about the rust toolchain.
type Toolchain interface {
	Info(ctx context.Context) (rustc.Info, error)
}

// ExitError carries a non-zero cargo exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("cargo exited with status %d", e.Code)
}

// Deps are the collaborators a Builder needs.
type Deps struct {
	Toolchain Toolchain
	Linker    Linker
	Stager    *Stager
	Cwd       string
}

// Builder turns Options into a cargo build invocation.
type Builder struct {
	opts *Options
	deps Deps
}

// New creates a Builder for opts.
func New(opts *Options, deps Deps) *Builder {
	return &Builder{opts: opts, deps: deps}
}

// Command composes the cargo command without starting it.
func (b *Builder) Command(ctx context.Context) (*exec.Cmd, error) {
	spec := b.opts.Spec()

	var host rustc.Info
	if !spec.IsZero() {
		info, err := b.deps.Toolchain.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("query rustc: %w", err)
		}
		host = info
	}

	composer := &Composer{Linker: b.deps.Linker, Stager: b.deps.Stager}
	env, err := composer.Compose(ctx, spec, host, LayoutOf(b.opts, b.deps.Cwd))
	if err != nil {
		return nil, err
	}

	args := b.opts.Args()
	if b.opts.Verbose > 0 && !b.opts.Quiet {
		b.logVerbose(spec.String(), host.Host, env, args)
	}

	cmd := exec.CommandContext(ctx, b.opts.Cargo, args...)
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, Env(b.opts.Env).List()...)
	cmd.Env = append(cmd.Env, env.List()...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

// Run builds and waits for cargo. A non-zero exit is reported as *ExitError.
func (b *Builder) Run(ctx context.Context) error {
	cmd, err := b.Command(ctx)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", b.opts.Cargo, err)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitCode(exitErr)}
		}
		return fmt.Errorf("wait %s: %w", b.opts.Cargo, err)
	}
	return nil
}

// exitCode returns the child's status, or 1 when it was killed by a signal.
func exitCode(err *exec.ExitError) int {
	if code := err.ExitCode(); code > 0 {
		return code
	}
	return 1
}

func (b *Builder) logVerbose(target, host string, env Env, args []string) {
	if target != "" {
		ui.Target(target, host)
	}
	for _, kv := range env.List() {
		k, v, _ := strings.Cut(kv, "=")
		ui.Label(k, v)
	}
	ui.Step("%s %s", b.opts.Cargo, strings.Join(args, " "))
}
