package build

import (
	"context"
	"fmt"
	"slices"

	"github.com/qntx/zigbuild/internal/rustc"
	"github.com/qntx/zigbuild/internal/target"
)

// Environment variables consumed by cargo and the cc crate.
const (
	EnvTargetCC              = "TARGET_CC"
	EnvTargetCXX             = "TARGET_CXX"
	EnvNoBundledLibraries    = "WINAPI_NO_BUNDLED_LIBRARIES"
	EnvUnstableAppliesToHost = "CARGO_UNSTABLE_TARGET_APPLIES_TO_HOST"
	EnvTargetAppliesToHost   = "CARGO_TARGET_APPLIES_TO_HOST"
)

// Env is a set of environment variables for the cargo child process.
type Env map[string]string

// List returns the variables as sorted KEY=VALUE pairs.
func (e Env) List() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	list := make([]string, len(keys))
	for i, k := range keys {
		list[i] = k + "=" + e[k]
	}
	return list
}

// LinkerVar returns cargo's per-target linker override variable.
func LinkerVar(spec target.Spec) string {
	return "CARGO_TARGET_" + spec.EnvName() + "_LINKER"
}

// Linker produces C and C++ compiler front ends for a target.
type Linker interface {
	Prepare(ctx context.Context, target string) (cc, cxx string, err error)
}

// Composer decides whether zig must act as linker and computes the
// environment that makes cargo use it.
type Composer struct {
	Linker Linker
	Stager *Stager
}

// Compose returns the linker environment for spec on host. The result is
// empty when no target was requested or the target is exactly the host.
func (c *Composer) Compose(ctx context.Context, spec target.Spec, host rustc.Info, layout Layout) (Env, error) {
	env := Env{}
	if spec.IsZero() || spec.String() == host.Host {
		return env, nil
	}

	cc, cxx, err := c.Linker.Prepare(ctx, spec.String())
	if err != nil {
		return nil, fmt.Errorf("prepare linker: %w", err)
	}

	env[EnvTargetCC] = cc
	env[EnvTargetCXX] = cxx
	env[LinkerVar(spec)] = cc

	family := spec.Family()
	if c.Stager != nil {
		if err := c.Stager.Stage(family, layout.Root(spec.Triple), layout.ProfileDir()); err != nil {
			return nil, fmt.Errorf("stage %s dependencies: %w", family, err)
		}
	}

	if family == target.FamilyWindowsGnu {
		env[EnvNoBundledLibraries] = "1"
	}

	// Same triple with an ABI version: let the target config reach host
	// artifacts too. Experimental in cargo, so nightly only.
	if spec.Triple == host.Host && host.Channel == rustc.Nightly {
		env[EnvUnstableAppliesToHost] = "true"
		env[EnvTargetAppliesToHost] = "false"
	}
	return env, nil
}
