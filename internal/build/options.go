package build

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qntx/zigbuild/internal/target"
)

// Options is a single cargo build request.
type Options struct {
	// Package selection
	Quiet     bool
	Packages  []string
	Workspace bool
	Exclude   []string
	All       bool
	Jobs      int

	// Target selection
	Lib         bool
	Bins        []string
	AllBins     bool
	Examples    []string
	AllExamples bool
	Tests       []string
	AllTests    bool
	Benches     []string
	AllBenches  bool
	AllTargets  bool

	// Profile and features
	Release           bool
	Profile           string
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool

	// Platform and layout
	Target       string
	TargetDir    string
	OutDir       string
	ManifestPath string

	// Diagnostics
	IgnoreRustVersion    bool
	MessageFormat        []string
	BuildPlan            bool
	UnitGraph            bool
	FutureIncompatReport bool
	Verbose              int
	Color                string

	// Manifest and network
	Frozen  bool
	Locked  bool
	Offline bool

	// Unstable
	Config   []string
	Unstable []string

	// Orchestrator
	Env        map[string]string
	Cargo      string
	ZigVersion string
}

// Normalize applies defaults for unset fields.
func (o *Options) Normalize() {
	if o.Cargo == "" {
		o.Cargo = "cargo"
	}
	o.Target = strings.TrimSpace(o.Target)
}

// Validate checks option constraints.
func (o *Options) Validate() error {
	if o.Jobs < 0 {
		return fmt.Errorf("invalid jobs: %d", o.Jobs)
	}
	if o.Release && o.Profile != "" && o.Profile != "release" {
		return fmt.Errorf("conflicting usage of --profile=%s and --release", o.Profile)
	}
	for k := range o.Env {
		if !validEnvName(k) {
			return fmt.Errorf("invalid environment variable name %q", k)
		}
	}
	return nil
}

// Spec returns the parsed target.
func (o *Options) Spec() target.Spec {
	return target.Parse(o.Target)
}

// Args returns the cargo argument list. The order is fixed.
func (o *Options) Args() []string {
	args := []string{"build"}

	args = appendIf(args, o.Quiet, "--quiet")
	args = appendEach(args, "--package", o.Packages)
	args = appendIf(args, o.Workspace, "--workspace")
	args = appendEach(args, "--exclude", o.Exclude)
	args = appendIf(args, o.All, "--all")
	if o.Jobs > 0 {
		args = append(args, "--jobs", strconv.Itoa(o.Jobs))
	}
	args = appendIf(args, o.Lib, "--lib")
	args = appendEach(args, "--bin", o.Bins)
	args = appendIf(args, o.AllBins, "--bins")
	args = appendEach(args, "--example", o.Examples)
	args = appendIf(args, o.AllExamples, "--examples")
	args = appendEach(args, "--test", o.Tests)
	args = appendIf(args, o.AllTests, "--tests")
	args = appendEach(args, "--bench", o.Benches)
	args = appendIf(args, o.AllBenches, "--benches")
	args = appendIf(args, o.AllTargets, "--all-targets")
	args = appendIf(args, o.Release, "--release")
	args = appendValue(args, "--profile", o.Profile)
	args = appendEach(args, "--features", o.Features)
	args = appendIf(args, o.AllFeatures, "--all-features")
	args = appendIf(args, o.NoDefaultFeatures, "--no-default-features")
	// cargo only understands the base triple
	args = appendValue(args, "--target", o.Spec().Triple)
	args = appendValue(args, "--target-dir", o.TargetDir)
	args = appendValue(args, "--out-dir", o.OutDir)
	args = appendValue(args, "--manifest-path", o.ManifestPath)
	args = appendIf(args, o.IgnoreRustVersion, "--ignore-rust-version")
	args = appendEach(args, "--message-format", o.MessageFormat)
	args = appendIf(args, o.BuildPlan, "--build-plan")
	args = appendIf(args, o.UnitGraph, "--unit-graph")
	args = appendIf(args, o.FutureIncompatReport, "--future-incompat-report")
	if o.Verbose > 0 {
		args = append(args, "-"+strings.Repeat("v", o.Verbose))
	}
	args = appendValue(args, "--color", o.Color)
	args = appendIf(args, o.Frozen, "--frozen")
	args = appendIf(args, o.Locked, "--locked")
	args = appendIf(args, o.Offline, "--offline")
	args = appendEach(args, "--config", o.Config)
	args = appendEach(args, "-Z", o.Unstable)
	return args
}

// validEnvName reports whether s is a portable variable name: a letter or
// underscore followed by letters, digits or underscores.
func validEnvName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func appendIf(dst []string, cond bool, flag string) []string {
	if cond {
		return append(dst, flag)
	}
	return dst
}

func appendValue(dst []string, flag, value string) []string {
	if value != "" {
		return append(dst, flag, value)
	}
	return dst
}

func appendEach(dst []string, flag string, values []string) []string {
	for _, v := range values {
		dst = append(dst, flag, v)
	}
	return dst
}
