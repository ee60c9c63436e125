package cli

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/qntx/zigbuild/internal/build"
	"github.com/qntx/zigbuild/internal/rustc"
	"github.com/qntx/zigbuild/internal/tui"
	"github.com/qntx/zigbuild/internal/ui"
	"github.com/qntx/zigbuild/internal/zig"
)

var buildCmd = &cobra.Command{
	Use:     "zigbuild",
	Aliases: []string{"build"},
	Short:   "Run cargo build with zig as the cross linker",
	Long: `Compile the current package with cargo, using zig cc as linker when
the target differs from the host.

Defaults are read from zigbuild.toml in the current or parent directories,
then from ZIGBUILD_* and CARGO_BUILD_TARGET. Flags override both.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

type buildFlags struct {
	opts        build.Options
	env         []string
	configFile  string
	interactive bool
}

var flags buildFlags

func init() {
	registerBuildFlags(buildCmd.Flags(), &flags)
}

func registerBuildFlags(f *pflag.FlagSet, fl *buildFlags) {
	o := &fl.opts

	// Package selection
	f.BoolVarP(&o.Quiet, "quiet", "q", false, "do not print cargo log messages")
	f.StringArrayVarP(&o.Packages, "package", "p", nil, "package to build")
	f.BoolVar(&o.Workspace, "workspace", false, "build all packages in the workspace")
	f.StringArrayVar(&o.Exclude, "exclude", nil, "exclude packages from the build")
	f.BoolVar(&o.All, "all", false, "alias for --workspace (deprecated)")
	f.IntVarP(&o.Jobs, "jobs", "j", 0, "number of parallel jobs")

	// Target selection
	f.BoolVar(&o.Lib, "lib", false, "build only this package's library")
	f.StringArrayVar(&o.Bins, "bin", nil, "build only the specified binary")
	f.BoolVar(&o.AllBins, "bins", false, "build all binaries")
	f.StringArrayVar(&o.Examples, "example", nil, "build only the specified example")
	f.BoolVar(&o.AllExamples, "examples", false, "build all examples")
	f.StringArrayVar(&o.Tests, "test", nil, "build only the specified test target")
	f.BoolVar(&o.AllTests, "tests", false, "build all tests")
	f.StringArrayVar(&o.Benches, "bench", nil, "build only the specified bench target")
	f.BoolVar(&o.AllBenches, "benches", false, "build all benches")
	f.BoolVar(&o.AllTargets, "all-targets", false, "build all targets")

	// Profile and features
	f.BoolVarP(&o.Release, "release", "r", false, "build artifacts in release mode")
	f.StringVar(&o.Profile, "profile", "", "build artifacts with the specified profile")
	f.StringArrayVarP(&o.Features, "features", "F", nil, "space or comma separated list of features")
	f.BoolVar(&o.AllFeatures, "all-features", false, "activate all available features")
	f.BoolVar(&o.NoDefaultFeatures, "no-default-features", false, "do not activate the default feature")

	// Platform and layout
	f.StringVar(&o.Target, "target", "", "build for the target triple, optionally with a glibc version")
	f.StringVar(&o.TargetDir, "target-dir", "", "directory for all generated artifacts")
	f.StringVar(&o.OutDir, "out-dir", "", "copy final artifacts to this directory (unstable)")
	f.StringVar(&o.ManifestPath, "manifest-path", "", "path to Cargo.toml")

	// Diagnostics
	f.BoolVar(&o.IgnoreRustVersion, "ignore-rust-version", false, "ignore rust-version specification in packages")
	f.StringArrayVar(&o.MessageFormat, "message-format", nil, "error format")
	f.BoolVar(&o.BuildPlan, "build-plan", false, "output the build plan in JSON (unstable)")
	f.BoolVar(&o.UnitGraph, "unit-graph", false, "output build graph in JSON (unstable)")
	f.BoolVar(&o.FutureIncompatReport, "future-incompat-report", false, "report future incompatibility warnings")
	f.CountVarP(&o.Verbose, "verbose", "v", "use verbose output (-vv very verbose)")
	f.StringVar(&o.Color, "color", "", "coloring: auto, always, never")

	// Manifest and network
	f.BoolVar(&o.Frozen, "frozen", false, "require Cargo.lock and cache are up to date")
	f.BoolVar(&o.Locked, "locked", false, "require Cargo.lock is up to date")
	f.BoolVar(&o.Offline, "offline", false, "run without accessing the network")
	f.StringArrayVar(&o.Config, "config", nil, "override a cargo configuration value")
	f.StringArrayVarP(&o.Unstable, "unstable", "Z", nil, "unstable (nightly-only) flags to cargo")

	// Orchestrator
	f.StringVar(&o.ZigVersion, "zig-version", "", "use a cached zig version instead of zig on PATH")
	f.StringArrayVar(&fl.env, "env", nil, "extra environment for cargo (KEY=VALUE, repeatable)")
	f.StringVar(&fl.configFile, "zigbuild-config", "", "config file path (default: zigbuild.toml)")
	f.BoolVarP(&fl.interactive, "interactive", "i", false, "pick the target interactively")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	settings, err := build.LoadSettings()
	if err != nil {
		return err
	}

	opts, err := loadOptions(cmd, settings)
	if err != nil {
		return err
	}

	if flags.interactive {
		if opts, err = tui.SelectTarget(opts); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}

	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	b := build.New(opts, build.Deps{
		Toolchain: rustc.New(settings.Rustc),
		Linker:    zig.NewLinker(opts.ZigVersion),
		Stager:    build.NewStager(afero.NewOsFs()),
		Cwd:       cwd,
	})

	verbose := opts.Verbose > 0 && !opts.Quiet
	if verbose {
		ui.Building(displayTarget(opts.Target))
	}
	start := time.Now()
	if err := b.Run(cmd.Context()); err != nil {
		return err
	}
	if verbose {
		ui.Built(time.Since(start))
	}
	return nil
}

// loadOptions layers zigbuild.toml, the environment and command line flags.
func loadOptions(cmd *cobra.Command, settings build.Settings) (*build.Options, error) {
	path := settings.Config
	if cmd.Flags().Changed("zigbuild-config") {
		path = flags.configFile
	}

	opts := &build.Options{}
	cfg, err := build.LoadConfig(path)
	switch {
	case err == nil:
		opts = cfg.Options()
	case errors.Is(err, build.ErrConfigNotFound) && path == "":
		// no zigbuild.toml, run with defaults
	case errors.Is(err, build.ErrConfigNotFound):
		return nil, fmt.Errorf("config %s: %w", path, err)
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	settings.Apply(opts)
	if err := applyFlagOverrides(cmd, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func applyFlagOverrides(cmd *cobra.Command, opts *build.Options) error {
	f := cmd.Flags()
	o := &flags.opts

	// Flags without a file or environment source
	opts.Quiet = o.Quiet
	opts.Packages = o.Packages
	opts.Workspace = o.Workspace
	opts.Exclude = o.Exclude
	opts.All = o.All
	opts.Jobs = o.Jobs
	opts.Lib = o.Lib
	opts.Bins = o.Bins
	opts.AllBins = o.AllBins
	opts.Examples = o.Examples
	opts.AllExamples = o.AllExamples
	opts.Tests = o.Tests
	opts.AllTests = o.AllTests
	opts.Benches = o.Benches
	opts.AllBenches = o.AllBenches
	opts.AllTargets = o.AllTargets
	opts.OutDir = o.OutDir
	opts.ManifestPath = o.ManifestPath
	opts.IgnoreRustVersion = o.IgnoreRustVersion
	opts.MessageFormat = o.MessageFormat
	opts.BuildPlan = o.BuildPlan
	opts.UnitGraph = o.UnitGraph
	opts.FutureIncompatReport = o.FutureIncompatReport
	opts.Color = o.Color
	opts.Frozen = o.Frozen
	opts.Locked = o.Locked
	opts.Offline = o.Offline

	// Flags that override configured defaults
	if f.Changed("target") {
		opts.Target = o.Target
	}
	if f.Changed("release") {
		opts.Release = o.Release
	}
	if f.Changed("profile") {
		opts.Profile = o.Profile
	}
	if f.Changed("features") {
		opts.Features = o.Features
	}
	if f.Changed("all-features") {
		opts.AllFeatures = o.AllFeatures
	}
	if f.Changed("no-default-features") {
		opts.NoDefaultFeatures = o.NoDefaultFeatures
	}
	if f.Changed("target-dir") {
		opts.TargetDir = o.TargetDir
	}
	if f.Changed("verbose") {
		opts.Verbose = o.Verbose
	}
	if f.Changed("config") {
		opts.Config = o.Config
	}
	if f.Changed("unstable") {
		opts.Unstable = o.Unstable
	}
	if f.Changed("zig-version") {
		opts.ZigVersion = o.ZigVersion
	}
	if f.Changed("env") {
		env, err := parseEnv(flags.env)
		if err != nil {
			return err
		}
		if opts.Env == nil {
			opts.Env = make(map[string]string, len(env))
		}
		maps.Copy(opts.Env, env)
	}
	return nil
}

// parseEnv splits each KEY=VALUE on the first '='; values may hold commas
// and further '=' signs.
func parseEnv(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", kv)
		}
		env[k] = v
	}
	return env, nil
}

func displayTarget(t string) string {
	if t == "" {
		return "host"
	}
	return t
}
