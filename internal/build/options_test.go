package build

import (
	"slices"
	"strings"
	"testing"
)

func TestOptions_Normalize(t *testing.T) {
	o := &Options{Target: "  aarch64-unknown-linux-gnu.2.17 "}
	o.Normalize()

	if o.Cargo != "cargo" {
		t.Errorf("Cargo = %q, want cargo", o.Cargo)
	}
	if o.Target != "aarch64-unknown-linux-gnu.2.17" {
		t.Errorf("Target = %q", o.Target)
	}

	o = &Options{Cargo: "/opt/cargo"}
	o.Normalize()
	if o.Cargo != "/opt/cargo" {
		t.Errorf("Cargo = %q, want /opt/cargo", o.Cargo)
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"empty", Options{}, ""},
		{"release profile", Options{Release: true, Profile: "release"}, ""},
		{"negative jobs", Options{Jobs: -1}, "invalid jobs"},
		{"any verbosity", Options{Verbose: 3}, ""},
		{"release conflict", Options{Release: true, Profile: "dev"}, "conflicting"},
		{"env key with equals", Options{Env: map[string]string{"A=B": "c"}}, "invalid environment"},
		{"empty env key", Options{Env: map[string]string{"": "c"}}, "invalid environment"},
		{"valid env", Options{Env: map[string]string{"RUSTFLAGS": "-Cdebuginfo=0"}}, ""},
		{"env key with flag", Options{Env: map[string]string{"-Ctarget-cpu": "native"}}, "invalid environment"},
		{"env key with leading digit", Options{Env: map[string]string{"1A": "x"}}, "invalid environment"},
		{"env key with space", Options{Env: map[string]string{"A B": "x"}}, "invalid environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidEnvName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"RUSTFLAGS", true},
		{"_private", true},
		{"CARGO_TARGET_X86_64_LINKER", true},
		{"lower_case9", true},
		{"", false},
		{"9LIVES", false},
		{"-Ctarget-cpu", false},
		{"A=B", false},
		{"A B", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := validEnvName(tt.in); got != tt.want {
				t.Errorf("validEnvName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptions_Args(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"empty", Options{}, []string{"build"}},
		{
			name: "base triple only",
			opts: Options{Target: "aarch64-unknown-linux-gnu.2.17"},
			want: []string{"build", "--target", "aarch64-unknown-linux-gnu"},
		},
		{
			name: "verbosity",
			opts: Options{Verbose: 2},
			want: []string{"build", "-vv"},
		},
		{
			name: "verbosity beyond two",
			opts: Options{Verbose: 3},
			want: []string{"build", "-vvv"},
		},
		{
			name: "packages and jobs",
			opts: Options{Packages: []string{"a", "b"}, Jobs: 4, Exclude: []string{"c"}},
			want: []string{"build", "--package", "a", "--package", "b", "--exclude", "c", "--jobs", "4"},
		},
		{
			name: "fixed order",
			opts: Options{
				Unstable:     []string{"build-std"},
				Config:       []string{"net.offline=true"},
				Offline:      true,
				Color:        "always",
				Verbose:      1,
				ManifestPath: "a/Cargo.toml",
				Target:       "x86_64-apple-darwin",
				Features:     []string{"tls"},
				Profile:      "dist",
				Bins:         []string{"app"},
				Quiet:        true,
			},
			want: []string{
				"build", "--quiet", "--bin", "app", "--profile", "dist",
				"--features", "tls", "--target", "x86_64-apple-darwin",
				"--manifest-path", "a/Cargo.toml", "-v", "--color", "always",
				"--offline", "--config", "net.offline=true", "-Z", "build-std",
			},
		},
		{
			name: "all flags",
			opts: Options{
				Workspace: true, All: true, Lib: true, AllBins: true,
				Examples: []string{"ex"}, AllExamples: true,
				Tests: []string{"it"}, AllTests: true,
				Benches: []string{"bn"}, AllBenches: true, AllTargets: true,
				Release: true, AllFeatures: true, NoDefaultFeatures: true,
				TargetDir: "out", OutDir: "dist",
				IgnoreRustVersion: true, MessageFormat: []string{"json"},
				BuildPlan: true, UnitGraph: true, FutureIncompatReport: true,
				Frozen: true, Locked: true,
			},
			want: []string{
				"build", "--workspace", "--all", "--lib", "--bins",
				"--example", "ex", "--examples", "--test", "it", "--tests",
				"--bench", "bn", "--benches", "--all-targets", "--release",
				"--all-features", "--no-default-features",
				"--target-dir", "out", "--out-dir", "dist",
				"--ignore-rust-version", "--message-format", "json",
				"--build-plan", "--unit-graph", "--future-incompat-report",
				"--frozen", "--locked",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Args(); !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}
