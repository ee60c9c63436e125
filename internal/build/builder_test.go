package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/qntx/zigbuild/internal/rustc"
)

type fakeToolchain struct {
	info  rustc.Info
	err   error
	calls int
}

func (f *fakeToolchain) Info(context.Context) (rustc.Info, error) {
	f.calls++
	return f.info, f.err
}

func newBuilder(opts *Options, host rustc.Info, cwd string) (*Builder, *fakeToolchain, *fakeLinker) {
	opts.Normalize()
	tc := &fakeToolchain{info: host}
	linker := &fakeLinker{}
	return New(opts, Deps{
		Toolchain: tc,
		Linker:    linker,
		Stager:    NewStager(afero.NewOsFs()),
		Cwd:       cwd,
	}), tc, linker
}

func fakeCargo(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "cargo")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuilder_CommandHost(t *testing.T) {
	b, tc, linker := newBuilder(&Options{Target: "x86_64-unknown-linux-gnu"}, linuxStable, t.TempDir())

	cmd, err := b.Command(context.Background())
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}

	want := []string{"cargo", "build", "--target", "x86_64-unknown-linux-gnu"}
	if !slices.Equal(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
	if tc.calls != 1 {
		t.Errorf("toolchain queried %d times, want 1", tc.calls)
	}
	if len(linker.calls) != 0 {
		t.Errorf("linker called %v", linker.calls)
	}
	for _, kv := range cmd.Env {
		if strings.Contains(kv, "_LINKER=/cache/") || strings.HasPrefix(kv, EnvTargetCC+"=/cache/") {
			t.Errorf("unexpected linker variable %s", kv)
		}
	}
}

func TestBuilder_CommandNoTarget(t *testing.T) {
	b, tc, _ := newBuilder(&Options{Release: true}, linuxStable, t.TempDir())
	cmd, err := b.Command(context.Background())
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if tc.calls != 0 {
		t.Errorf("toolchain queried %d times, want 0", tc.calls)
	}
	if !slices.Equal(cmd.Args, []string{"cargo", "build", "--release"}) {
		t.Errorf("Args = %v", cmd.Args)
	}
}

func TestBuilder_StagesAppleStub(t *testing.T) {
	tests := []struct {
		name    string
		release bool
	}{
		{"debug", false},
		{"release", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd := t.TempDir()
			b, _, _ := newBuilder(&Options{Target: "aarch64-apple-darwin", Release: tt.release}, linuxStable, cwd)
			cmd, err := b.Command(context.Background())
			if err != nil {
				t.Fatalf("Command() error = %v", err)
			}

			path := filepath.Join(cwd, "target", "aarch64-apple-darwin", tt.name, "deps", StubName)
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stub missing: %v", err)
			}
			if info.Size() == 0 {
				t.Error("stub is empty")
			}
			if !slices.Contains(cmd.Env, "CARGO_TARGET_AARCH64_APPLE_DARWIN_LINKER=/cache/zigcc-aarch64-apple-darwin.sh") {
				t.Error("linker override missing from child env")
			}
		})
	}
}

func TestBuilder_ToolchainError(t *testing.T) {
	b, tc, linker := newBuilder(&Options{Target: "aarch64-apple-darwin"}, linuxStable, t.TempDir())
	tc.err = rustc.ErrNoHost

	if _, err := b.Command(context.Background()); !errors.Is(err, rustc.ErrNoHost) {
		t.Errorf("Command() error = %v, want ErrNoHost", err)
	}
	if len(linker.calls) != 0 {
		t.Error("linker prepared after toolchain failure")
	}
}

func TestBuilder_LinkerErrorPreventsSpawn(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	cargo := fakeCargo(t, "touch "+marker+"\n")

	b, _, linker := newBuilder(&Options{Target: "aarch64-unknown-linux-gnu", Cargo: cargo}, linuxStable, t.TempDir())
	linker.err = errors.New("no zig")

	if err := b.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail")
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("cargo was spawned after linker failure")
	}
}

func TestBuilder_RunExitCode(t *testing.T) {
	cargo := fakeCargo(t, "exit 3\n")
	b, _, _ := newBuilder(&Options{Cargo: cargo}, linuxStable, t.TempDir())

	err := b.Run(context.Background())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
}

func TestBuilder_RunSignalExit(t *testing.T) {
	cargo := fakeCargo(t, "kill -9 $$\n")
	b, _, _ := newBuilder(&Options{Cargo: cargo}, linuxStable, t.TempDir())

	err := b.Run(context.Background())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("Code = %d, want 1 for a killed cargo", exitErr.Code)
	}
}

func TestBuilder_RunSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	cargo := fakeCargo(t, `echo "$TARGET_CC $ZIGBUILD_TEST" > "$OUT"
echo "$@" >> "$OUT"
`)
	opts := &Options{
		Target: "aarch64-unknown-linux-gnu.2.17",
		Cargo:  cargo,
		Env:    map[string]string{"OUT": out, "ZIGBUILD_TEST": "set"},
	}
	b, _, _ := newBuilder(opts, linuxStable, t.TempDir())

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "/cache/zigcc-aarch64-unknown-linux-gnu.2.17.sh set\nbuild --target aarch64-unknown-linux-gnu\n"
	if string(data) != want {
		t.Errorf("cargo saw %q, want %q", data, want)
	}
}

func TestBuilder_RunSpawnError(t *testing.T) {
	b, _, _ := newBuilder(&Options{Cargo: filepath.Join(t.TempDir(), "missing")}, linuxStable, t.TempDir())

	err := b.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail for a missing cargo")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("Run() error = %v, want spawn error", err)
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 101}
	if !strings.Contains(err.Error(), "101") {
		t.Errorf("Error() = %q", err.Error())
	}
}
