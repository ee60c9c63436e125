package zig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/qntx/zigbuild/internal/target"
)

func fakeLinker(t *testing.T) (*Linker, *int) {
	t.Helper()
	calls := 0
	l := &Linker{
		Version: "0.13.0",
		Dir:     t.TempDir(),
		locate: func(_ context.Context, version string) (string, error) {
			calls++
			if version != "0.13.0" {
				t.Errorf("locate version = %q", version)
			}
			return "/opt/zig/zig", nil
		},
	}
	return l, &calls
}

func TestLinker_Prepare(t *testing.T) {
	l, calls := fakeLinker(t)

	cc, cxx, err := l.Prepare(context.Background(), "aarch64-unknown-linux-gnu.2.17")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if *calls != 1 {
		t.Errorf("locate calls = %d, want 1", *calls)
	}

	if filepath.Dir(cc) != l.Dir || filepath.Dir(cxx) != l.Dir {
		t.Errorf("wrappers %q, %q not in %q", cc, cxx, l.Dir)
	}
	if !strings.Contains(filepath.Base(cc), "zigcc-aarch64-unknown-linux-gnu.2.17") {
		t.Errorf("cc = %q", cc)
	}

	data, err := os.ReadFile(cc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cc -target aarch64-linux-gnu.2.17") {
		t.Errorf("cc script = %q", data)
	}

	data, err = os.ReadFile(cxx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "c++ -target aarch64-linux-gnu.2.17") {
		t.Errorf("cxx script = %q", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(cc)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Errorf("cc mode = %v, want executable", info.Mode())
		}
	}
}

func TestLinker_Prepare_Idempotent(t *testing.T) {
	l, _ := fakeLinker(t)

	cc1, _, err := l.Prepare(context.Background(), "aarch64-apple-darwin")
	if err != nil {
		t.Fatal(err)
	}
	cc2, _, err := l.Prepare(context.Background(), "aarch64-apple-darwin")
	if err != nil {
		t.Fatal(err)
	}
	if cc1 != cc2 {
		t.Errorf("paths differ: %q != %q", cc1, cc2)
	}
}

func TestLinker_Prepare_Unsupported(t *testing.T) {
	l, calls := fakeLinker(t)

	_, _, err := l.Prepare(context.Background(), "x86_64-pc-windows-msvc")
	if !errors.Is(err, target.ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
	if *calls != 0 {
		t.Error("zig should not be located for unsupported targets")
	}
}

func TestLinker_Prepare_LocateError(t *testing.T) {
	l := &Linker{
		Dir: t.TempDir(),
		locate: func(context.Context, string) (string, error) {
			return "", errors.New("offline")
		},
	}

	if _, _, err := l.Prepare(context.Background(), "aarch64-apple-darwin"); err == nil {
		t.Error("Prepare() should propagate locate errors")
	}
}

func TestScript(t *testing.T) {
	s := script("/opt/zig/zig", "cc", "x86_64-windows-gnu")
	if !strings.Contains(s, `"/opt/zig/zig" cc -target x86_64-windows-gnu`) {
		t.Errorf("script() = %q", s)
	}
}
