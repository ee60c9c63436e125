package zig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/qntx/zigbuild/internal/target"
)

// Linker writes `zig cc` and `zig c++` wrapper scripts that cargo can use
// as C compiler and linker for a target.
type Linker struct {
	// Version pins a cached zig. Empty prefers zig from PATH.
	Version string
	// Dir holds the generated wrappers. Defaults to the user cache.
	Dir string

	locate func(ctx context.Context, version string) (string, error)
}

// NewLinker returns a Linker for the given zig version.
func NewLinker(version string) *Linker {
	return &Linker{Version: version, locate: Locate}
}

// Prepare returns paths to the C and C++ wrappers for the full target
// string, ABI version included. Wrappers are rewritten on every call.
func (l *Linker) Prepare(ctx context.Context, triple string) (cc, cxx string, err error) {
	zt, err := target.Parse(triple).Zig()
	if err != nil {
		return "", "", err
	}

	locate := l.locate
	if locate == nil {
		locate = Locate
	}
	bin, err := locate(ctx, l.Version)
	if err != nil {
		return "", "", fmt.Errorf("zig: %w", err)
	}

	dir := l.Dir
	if dir == "" {
		dir = WrapperDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	cc = filepath.Join(dir, "zigcc-"+triple+scriptExt())
	cxx = filepath.Join(dir, "zigcxx-"+triple+scriptExt())
	if err := writeScript(cc, bin, "cc", zt); err != nil {
		return "", "", err
	}
	if err := writeScript(cxx, bin, "c++", zt); err != nil {
		return "", "", err
	}
	return cc, cxx, nil
}

func writeScript(path, bin, compiler, zigTarget string) error {
	if err := os.WriteFile(path, []byte(script(bin, compiler, zigTarget)), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func script(bin, compiler, zigTarget string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("@echo off\r\n\"%s\" %s -target %s %%*\r\n", bin, compiler, zigTarget)
	}
	return fmt.Sprintf("#!/bin/sh\nexec \"%s\" %s -target %s \"$@\"\n", bin, compiler, zigTarget)
}

func scriptExt() string {
	if runtime.GOOS == "windows" {
		return ".bat"
	}
	return ".sh"
}
