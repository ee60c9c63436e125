package target

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupported = errors.New("unsupported target")

// ----------------------------------------------------------------------------
// Spec
// ----------------------------------------------------------------------------

// Spec is a requested build target: a rust triple plus an optional
// ABI version, e.g. the glibc baseline in "x86_64-unknown-linux-gnu.2.17".
type Spec struct {
	Triple     string
	ABIVersion string
}

// Parse splits s on the first dot. It performs no validation.
func Parse(s string) Spec {
	triple, version, _ := strings.Cut(s, ".")
	return Spec{Triple: triple, ABIVersion: version}
}

// String returns the full target string including the ABI version.
func (s Spec) String() string {
	if s.ABIVersion == "" {
		return s.Triple
	}
	return s.Triple + "." + s.ABIVersion
}

// IsZero reports whether no target was requested.
func (s Spec) IsZero() bool { return s.Triple == "" }

// EnvName returns the triple in cargo's environment variable form.
func (s Spec) EnvName() string {
	return strings.ReplaceAll(strings.ToUpper(s.Triple), "-", "_")
}

// ----------------------------------------------------------------------------
// Family
// ----------------------------------------------------------------------------

// Family groups targets that share linker policy.
type Family int

const (
	FamilyOther Family = iota
	FamilyApple
	FamilyWindowsGnu
)

func (f Family) String() string {
	switch f {
	case FamilyApple:
		return "apple"
	case FamilyWindowsGnu:
		return "windows-gnu"
	default:
		return "other"
	}
}

// Family derives the target family from the base triple.
func (s Spec) Family() Family {
	switch {
	case strings.Contains(s.Triple, "-apple-"):
		return FamilyApple
	case strings.Contains(s.Triple, "windows-gnu"):
		return FamilyWindowsGnu
	default:
		return FamilyOther
	}
}

// ----------------------------------------------------------------------------
// Zig Target
// ----------------------------------------------------------------------------

var (
	zigArch = map[string]string{
		"x86_64":      "x86_64",
		"i686":        "x86",
		"i586":        "x86",
		"aarch64":     "aarch64",
		"arm":         "arm",
		"armv7":       "arm",
		"thumbv7neon": "thumb",
		"riscv64gc":   "riscv64",
		"loongarch64": "loongarch64",
		"powerpc64le": "powerpc64le",
		"s390x":       "s390x",
		"mips64el":    "mips64el",
	}
	zigOS = map[string]string{
		"darwin":  "macos",
		"freebsd": "freebsd",
		"netbsd":  "netbsd",
	}
)

// Zig returns the zig -target string, keeping the ABI version.
func (s Spec) Zig() (string, error) {
	parts := strings.Split(s.Triple, "-")
	if len(parts) < 3 {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, s.Triple)
	}

	arch, ok := zigArch[parts[0]]
	if !ok {
		return "", fmt.Errorf("%w: architecture %s", ErrUnsupported, parts[0])
	}

	osName, env := parts[2], ""
	if len(parts) > 3 {
		env = parts[3]
	}

	var zos string
	switch osName {
	case "linux":
		zos = "linux"
		if env != "" {
			zos += "-" + env
		}
	case "windows":
		if !strings.HasPrefix(env, "gnu") {
			return "", fmt.Errorf("%w: windows abi %q", ErrUnsupported, env)
		}
		zos = "windows-gnu"
	default:
		if zos, ok = zigOS[osName]; !ok {
			return "", fmt.Errorf("%w: os %s", ErrUnsupported, osName)
		}
	}

	zt := arch + "-" + zos
	if s.ABIVersion != "" {
		zt += "." + s.ABIVersion
	}
	return zt, nil
}

// Known lists the triples offered by the interactive selector.
var Known = []string{
	"x86_64-unknown-linux-gnu",
	"x86_64-unknown-linux-musl",
	"aarch64-unknown-linux-gnu",
	"aarch64-unknown-linux-musl",
	"armv7-unknown-linux-gnueabihf",
	"arm-unknown-linux-gnueabihf",
	"i686-unknown-linux-gnu",
	"riscv64gc-unknown-linux-gnu",
	"powerpc64le-unknown-linux-gnu",
	"s390x-unknown-linux-gnu",
	"x86_64-apple-darwin",
	"aarch64-apple-darwin",
	"x86_64-pc-windows-gnu",
	"i686-pc-windows-gnu",
	"x86_64-unknown-freebsd",
}
