package build

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/qntx/zigbuild/internal/target"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// StubName is the libiconv text stub macOS links need; zig ships no SDK copy.
	StubName = "libiconv.tbd"
)

//go:embed stub/libiconv.tbd
var libiconvTBD []byte

// Layout locates cargo's output directories for one request.
type Layout struct {
	TargetDir    string
	ManifestPath string
	Cwd          string
	Profile      string
	Release      bool
}

// LayoutOf returns the layout for opts rooted at cwd.
func LayoutOf(opts *Options, cwd string) Layout {
	return Layout{
		TargetDir:    opts.TargetDir,
		ManifestPath: opts.ManifestPath,
		Cwd:          cwd,
		Profile:      opts.Profile,
		Release:      opts.Release,
	}
}

// ProfileDir returns the directory cargo uses for the selected profile.
func (l Layout) ProfileDir() string {
	switch l.Profile {
	case "dev", "test":
		return "debug"
	case "release", "bench":
		return "release"
	case "":
		if l.Release {
			return "release"
		}
		return "debug"
	default:
		return l.Profile
	}
}

// Root returns the per-triple output directory.
func (l Layout) Root(triple string) string {
	var dir string
	switch {
	case l.TargetDir != "":
		dir = l.TargetDir
	case l.ManifestPath != "":
		dir = filepath.Join(filepath.Dir(l.ManifestPath), "target")
	default:
		dir = filepath.Join(l.Cwd, "target")
	}
	return filepath.Join(dir, triple)
}

// Stager writes auxiliary link artifacts some target families need.
type Stager struct {
	fs afero.Fs
}

// NewStager returns a Stager writing to fs.
func NewStager(fs afero.Fs) *Stager {
	return &Stager{fs: fs}
}

// Stage writes the family's stubs into <root>/<profileDir>/deps,
// overwriting previous copies. Families without stubs are a no-op.
func (s *Stager) Stage(family target.Family, root, profileDir string) error {
	switch family {
	case target.FamilyApple:
		return s.write(filepath.Join(root, profileDir, "deps"), StubName, libiconvTBD)
	case target.FamilyWindowsGnu, target.FamilyOther:
		return nil
	default:
		return fmt.Errorf("unknown target family %d", family)
	}
}

func (s *Stager) write(dir, name string, data []byte) error {
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
