package zig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/qntx/zigbuild/internal/archive"
	"github.com/qntx/zigbuild/internal/ui"
)

const (
	indexURL       = "https://ziglang.org/download/index.json"
	defaultVersion = "master"
	exeSuffix      = ".exe"
)

// Host platform mappings to Zig target names
var (
	archMap = map[string]string{
		"amd64": "x86_64", "386": "x86", "arm64": "aarch64", "arm": "armv7a",
	}
	osMap = map[string]string{
		"linux": "linux", "darwin": "macos", "windows": "windows",
	}
)

// Index represents the Zig download index.
type Index map[string]Release

// Release represents a Zig release version with available builds.
type Release struct {
	Version string           `json:"version,omitempty"`
	Date    string           `json:"date,omitempty"`
	Builds  map[string]Build `json:"-"`
}

// Build represents a downloadable Zig tarball.
type Build struct {
	Tarball string `json:"tarball"`
	Shasum  string `json:"shasum"`
	Size    string `json:"size"`
}

var skipKeys = map[string]bool{
	"version": true, "date": true, "notes": true,
	"src": true, "bootstrap": true, "stdDocs": true,
}

func (r *Release) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	_ = json.Unmarshal(raw["version"], &r.Version)
	_ = json.Unmarshal(raw["date"], &r.Date)

	r.Builds = make(map[string]Build)
	for key, val := range raw {
		if skipKeys[key] {
			continue
		}
		var b Build
		if json.Unmarshal(val, &b) == nil && b.Tarball != "" {
			r.Builds[key] = b
		}
	}
	return nil
}

// Locate returns the zig binary to use. An empty version prefers zig from
// PATH and falls back to the default cached version.
func Locate(ctx context.Context, version string) (string, error) {
	if version == "" {
		if bin, err := exec.LookPath("zig"); err == nil {
			return bin, nil
		}
	}

	dir, err := Ensure(ctx, version)
	if err != nil {
		return "", err
	}
	return Bin(dir), nil
}

// Ensure downloads and caches a Zig version if not already present.
// Returns the path to the Zig installation directory.
func Ensure(ctx context.Context, version string) (string, error) {
	if version == "" {
		version = defaultVersion
	}

	dir := Path(version)
	if isInstalled(dir) {
		return dir, nil
	}

	index, err := fetchIndex(ctx, indexURL)
	if err != nil {
		return "", fmt.Errorf("fetch index: %w", err)
	}

	release, ok := index[version]
	if !ok {
		return "", fmt.Errorf("zig version %q not found", version)
	}

	host := hostPlatform()
	build, ok := release.Builds[host]
	if !ok {
		return "", fmt.Errorf("no zig build for %s", host)
	}

	name := fmt.Sprintf("zig %s for %s", version, host)
	if n, err := strconv.ParseInt(build.Size, 10, 64); err == nil {
		name += " (" + ui.FormatSize(n) + ")"
	}
	ui.Downloading(name)

	if err := archive.Download(ctx, build.Tarball, build.Shasum, dir); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("download: %w", err)
	}
	return dir, nil
}

// Bin returns the zig executable inside an installation directory.
func Bin(dir string) string {
	bin := filepath.Join(dir, "zig")
	if runtime.GOOS == "windows" {
		bin += exeSuffix
	}
	return bin
}

// Path returns the cache path for a Zig version.
func Path(version string) string {
	return filepath.Join(baseDir(), "zig", version)
}

// Installed returns all cached Zig versions.
func Installed() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(baseDir(), "zig"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	return versions, nil
}

// Remove deletes a specific Zig version from cache.
func Remove(version string) error {
	dir := Path(version)
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// RemoveAll deletes all cached Zig versions and generated linker wrappers.
func RemoveAll() error {
	if err := os.RemoveAll(filepath.Join(baseDir(), "zig")); err != nil {
		return err
	}
	return os.RemoveAll(WrapperDir())
}

// WrapperDir is where Linker writes wrapper scripts by default.
func WrapperDir() string {
	return filepath.Join(baseDir(), "linker")
}

// Wrappers returns the file names of the generated zigcc/zigcxx wrappers.
func Wrappers() ([]string, error) {
	entries, err := os.ReadDir(WrapperDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read wrappers: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func isInstalled(dir string) bool {
	_, err := os.Stat(Bin(dir))
	return err == nil
}

func baseDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "zigbuild")
	}
	return filepath.Join(os.TempDir(), "zigbuild")
}

func fetchIndex(ctx context.Context, url string) (Index, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var index Index
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return index, nil
}

func hostPlatform() string {
	arch := archMap[runtime.GOARCH]
	if arch == "" {
		arch = runtime.GOARCH
	}
	goos := osMap[runtime.GOOS]
	if goos == "" {
		goos = runtime.GOOS
	}
	return arch + "-" + goos
}
