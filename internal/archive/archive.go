package archive

import (
	"archive/tar"
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/qntx/zigbuild/internal/ui"
)

const (
	defaultPerm     = 0o755
	maxSymlinkDepth = 10
)

var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Format represents an archive format.
type Format int

const (
	TarGz Format = iota
	TarXz
	Zip
)

func (f Format) Ext() string {
	return [...]string{".tar.gz", ".tar.xz", ".zip"}[f]
}

// Detect determines archive format from filename or URL.
func Detect(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return Zip
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return TarXz
	default:
		return TarGz
	}
}

// Extract extracts an archive to destDir, stripping a shared top-level directory.
func Extract(archivePath, destDir string) error {
	switch Detect(archivePath) {
	case Zip:
		return extractZip(archivePath, destDir)
	case TarXz:
		return extractTar(archivePath, destDir, newXzReader)
	default:
		return extractTar(archivePath, destDir, newGzipReader)
	}
}

func newGzipReader(r io.Reader) (io.Reader, error) { return pgzip.NewReader(r) }
func newXzReader(r io.Reader) (io.Reader, error)   { return xz.NewReader(r) }

// ProgressFunc returns a writer that observes downloaded bytes.
type ProgressFunc func(name string, total int64) io.Writer

// Download fetches url, verifies the optional sha256 shasum and extracts to destDir.
// Progress is drawn on stderr when it is a terminal.
func Download(ctx context.Context, url, shasum, destDir string) error {
	return DownloadWithProgress(ctx, url, shasum, destDir, ui.NewProgress)
}

// DownloadWithProgress is Download with a caller-supplied progress sink.
func DownloadWithProgress(ctx context.Context, url, shasum, destDir string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	tmpDir, err := os.MkdirTemp("", "zigbuild-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	var w io.Writer = io.Discard
	if progress != nil {
		w = progress(filepath.Base(url), resp.ContentLength)
	}

	tmpFile := filepath.Join(tmpDir, "archive"+Detect(url).Ext())
	sum, err := downloadToFile(tmpFile, resp.Body, w)
	if err != nil {
		return err
	}
	if shasum != "" && !strings.EqualFold(sum, shasum) {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, sum, shasum)
	}

	if err := os.MkdirAll(filepath.Dir(destDir), defaultPerm); err != nil {
		return err
	}
	return Extract(tmpFile, destDir)
}

func downloadToFile(path string, r io.Reader, progress io.Writer) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	_, err = io.Copy(io.MultiWriter(f, h, progress), r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ----------------------------------------------------------------------------
// Zip
// ----------------------------------------------------------------------------

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	strip := commonPrefix(names)

	for _, f := range r.File {
		if err := extractZipEntry(f, destDir, strip); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, destDir, strip string) error {
	name := strings.TrimPrefix(f.Name, strip)
	if name == "" {
		return nil
	}

	path, err := safe(destDir, name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(path, defaultPerm)
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return writeFile(path, rc, f.Mode())
}

// ----------------------------------------------------------------------------
// Tar
// ----------------------------------------------------------------------------

func extractTar(archivePath, destDir string, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	dr, err := decompress(f)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	strip, err := tarStripPrefix(tar.NewReader(dr))
	if err != nil {
		return err
	}

	// Rewind for second pass
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	dr, err = decompress(f)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	return processTar(tar.NewReader(dr), destDir, strip)
}

func tarStripPrefix(tr *tar.Reader) (string, error) {
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		names = append(names, hdr.Name)
	}
	return commonPrefix(names), nil
}

// commonPrefix returns "dir/" when every entry lives under the same
// top-level directory, and "" otherwise.
func commonPrefix(names []string) string {
	var top string
	for _, name := range names {
		first, _, nested := strings.Cut(name, "/")
		if !nested {
			return ""
		}
		if top == "" {
			top = first
		} else if first != top {
			return ""
		}
	}
	if top == "" {
		return ""
	}
	return top + "/"
}

type pendingSymlink struct {
	linkname, path string
}

func processTar(tr *tar.Reader, destDir, strip string) error {
	var symlinks []pendingSymlink

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		name := strings.TrimPrefix(hdr.Name, strip)
		if name == "" {
			continue
		}

		path, err := safe(destDir, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, defaultPerm); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(path, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := symlink(hdr.Linkname, path); err != nil {
				// Windows: defer symlink resolution
				symlinks = append(symlinks, pendingSymlink{hdr.Linkname, path})
			}
		}
	}
	return resolveSymlinks(symlinks)
}

func symlink(target, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultPerm); err != nil {
		return err
	}
	_ = os.Remove(path)
	return os.Symlink(target, path)
}

func resolveSymlinks(symlinks []pendingSymlink) error {
	if len(symlinks) == 0 {
		return nil
	}

	linkMap := make(map[string]string, len(symlinks))
	for _, sl := range symlinks {
		linkMap[sl.path] = sl.linkname
	}

	for _, sl := range symlinks {
		target := resolveChain(sl.path, sl.linkname, linkMap)
		if _, err := os.Stat(target); err != nil {
			continue
		}
		if err := copyFile(target, sl.path); err != nil {
			continue
		}
	}
	return nil
}

func resolveChain(base, linkname string, linkMap map[string]string) string {
	target := filepath.Join(filepath.Dir(base), linkname)
	for i := 0; i < maxSymlinkDepth; i++ {
		next, ok := linkMap[target]
		if !ok {
			return target
		}
		target = filepath.Join(filepath.Dir(target), next)
	}
	return target
}

// ----------------------------------------------------------------------------
// Files
// ----------------------------------------------------------------------------

func safe(destDir, name string) (string, error) {
	path := filepath.Join(destDir, name)
	if !strings.HasPrefix(path, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, name)
	}
	return path, nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultPerm); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	return writeFile(dst, in, info.Mode())
}
