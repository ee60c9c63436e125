package rustc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrNoHost = errors.New("rustc did not report a host triple")

// Channel is the rustc release channel.
type Channel int

const (
	Stable Channel = iota
	Beta
	Nightly
	Dev
)

func (c Channel) String() string {
	return [...]string{"stable", "beta", "nightly", "dev"}[c]
}

// Info is the host toolchain metadata reported by `rustc -vV`.
type Info struct {
	Host    string
	Release string
	Channel Channel
}

// Rustc queries a rustc binary.
type Rustc struct {
	Path string
}

// New returns a Rustc for path, defaulting to "rustc".
func New(path string) *Rustc {
	if path == "" {
		path = "rustc"
	}
	return &Rustc{Path: path}
}

// Info runs `rustc -vV` and parses its output.
func (r *Rustc) Info(ctx context.Context) (Info, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path, "-vV")
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Info{}, fmt.Errorf("%s -vV: %w: %s", r.Path, err, msg)
		}
		return Info{}, fmt.Errorf("%s -vV: %w", r.Path, err)
	}
	return ParseVerbose(out)
}

// ParseVerbose parses the key: value lines of `rustc -vV`.
func ParseVerbose(out []byte) (Info, error) {
	var info Info

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "host":
			info.Host = value
		case "release":
			info.Release = value
			info.Channel = channelOf(value)
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, err
	}
	if info.Host == "" {
		return Info{}, ErrNoHost
	}
	return info, nil
}

func channelOf(release string) Channel {
	switch {
	case strings.Contains(release, "-nightly"):
		return Nightly
	case strings.Contains(release, "-beta"):
		return Beta
	case strings.Contains(release, "-dev"):
		return Dev
	default:
		return Stable
	}
}
