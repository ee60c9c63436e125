package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/qntx/zigbuild/internal/build"
	"github.com/qntx/zigbuild/internal/target"
)

var profiles = []struct {
	name    string
	release bool
}{
	{"Debug (dev profile)", false},
	{"Release", true},
}

// SelectTarget asks for a target triple, an optional glibc version and the
// build profile, and stores the answers in opts.
func SelectTarget(opts *build.Options) (*build.Options, error) {
	current := target.Parse(opts.Target)

	var (
		targetIdx  = max(slices.Index(target.Known, current.Triple), 0)
		profileIdx int
		glibc      = current.ABIVersion
	)
	if opts.Release {
		profileIdx = 1
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Target").
				Description("Rust target triple to build for").
				Options(indexedOptions(target.Known, func(s string) string { return s })...).
				Value(&targetIdx),

			huh.NewSelect[int]().
				Title("Profile").
				Options(indexedOptions(profiles, func(p struct {
					name    string
					release bool
				}) string {
					return p.name
				})...).
				Value(&profileIdx),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("glibc Version").
				Description("Minimum glibc to link against, empty for zig's default").
				Placeholder("2.17").
				Validate(validateVersion).
				Value(&glibc),
		).WithHideFunc(func() bool {
			return !linksGlibc(target.Known[targetIdx])
		}),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}

	spec := target.Spec{Triple: target.Known[targetIdx]}
	if linksGlibc(spec.Triple) {
		spec.ABIVersion = strings.TrimSpace(glibc)
	}
	opts.Target = spec.String()
	opts.Release = profiles[profileIdx].release
	if opts.Release && opts.Profile != "release" {
		opts.Profile = ""
	}

	return opts, nil
}

// linksGlibc reports whether triple targets glibc, including the
// gnueabi and gnueabihf variants.
func linksGlibc(triple string) bool {
	return strings.Contains(triple, "-linux-gnu")
}

// validateVersion accepts empty input or dot-separated numbers such as 2.17.
func validateVersion(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return errors.New("use a version like 2.17")
		}
	}
	return nil
}

func indexedOptions[T any](items []T, label func(T) string) []huh.Option[int] {
	opts := make([]huh.Option[int], len(items))
	for i, item := range items {
		opts[i] = huh.NewOption(label(item), i)
	}
	return opts
}
