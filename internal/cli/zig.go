package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/qntx/zigbuild/internal/ui"
	"github.com/qntx/zigbuild/internal/zig"
)

// ----------------------------------------------------------------------------
// Commands
// ----------------------------------------------------------------------------

var (
	zigCmd = &cobra.Command{
		Use:   "zig",
		Short: "Manage cached Zig compilers",
		Long: `Manage the Zig compilers used with --zig-version.
Without --zig-version the zig found on PATH is used, and 'master' is
downloaded only when PATH has none.`,
	}

	zigUpdateCmd = &cobra.Command{
		Use:   "update [version]",
		Short: "Update or install a Zig version",
		Long: `Download and install a Zig compiler version.
If no version is specified, updates the 'master' version to latest.
Use --force to re-download even if already installed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runZigUpdate,
	}

	zigListCmd = &cobra.Command{
		Use:   "list",
		Short: "List cached Zig versions and linker wrappers",
		Long: `List cached Zig compilers and the zigcc/zigcxx wrapper scripts that
cargo is pointed at through TARGET_CC, TARGET_CXX and
CARGO_TARGET_<TRIPLE>_LINKER. Wrappers are rewritten on every build.`,
		Args:  cobra.NoArgs,
		RunE:  runZigList,
	}

	zigCleanCmd = &cobra.Command{
		Use:   "clean [version]",
		Short: "Remove cached Zig installations",
		Long: `Remove cached Zig compiler installations and generated linker wrappers.
If no version is specified, removes all cached versions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runZigClean,
	}
)

func init() {
	zigUpdateCmd.Flags().BoolP("force", "f", false, "force re-download")

	zigCmd.AddCommand(zigUpdateCmd, zigListCmd, zigCleanCmd)
	rootCmd.AddCommand(zigCmd)
}

// ----------------------------------------------------------------------------
// Handlers
// ----------------------------------------------------------------------------

func runZigUpdate(cmd *cobra.Command, args []string) error {
	version := firstOr(args, "master")
	force, _ := cmd.Flags().GetBool("force")

	if force {
		if err := zig.Remove(version); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove: %w", err)
		}
	}

	path, err := zig.Ensure(cmd.Context(), version)
	if err != nil {
		return err
	}

	ui.Success("zig %s", version)
	ui.Label("path", path)
	return nil
}

func runZigList(cmd *cobra.Command, _ []string) error {
	versions, err := zig.Installed()
	if err != nil {
		return err
	}
	wrappers, err := zig.Wrappers()
	if err != nil {
		return err
	}

	if len(versions) == 0 {
		ui.Info("no zig versions installed")
	} else {
		slices.Sort(versions)
		table := ui.NewTable("VERSION", "PATH")
		for _, v := range versions {
			table.AddRow(v, zig.Path(v))
		}
		table.Render(cmd.OutOrStdout())
	}

	if len(wrappers) == 0 {
		return nil
	}
	slices.Sort(wrappers)
	table := ui.NewTable("WRAPPER", "DIR")
	for _, w := range wrappers {
		table.AddRow(w, zig.WrapperDir())
	}
	table.Render(cmd.OutOrStdout())
	return nil
}

func runZigClean(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return cleanOne(args[0])
	}
	return cleanAll()
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func cleanOne(version string) error {
	err := zig.Remove(version)
	if os.IsNotExist(err) {
		ui.Warn("zig %s: not installed", version)
		return nil
	}
	if err != nil {
		return err
	}
	ui.Success("removed zig %s", version)
	return nil
}

func cleanAll() error {
	versions, err := zig.Installed()
	if err != nil {
		return err
	}

	if err := zig.RemoveAll(); err != nil {
		return err
	}
	if len(versions) == 0 {
		ui.Info("nothing to clean")
		return nil
	}
	ui.Success("removed %d version(s)", len(versions))
	return nil
}

func firstOr(s []string, def string) string {
	if len(s) > 0 {
		return s[0]
	}
	return def
}
