package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cargo-zigbuild",
	Short: "Compile Cargo projects with zig as the linker",
	Long: `cargo-zigbuild runs cargo build with zig cc as the C compiler and linker
for cross targets. Append a glibc version to the target to pin the baseline,
e.g. --target aarch64-unknown-linux-gnu.2.17.

Run as a cargo subcommand:  cargo zigbuild --target <triple>
Update zig:                 cargo-zigbuild zig update`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
