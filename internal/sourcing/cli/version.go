package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/vendorscore/schema"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vendorscore version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vendorscore %s (%s, %s/%s)\n", schema.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
