package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary. Fields are stamped with
// -ldflags at release time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewVersionCommand prints info. With --short only the version is printed.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Print the leapxmla version, the commit it was built from and the Go toolchain.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if short {
				_, _ = fmt.Fprintln(out, info.Version)
				return
			}
			_, _ = fmt.Fprintf(out, "leapxmla %s\n", info.Version)
			_, _ = fmt.Fprintf(out, "  commit:  %s\n", info.Commit)
			_, _ = fmt.Fprintf(out, "  built:   %s\n", info.Date)
			_, _ = fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
