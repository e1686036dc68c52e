package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "bondmodel",
		Short: "Fixed-rate bond portfolio cashflow projection and valuation",
		Long: `bondmodel projects the coupon and redemption cashflows of a fixed-rate bond
portfolio onto an annual date axis and values every bond on its z-spread
discount curve.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().String("config", "", "config file path (defaults and BONDMODEL_* environment when empty)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bondmodel %s (commit %s)\n", version, commit)
		},
	})
	return root
}
