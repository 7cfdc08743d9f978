package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/japaniel/talkwords/pkg/cli"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the command and maps the outcome to an exit status:
// 0 on success, 2 for invalid configuration, 1 for anything else.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := cli.NewFlags()
	rootCmd := cli.CreateRootCommand(flags)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return cli.Run(cmd.Context(), flags, stdout, stderr)
	}

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	var cfgErr *cli.ConfigError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}
