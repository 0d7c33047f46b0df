package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/bannerscan/internal/config"
	"github.com/nao1215/bannerscan/internal/target"
	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by invalid arguments or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func newUsageError(err error) error {
	return &usageError{err: err}
}

// NewRootCmd creates the root command for bannerscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "TCP port scanner with banner grabbing and service detection",
		Long: `bannerscan probes a range of TCP ports on a host, reads the banner each
open service sends, and identifies HTTP, FTP and SMTP servers from it.

Ports that stay silent are sent a HEAD request, so web servers are
recognized even when they do not speak first.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"List every port and enable debug logging")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Errorf("%w\nSee '%s --help'", err, c.CommandPath()))
	})

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit code: invalid input is 2,
// anything else, an interrupted scan included, is 1.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) ||
		errors.Is(err, target.ErrInvalidRange) ||
		errors.Is(err, target.ErrInvalidHost) {
		return exitUsage
	}
	return exitFailure
}
