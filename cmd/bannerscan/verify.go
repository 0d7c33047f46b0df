package main

import (
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Scan a port range and compare the open ports with nmap",
		Long: `Verify runs a normal scan, prints the open ports, then runs
"nmap -sT -Pn -p START-END HOST" and lists the ports only one of the two
found. nmap must be installed and in PATH.

Examples:
  bannerscan verify --host 127.0.0.1 --ports 1-1024`,
		Args: cobra.NoArgs,
		RunE: runVerifyCmd,
	}

	addTargetFlags(cmd)

	return cmd
}

// runVerifyCmd executes the verify command.
func runVerifyCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Verify = true

	logger := newLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runScan(ctx, cmd.OutOrStdout(), cfg, logger)
}
