package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	univerify "github.com/univerify/univerify/sdk/go"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Inspect blockchain transactions",
	}
	cmd.AddCommand(txStatusCmd())
	cmd.AddCommand(txWaitCmd())
	return cmd
}

func txStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <hash>",
		Short: "Show the status of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tx, err := a.Client.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), tx)
			return nil
		},
	}
}

func txWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait <hash>",
		Short: "Wait until a transaction is confirmed",
		Long: `Poll a transaction until it reports the confirmed status, using
UNIVERIFY_CONFIRM_RETRIES and UNIVERIFY_CONFIRM_DELAY_MS. Matching uploads in
the local history are marked confirmed.

Examples:
  univerify tx wait 0xabc123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			tx, err := a.WaitForConfirmation(cmd.Context(), args[0], func(at univerify.ConfirmAttempt) {
				status := at.Status
				if at.Err != nil {
					status = "error: " + at.Err.Error()
				}
				fmt.Fprintf(out, "Attempt %d/%d: %s\n", at.Attempt, a.Config.ConfirmRetries, status)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Transaction confirmed.")
			printTransaction(out, tx)
			return nil
		},
	}
}

func printTransaction(out io.Writer, tx *univerify.TransactionRecord) {
	fmt.Fprintf(out, "%-10s %s\n", "Hash:", tx.Hash)
	fmt.Fprintf(out, "%-10s %s\n", "Status:", tx.Status)
	fmt.Fprintf(out, "%-10s %v\n", "Confirmed:", tx.Confirmed())
	fmt.Fprintf(out, "%-10s %d\n", "Block:", tx.BlockNumber)
}
