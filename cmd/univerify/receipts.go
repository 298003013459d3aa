package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/univerify/univerify/internal/storage"
)

func receiptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List and show archived receipts",
		Long: `Inspect the upload and verification receipts archived in the configured
receipt store (UNIVERIFY_RECEIPT_STORE=filesystem or s3).

Examples:
  univerify receipts uploads
  univerify receipts verifications
  univerify receipts show 0xabc123
  univerify receipts show verifications/arTx123-1700000000000000000.json`,
	}
	cmd.AddCommand(receiptsListCmd("uploads", "List upload receipts", storage.UploadPrefix))
	cmd.AddCommand(receiptsListCmd("verifications", "List verification receipts", storage.VerificationPrefix))
	cmd.AddCommand(receiptsShowCmd())
	cmd.AddCommand(receiptsDeleteCmd())
	return cmd
}

func receiptsListCmd(use, short, prefix string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			archive, err := a.Receipts()
			if err != nil {
				return err
			}

			var keys []string
			if prefix == storage.UploadPrefix {
				keys, err = archive.ListUploads(cmd.Context())
			} else {
				keys, err = archive.ListVerifications(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No receipts found.")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}
}

func receiptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <txHash|key>",
		Short: "Print a receipt as JSON",
		Long: `Print an upload receipt by transaction hash or receipt key, or a
verification receipt by key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			archive, err := a.Receipts()
			if err != nil {
				return err
			}

			var receipt any
			if strings.HasPrefix(args[0], storage.VerificationPrefix) {
				receipt, err = archive.LoadVerification(cmd.Context(), args[0])
			} else {
				receipt, err = archive.LoadUpload(cmd.Context(), uploadReceiptHash(args[0]))
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(receipt)
		},
	}
}

func receiptsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <txHash|key>",
		Short: "Delete an upload receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			archive, err := a.Receipts()
			if err != nil {
				return err
			}

			hash := uploadReceiptHash(args[0])
			if err := archive.DeleteUpload(cmd.Context(), hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Receipt %s deleted.\n", storage.UploadKey(hash))
			return nil
		},
	}
}

// uploadReceiptHash accepts a transaction hash or an upload receipt key.
func uploadReceiptHash(arg string) string {
	if strings.HasPrefix(arg, storage.UploadPrefix) {
		return strings.TrimSuffix(strings.TrimPrefix(arg, storage.UploadPrefix), ".json")
	}
	return arg
}
