package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	univerify "github.com/univerify/univerify/sdk/go"
)

// errNotValid is returned when a verification succeeds in reaching the
// backend but the document is not valid.
var errNotValid = errors.New("document is not valid")

func verifyCmd() *cobra.Command {
	var (
		link   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "verify [<documentId> <hash>]",
		Short: "Verify an anchored document",
		Long: `Verify a document by its ID and hash, or by a verification link.
The command exits with a non-zero status when the document is not valid.

Examples:
  univerify verify arTx123 0xdeadbeef
  univerify verify --link https://univerify.vercel.app/verify/arTx123/0xdeadbeef
  univerify verify arTx123 0xdeadbeef --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if link != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var documentID, hash string
			if link != "" {
				var err error
				documentID, hash, err = univerify.ParseVerificationLink(link)
				if err != nil {
					return err
				}
			} else {
				documentID, hash = args[0], args[1]
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.Verify(cmd.Context(), documentID, hash)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printVerification(out, result)
			}

			if !result.IsValid {
				return fmt.Errorf("%w: %s", errNotValid, result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&link, "link", "", "Verification link instead of <documentId> <hash>")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func printVerification(out io.Writer, result univerify.VerificationResult) {
	if !result.IsValid {
		fmt.Fprintln(out, "✗ Document could not be verified")
		fmt.Fprintf(out, "%-13s %s\n", "Reason:", result.Error)
		return
	}

	doc := result.Document
	fmt.Fprintln(out, "✓ Document verified")
	fmt.Fprintln(out, rule(60))
	fmt.Fprintf(out, "%-13s %s\n", "Document ID:", doc.ID)
	fmt.Fprintf(out, "%-13s %s\n", "Filename:", doc.Filename)
	fmt.Fprintf(out, "%-13s %s\n", "Size:", formatBytes(doc.Size))
	if doc.Owner.Name != "" || doc.Owner.WalletAddress != "" {
		fmt.Fprintf(out, "%-13s %s %s\n", "Owner:", doc.Owner.Name, doc.Owner.WalletAddress)
	}
	if doc.UploadedAt != nil {
		fmt.Fprintf(out, "%-13s %s\n", "Uploaded:", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, "%-13s %s\n", "Transaction:", doc.Blockchain.TransactionHash)
	fmt.Fprintf(out, "%-13s %d\n", "Block:", doc.Blockchain.BlockNumber)
	fmt.Fprintf(out, "%-13s %v\n", "Changed:", doc.HasChanged)
	if result.RequestedHash != "" && !result.HashMatches() {
		fmt.Fprintln(out, "Note: the hash in the request differs from the recorded verification hash")
	}
	fmt.Fprintln(out, rule(60))
}

func linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <documentId> <hash>",
		Short: "Print the verification link of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), univerify.VerificationLink(cfg.AppURL, args[0], args[1]))
			return nil
		},
	}
}
