package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <publicId>",
		Short: "Delete a stored file",
		Long: `Delete a stored file by its public ID (requires authentication).
The blockchain record of the document is not affected.

Examples:
  univerify delete documents/abc123`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Client.DeleteFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !result.Deleted {
				return fmt.Errorf("file %s was not deleted", result.PublicID)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "File %s deleted successfully.\n", result.PublicID)
			return nil
		},
	}
}

func documentsCmd() *cobra.Command {
	var wallet string

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents owned by a wallet",
		Long: `List the anchored documents of a wallet (requires authentication).
Defaults to the wallet of the current session.

Examples:
  univerify documents
  univerify documents --wallet 0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Client.ListDocuments(cmd.Context(), wallet)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list.Documents) == 0 {
				fmt.Fprintln(out, "No documents found.")
				return nil
			}

			fmt.Fprintf(out, "Documents of %s (%d):\n", list.UserAddress, list.TotalDocuments)
			fmt.Fprintln(out, rule(80))
			for _, d := range list.Documents {
				fmt.Fprintf(out, "\n%-13s %s\n", "Document ID:", d.TxID)
				fmt.Fprintf(out, "%-13s %s\n", "Filename:", d.Filename)
				fmt.Fprintf(out, "%-13s %s\n", "Size:", formatBytes(d.Size))
				if d.UploadedAt != nil {
					fmt.Fprintf(out, "%-13s %s\n", "Uploaded:", d.UploadedAt.Format("2006-01-02 15:04:05"))
				}
				fmt.Fprintf(out, "%-13s %s\n", "Transaction:", d.Blockchain.TransactionHash)
				fmt.Fprintf(out, "%-13s %v\n", "Changed:", d.HasChanged)
				fmt.Fprintln(out, rule(80))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&wallet, "wallet", "w", "", "Wallet address (default: session wallet)")

	return cmd
}

func shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <documentId> <email>",
		Short: "Share a verified document by email",
		Long: `Verify a document and share it with a recipient by email
(requires authentication).

Examples:
  univerify share arTx123 registrar@example.edu`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Client.ShareDocument(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			message := result.Message
			if message == "" {
				message = "Document shared"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s with %s.\n", message, args[1])
			return nil
		},
	}
}
