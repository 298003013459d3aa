package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/univerify/univerify/internal/repository"
)

func historyCmd() *cobra.Command {
	var (
		status   string
		filename string
		limit    int
		offset   int
		document string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List local upload history",
		Long: `List the uploads attempted from this machine, newest first.

Examples:
  univerify history
  univerify history --status unconfirmed
  univerify history --filename diploma --limit 10
  univerify history --verifications arTx123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if document != "" {
				if status != "" || filename != "" {
					return fmt.Errorf("--verifications cannot be combined with --status or --filename")
				}
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer a.Close()

				verifications, err := a.VerificationHistory(cmd.Context(), document, limit)
				if err != nil {
					return err
				}
				return printVerificationHistory(cmd.OutOrStdout(), document, verifications)
			}

			filter := repository.UploadFilter{
				Status:   repository.UploadStatus(status),
				Filename: filename,
			}
			if status != "" && !filter.Status.Valid() {
				return fmt.Errorf("invalid status %q (want confirmed, unconfirmed or failed)", status)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			uploads, total, err := a.History(cmd.Context(), filter, repository.PaginationOptions{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(uploads) == 0 {
				fmt.Fprintln(out, "No uploads found.")
				return nil
			}

			fmt.Fprintf(out, "Uploads (offset %d, showing %d of %d):\n", offset, len(uploads), total)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tSTATUS\tFILENAME\tSIZE\tTRANSACTION")
			for _, u := range uploads {
				tx := u.TransactionHash
				if tx == "" {
					tx = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					u.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					u.Status,
					u.Filename,
					formatBytes(u.Size),
					tx,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (confirmed, unconfirmed, failed)")
	cmd.Flags().StringVar(&filename, "filename", "", "Filter by filename substring")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of uploads to show (max 500)")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Number of uploads to skip")
	cmd.Flags().StringVar(&document, "verifications", "", "List the verifications of a document ID instead of uploads")

	return cmd
}

func printVerificationHistory(out io.Writer, documentID string, verifications []repository.Verification) error {
	if len(verifications) == 0 {
		fmt.Fprintf(out, "No verifications of %s found.\n", documentID)
		return nil
	}

	fmt.Fprintf(out, "Verifications of %s:\n", documentID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECKED\tRESULT\tCHANGED\tHASH\tERROR")
	for _, v := range verifications {
		result := "invalid"
		if v.IsValid {
			result = "valid"
		}
		hash, errMsg := v.RequestedHash, v.Error
		if hash == "" {
			hash = "-"
		}
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
			v.CheckedAt.Local().Format("2006-01-02 15:04:05"),
			result,
			v.HasChanged,
			hash,
			errMsg,
		)
	}
	return w.Flush()
}
