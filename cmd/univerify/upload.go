package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/univerify/univerify/internal/app"
	univerify "github.com/univerify/univerify/sdk/go"
)

func uploadCmd() *cobra.Command {
	var (
		params     app.UploadParams
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents and anchor them on the blockchain",
		Long: `Upload one or more documents to UniVerify and wait for their blockchain
transactions to confirm. Every attempt is recorded in the local history.

Examples:
  univerify upload diploma.pdf
  univerify upload transcript.pdf diploma.pdf --folder diplomas
  univerify upload scan.png --description "Signed copy" --no-progress`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("file not found: %s", path)
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				if !noProgress {
					params.OnProgress = func(p univerify.UploadProgress) {
						fmt.Fprintf(out, "\r%s %3d%% %-40s", progressBar(p.Progress), p.Progress, p.Message)
					}
				}

				result, err := a.Upload(cmd.Context(), args[0], params)
				if !noProgress {
					fmt.Fprintln(out) // Clear progress line
				}
				if err != nil {
					return err
				}
				printUploadResult(out, a, result)
				return nil
			}

			if !noProgress {
				params.OnFileProgress = func(path string, p univerify.UploadProgress) {
					if p.Terminal() {
						fmt.Fprintf(out, "%s: %s\n", path, p.Message)
					}
				}
			}

			outcomes, err := a.UploadMany(cmd.Context(), args, params)
			for _, o := range outcomes {
				if o.Result != nil {
					fmt.Fprintln(out)
					printUploadResult(out, a, o.Result)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&params.Folder, "folder", "f", "", "Storage folder")
	cmd.Flags().StringVarP(&params.Description, "description", "d", "", "Document description")
	cmd.Flags().IntVarP(&params.Concurrency, "concurrency", "c", 4, "Parallel uploads when several files are given")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")

	return cmd
}

func printUploadResult(out io.Writer, a *app.App, result *univerify.UploadResult) {
	fmt.Fprintln(out, rule(60))
	fmt.Fprintln(out, "Upload successful!")
	fmt.Fprintln(out, rule(60))
	fmt.Fprintf(out, "%-13s %s\n", "File ID:", result.File.ID)
	fmt.Fprintf(out, "%-13s %s\n", "Filename:", result.File.OriginalName)
	fmt.Fprintf(out, "%-13s %s\n", "Size:", formatBytes(result.File.Size))
	if result.File.URL != "" {
		fmt.Fprintf(out, "%-13s %s\n", "URL:", result.File.URL)
	}
	fmt.Fprintf(out, "%-13s %s\n", "Transaction:", result.Blockchain.Hash)
	if result.Confirmed != nil {
		fmt.Fprintf(out, "%-13s %d\n", "Block:", result.Confirmed.BlockNumber)
	}
	fmt.Fprintln(out, rule(60))
	fmt.Fprintf(out, "\nVerification link: %s\n", a.VerificationLink(result.File.ID, result.Blockchain.Hash))
}
