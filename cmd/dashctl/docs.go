package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creditoya/dashboard-client/pkg/api"
	"github.com/creditoya/dashboard-client/pkg/documents"
)

func docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage loan proof documents",
	}
	cmd.AddCommand(docsPendingCmd(), docsGenerateAllCmd(), docsDownloadCmd(), docsDownloadAllCmd())
	return cmd
}

// buildOrchestrator wires the document orchestrator from config.
func buildOrchestrator(client *api.Client, downloadDir string, concurrency int) (*documents.Orchestrator, error) {
	return documents.New(documents.Config{
		API:                 client,
		Saver:               &documents.DirSaver{Dir: downloadDir},
		DownloadConcurrency: concurrency,
	})
}

func docsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List loans that still lack a generated document",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			pending, err := client.PendingDocumentLoans(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%d loans without documents\n", pending.Count)
			for _, loan := range pending.Loans {
				fmt.Printf("  %s  %s  %s\n", loan.ID, loan.User.FullName(), loan.Amount)
			}
			return nil
		},
	}
}

func docsGenerateAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-all",
		Short: "Generate documents for every pending loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			orch, err := buildOrchestrator(client, cfg.Documents.DownloadDir, cfg.Batch.DownloadConcurrency)
			if err != nil {
				return err
			}

			summary := orch.GenerateAllPending(cmd.Context())
			if summary == nil {
				state := orch.Snapshot()
				return fmt.Errorf("batch generation failed: %s", state.Err)
			}

			fmt.Printf("%s: %d generated, %d failed\n", summary.Message, summary.Generated, summary.Failed)
			return nil
		},
	}
}

func docsDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <document-id>",
		Short: "Download one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			orch, err := buildOrchestrator(client, cfg.Documents.DownloadDir, cfg.Batch.DownloadConcurrency)
			if err != nil {
				return err
			}

			if ok := orch.DownloadDocument(cmd.Context(), args[0]); !ok {
				state := orch.Snapshot()
				return fmt.Errorf("download failed: %s", state.Err)
			}

			fmt.Printf("Document %s saved to %s\n", args[0], cfg.Documents.DownloadDir)
			return nil
		},
	}
}

func docsDownloadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download-all",
		Short: "Download every document in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			orch, err := buildOrchestrator(client, cfg.Documents.DownloadDir, cfg.Batch.DownloadConcurrency)
			if err != nil {
				return err
			}

			docs := orch.FetchAllDocuments(cmd.Context(), api.DocumentFilter{})
			if len(docs) == 0 {
				fmt.Println("No documents to download")
				return nil
			}

			results := orch.DownloadAll(cmd.Context())
			succeeded := 0
			for _, result := range results {
				if result.Success {
					succeeded++
				} else {
					fmt.Printf("  failed: %s (%s)\n", result.SubjectID, result.Error)
				}
			}
			fmt.Printf("%d of %d documents saved to %s\n", succeeded, len(results), cfg.Documents.DownloadDir)
			return nil
		},
	}
}
