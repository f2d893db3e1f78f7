package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creditoya/dashboard-client/pkg/api"
)

func loansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Browse loan applications",
	}
	cmd.AddCommand(loansSearchCmd())
	return cmd
}

func loansSearchCmd() *cobra.Command {
	var (
		status   string
		page     int
		pageSize int
	)

	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search loan applications by document number or name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			result, err := client.SearchLoans(cmd.Context(), api.LoanSearchQuery{
				Status:   status,
				Page:     page,
				PageSize: pageSize,
				Search:   query,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOAN\tCLIENT\tAMOUNT\tSTATUS\tCREATED")
			for _, loan := range result.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					loan.LoanApplication.ID,
					loan.User.FullName(),
					loan.LoanApplication.Amount,
					loan.LoanApplication.Status,
					loan.LoanApplication.CreatedAt.Format("2006-01-02"),
				)
			}
			w.Flush()

			fmt.Printf("\nPage %d of %d (%d loans)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	search.Flags().StringVar(&status, "status", api.StatusApproved, "loan status filter")
	search.Flags().IntVar(&page, "page", 1, "result page")
	search.Flags().IntVar(&pageSize, "page-size", 10, "results per page")
	return search
}
