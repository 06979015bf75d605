package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cefrkit/placement/internal/export"
	"github.com/cefrkit/placement/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every stored result to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			rows, err := st.SummaryRepo().List(ctx)
			if err != nil {
				return err
			}
			if err := export.WriteFile(out, rows); err != nil {
				return err
			}
			fmt.Printf("Wrote %d results to %s\n", len(rows), out)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "results.xlsx", "Output workbook path")
}
