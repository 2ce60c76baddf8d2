package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/modules/crm/infrastructure/spreadsheet"
)

var errBatchHasErrors = errors.New("batch has validation errors")

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "CRM bulk upload tools",
	}
	cmd.AddCommand(newBulkCheckCmd())
	return cmd
}

func newBulkCheckCmd() *cobra.Command {
	var (
		maxRows   int
		corrected string
	)
	cmd := &cobra.Command{
		Use:   "check <file.xlsx>",
		Short: "Validate a bulk upload workbook without committing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			batch, err := spreadsheet.Parse(f, spreadsheet.Options{MaxRows: maxRows})
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), batch)

			if corrected != "" {
				data, err := spreadsheet.WriteCorrected(batch)
				if err != nil {
					return err
				}
				if err := os.WriteFile(corrected, data, 0o644); err != nil {
					return errors.Wrap(err, "write corrected workbook")
				}
			}
			if !batch.CanConfirm() {
				return errBatchHasErrors
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxRows, "max-rows", 5000, "reject workbooks with more data rows (0 = unlimited)")
	cmd.Flags().StringVarP(&corrected, "corrected", "o", "", "write the annotated workbook to this path")
	return cmd
}

func printBatch(w io.Writer, b bulkupload.PreviewBatch) {
	fmt.Fprintf(w, "groups: %d  clients: %d  contacts: %d  errors: %d  warnings: %d\n",
		len(b.Groups), len(b.Clients), len(b.Contacts), len(b.Errors), len(b.Warnings))
	for _, e := range b.Errors {
		fmt.Fprintf(w, "row %d  error    %s: %s\n", e.Row, e.Field, e.Message)
	}
	for _, warn := range b.Warnings {
		fmt.Fprintf(w, "row %d  warning  %s\n", warn.Row, warn.Message)
	}
}
