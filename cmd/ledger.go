package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/grupomess/erp/internal/ledger"
	"github.com/spf13/cobra"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the saved-photo ledger",
		Long: `Every photo write, successful or not, is journaled to the ledger.
These commands list it or export it to parquet for analysis.`,
	}

	cmd.AddCommand(newLedgerListCmd())
	cmd.AddCommand(newLedgerExportCmd())

	return cmd
}

func newLedgerListCmd() *cobra.Command {
	var folio string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled photo writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			records, err := ledger.New(cfg.LedgerPath()).Load()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SAVED AT\tFOLIO\tPATH\tBYTES\tERROR")
			for _, r := range records {
				if folio != "" && r.Folio != folio {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					r.SavedAt.Local().Format(time.DateTime), r.Folio, r.RelativePath, r.Bytes, r.Error)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&folio, "folio", "", "Only show writes for this folio")

	return cmd
}

func newLedgerExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export the ledger to a parquet file",
		Example: `  erp ledger export --out ./saved_photos.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.HasSuffix(outPath, ".parquet") {
				return fmt.Errorf("--out must be a .parquet file")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			records, err := ledger.New(cfg.LedgerPath()).Load()
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()

			if err := ledger.ExportParquet(f, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output parquet path (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
