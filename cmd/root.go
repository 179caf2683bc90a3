package cmd

import (
	"github.com/grupomess/erp/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erp",
		Short: "Folio photo capture for the MESS ERP",
		Long: `ERP captures photos of paper folios, reads the folio name from a
photo with a vision-capable LLM and files the photos under Downloads/{folio}.

The serve command runs the application shell over HTTP; the other commands
run single steps of the workflow from the terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to erp.yaml (default ./erp.yaml or ~/.erp/erp.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newOCRCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newLedgerCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
