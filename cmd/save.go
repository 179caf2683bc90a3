package cmd

import (
	"fmt"
	"time"

	"github.com/grupomess/erp/internal/ledger"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/storage"
	"github.com/spf13/cobra"
)

func newSaveCmd() *cobra.Command {
	var folio string
	var publicDir string

	cmd := &cobra.Command{
		Use:   "save IMAGE...",
		Short: "File photos under Downloads/{folio}",
		Long: `Saves the given photos as numbered JPEGs ({folio}_foto_{n}.jpg) in the
folio's folder of the public Downloads area, the same way the folio screen
does, and records every write in the ledger.`,
		Example: `  erp save --folio F-1029 ./page1.jpg ./page2.png`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if publicDir != "" {
				cfg.PublicDir = publicDir
			}

			photos := make([]models.Photo, 0, len(args))
			for _, path := range args {
				img, err := readImage(path)
				if err != nil {
					return err
				}
				photos = append(photos, models.Photo{Image: img, CapturedAt: time.Now()})
			}

			writer := storage.NewWriter(storage.NewDownloads(cfg.PublicDir)).
				WithRecorder(ledger.New(cfg.LedgerPath()))
			report, err := writer.Save(cmd.Context(), photos, folio)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range report.Photos {
				if p.Error != "" {
					fmt.Fprintf(out, "FAILED  %s: %s\n", p.FileName, p.Error)
					continue
				}
				fmt.Fprintf(out, "saved   %s (%d bytes)\n", p.RelativePath, p.Bytes)
			}
			fmt.Fprintf(out, "Photos were saved in the folder %s\n", report.Folder)
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d photos failed to save", report.Failed, len(report.Photos))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folio, "folio", "", "Folio name (required)")
	cmd.Flags().StringVar(&publicDir, "public-dir", "", "Override the public storage root")
	_ = cmd.MarkFlagRequired("folio")

	return cmd
}
