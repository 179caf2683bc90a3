package cmd

import (
	"fmt"
	"image"
	"os"

	"github.com/grupomess/erp/internal/camera"
	"github.com/grupomess/erp/internal/ocr"
	"github.com/spf13/cobra"
)

func newOCRCmd() *cobra.Command {
	var provider string
	var model string

	cmd := &cobra.Command{
		Use:   "ocr IMAGE...",
		Short: "Read the folio name from one or more photos",
		Long: `Runs text recognition on each photo with the configured provider and
prints the folio name it found, one line per image.`,
		Example: `  # Read a folio with the default provider (ollama)
  erp ocr ./folio.jpg

  # Use Gemini
  GEMINI_API_KEY=... erp ocr --provider gemini ./a.jpg ./b.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if provider != "" {
				cfg.OCR.Provider = provider
			}
			if model != "" {
				cfg.OCR.Model = model
			}

			service := ocr.NewService(cfg.OCR)
			for _, path := range args {
				img, err := readImage(path)
				if err != nil {
					return err
				}
				text, err := service.RecognizeText(cmd.Context(), img)
				if err != nil {
					return fmt.Errorf("failed to scan %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "OCR provider (ollama, openai, gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Model to use (defaults per provider)")

	return cmd
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	res := camera.Decode(f)
	if res.Status != camera.StatusSuccess {
		return nil, fmt.Errorf("%s: %w", path, res.Err)
	}
	return res.Image, nil
}
