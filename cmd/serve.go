package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/grupomess/erp/internal/auth"
	"github.com/grupomess/erp/internal/camera"
	"github.com/grupomess/erp/internal/capture"
	"github.com/grupomess/erp/internal/eventloop"
	"github.com/grupomess/erp/internal/handlers"
	"github.com/grupomess/erp/internal/ledger"
	"github.com/grupomess/erp/internal/notify"
	"github.com/grupomess/erp/internal/ocr"
	"github.com/grupomess/erp/internal/prefs"
	"github.com/grupomess/erp/internal/shell"
	"github.com/grupomess/erp/internal/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the application shell over HTTP",
		Long: `Starts the ERP application shell on the specified port.

Clients log in, open the folio screen, scan the folio name from a photo,
capture more photos and save them under Downloads/{folio}. Photos come from
an upload, an image URL or the camera inbox directory.`,
		Example: `  # Start server on default port 8888
  erp serve

  # Start server on custom port with OpenAI for text recognition
  OPENAI_API_KEY=... erp serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			store, err := prefs.Open(cfg.PrefsPath())
			if err != nil {
				return fmt.Errorf("failed to open preferences: %w", err)
			}

			feed := notify.NewFeed(0)
			loop := eventloop.New(0)
			journal := ledger.New(cfg.LedgerPath())
			writer := storage.NewWriter(storage.NewDownloads(cfg.PublicDir)).WithRecorder(journal)
			recognizer := ocr.NewService(cfg.OCR)
			adapter := ocr.NewAdapter(recognizer, loop)
			device := camera.NewInbox(cfg.Camera.Inbox)
			perms := camera.Grant(cfg.Camera.PermissionGranted)

			app := shell.New(shell.Options{
				Gate:     auth.NewGate(),
				Prefs:    store,
				CacheDir: cfg.CacheDir,
				Notifier: feed,
				NewFolio: func() *capture.Controller {
					return capture.NewController(capture.Options{
						Permissions: perms,
						Device:      device,
						OCR:         adapter,
						Writer:      writer,
						Notifier:    feed,
						Loop:        loop,
					})
				},
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handlers.New(app, loop, feed).Routes(),
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return loop.Run(ctx)
			})
			g.Go(func() error {
				slog.Info("ERP interface available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"ocr_provider", recognizer.Provider(),
					"camera_inbox", cfg.Camera.Inbox)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			})

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
