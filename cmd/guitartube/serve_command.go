package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/daemon"
	"github.com/davidsparrow/guitartube-sub001/internal/ingest"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
	"github.com/davidsparrow/guitartube-sub001/internal/recognition"
	"github.com/davidsparrow/guitartube-sub001/internal/songdata"
	"github.com/davidsparrow/guitartube-sub001/internal/storage"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recognition ingestion daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}

			client, err := recognition.New(cfg.Provider)
			if err != nil {
				store.Close()
				return err
			}
			publisher, err := storage.NewPublisherFromConfig(cfg, logger)
			if err != nil {
				store.Close()
				return err
			}

			notifier := notifications.NewService(cfg)
			shapes := songdata.NewSource(cfg, logger)
			images := ingest.NewImagePipeline(store, publisher, cfg.Storage.OverwriteObjects, logger)
			ingestor := ingest.NewIngestor(store, client, shapes, images, notifier, logger)

			d, err := daemon.New(cfg, store, ingestor, logger)
			if err != nil {
				store.Close()
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := d.Start(sigCtx); err != nil {
				_ = d.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", d.APIAddress())

			<-sigCtx.Done()
			return d.Close()
		},
	}
}
