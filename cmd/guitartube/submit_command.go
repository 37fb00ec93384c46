package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/ingest"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/media"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
	"github.com/davidsparrow/guitartube-sub001/internal/recognition"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var favoriteID string
	var videoID string
	var vocabulary string

	cmd := &cobra.Command{
		Use:   "submit <media-url>",
		Short: "Extract audio and submit a chord-recognition job",
		Args:  cobra.ExactArgs(1),
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
			defer store.Close()

			extractor, err := media.NewExtractor(cfg, logger)
			if err != nil {
				return err
			}
			client, err := recognition.New(cfg.Provider)
			if err != nil {
				return err
			}

			submitter := ingest.NewSubmitter(store, extractor, client,
				notifications.NewService(cfg), cfg.Provider.Vocabulary, logger)

			jobID, err := submitter.Submit(cmd.Context(), ingest.SubmitRequest{
				FavoriteID: favoriteID,
				VideoID:    videoID,
				MediaURL:   args[0],
				Vocabulary: vocabulary,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s\n", jobID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&favoriteID, "favorite", "f", "", "Favorite reference to attach captions to")
	cmd.Flags().StringVar(&videoID, "video", "", "Video reference for the source media")
	cmd.Flags().StringVar(&vocabulary, "vocabulary", "", "Recognition vocabulary (defaults to config)")
	return cmd
}
