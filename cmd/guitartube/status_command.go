package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/davidsparrow/guitartube-sub001/internal/api"
	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status view for a recognition job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			view, err := api.NewStatusService(store).JobView(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:        %s\n", view.ExternalID)
			fmt.Fprintf(out, "Status:     %s\n", view.Status)
			if view.FavoriteID != "" {
				fmt.Fprintf(out, "Favorite:   %s\n", view.FavoriteID)
			}
			if view.VideoID != "" {
				fmt.Fprintf(out, "Video:      %s\n", view.VideoID)
			}
			if view.Vocabulary != "" {
				fmt.Fprintf(out, "Vocabulary: %s\n", view.Vocabulary)
			}
			if view.CreatedAt != "" {
				fmt.Fprintf(out, "Created:    %s\n", view.CreatedAt)
			}
			if view.CompletedAt != "" {
				fmt.Fprintf(out, "Completed:  %s\n", view.CompletedAt)
			}
			fmt.Fprintf(out, "Captions:   %d\n", view.CaptionCount)

			if len(view.Chords) == 0 {
				return nil
			}

			headers := []string{"Chord", "Captions", "Positions", "Light", "Dark"}
			rows := make([][]string, 0, len(view.Chords))
			for _, chord := range view.Chords {
				rows = append(rows, []string{
					chord.ChordName,
					strconv.Itoa(chord.CaptionCount),
					strconv.Itoa(chord.PositionCount),
					yesNo(chord.HasLightImage),
					yesNo(chord.HasDarkImage),
				})
			}

			fmt.Fprintln(out)
			if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
					alignLeft, alignRight, alignRight, alignLeft, alignLeft,
				}))
			} else {
				fmt.Fprintln(out, renderPlain(headers, rows))
			}
			return nil
		},
	}
}
