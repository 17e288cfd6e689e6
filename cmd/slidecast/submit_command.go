package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
	"slidecast/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		title         string
		tone          string
		audience      string
		style         string
		instructions  string
		minWords      int
		maxWords      int
		dynamicLength bool
		speakerNotes  bool
		polish        bool
	)

	cmd := &cobra.Command{
		Use:   "submit <deck.pptx>",
		Short: "Queue a slide deck for narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := queue.Options{
				Tone:               tone,
				Audience:           audience,
				Style:              style,
				CustomInstructions: instructions,
				MinWords:           minWords,
				MaxWords:           maxWords,
			}
			// A toggle flag only overrides the configured default when the
			// user actually passed it.
			if cmd.Flags().Changed("dynamic-length") {
				opts.DynamicLength = &dynamicLength
			}
			if cmd.Flags().Changed("speaker-notes") {
				opts.IncludeSpeakerNotes = &speakerNotes
			}
			if cmd.Flags().Changed("polish") {
				opts.EnablePolishing = &polish
			}

			return ctx.withService(cmd.Context(), func(cctx context.Context, svc *api.QueueService) error {
				view, err := svc.Submit(cctx, api.SubmitRequest{
					SourcePath: args[0],
					DeckTitle:  title,
					Options:    opts,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as run %s\n", filepath.Base(view.SourcePath), view.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Deck title override")
	cmd.Flags().StringVar(&tone, "tone", "", "Narration tone (for example professional, casual)")
	cmd.Flags().StringVar(&audience, "audience", "", "Intended audience")
	cmd.Flags().StringVar(&style, "style", "", "Narration style")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Extra instructions passed to the narration model")
	cmd.Flags().IntVar(&minWords, "min-words", 0, "Minimum words per slide narration")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "Maximum words per slide narration")
	cmd.Flags().BoolVar(&dynamicLength, "dynamic-length", false, "Scale narration length with slide content")
	cmd.Flags().BoolVar(&speakerNotes, "speaker-notes", false, "Feed speaker notes to the narration model")
	cmd.Flags().BoolVar(&polish, "polish", false, "Run the batch polishing pass")
	return cmd
}
