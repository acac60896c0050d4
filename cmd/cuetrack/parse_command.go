package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cuetrack/internal/cue"
	"cuetrack/internal/logging"
	"cuetrack/internal/source"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file|url>",
		Short: "Load a caption document and print its cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cues, err := loadCues(cmd, ctx, args[0])
			if err != nil {
				return err
			}
			return writeCues(cmd, cues, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json, yaml or vtt")
	return cmd
}

// loadCues reads a caption reference once through the source chain.
func loadCues(cmd *cobra.Command, ctx *commandContext, ref string) ([]cue.Cue, error) {
	logger, err := ctx.logger()
	if err != nil {
		return nil, err
	}
	store := ctx.openCache(cmd.ErrOrStderr(), logger)
	defer closeCache(store)

	src, err := ctx.sourceFor(ref, store, logger)
	if err != nil {
		return nil, err
	}
	cues, err := src.Cues(cmd.Context())
	if err != nil {
		if errors.Is(err, source.ErrNoCaptionsAvailable) {
			return nil, fmt.Errorf("%s has no captions: %w", ref, err)
		}
		return nil, err
	}
	logger.Debug("caption document loaded",
		logging.String(logging.FieldSource, source.Describe(src)),
		logging.Int("cues", len(cues)),
	)
	return cues, nil
}
