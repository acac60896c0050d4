package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cuetrack/internal/cue"
	"cuetrack/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var fuzzy bool
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <file|url> <query>",
		Short: "Find cues whose text matches a query",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args[1:], " ")
			cues, err := loadCues(cmd, ctx, args[0])
			if err != nil {
				return err
			}
			matches := search.Find(cues, query, search.Options{Limit: limit, Fuzzy: fuzzy})
			if asJSON {
				if matches == nil {
					matches = []search.Match{}
				}
				return writeJSON(cmd, matches)
			}

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintf(out, "No cues match %q\n", query)
				return nil
			}
			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, []string{
					strconv.Itoa(m.Index),
					cue.FormatTimestamp(m.Cue.Start),
					m.Cue.Text,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Also match cues containing the query's letters in order")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of matches (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
