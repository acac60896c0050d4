package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cuetrack/internal/cue"
	"cuetrack/internal/webvtt"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatVTT   = "vtt"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// yamlCue mirrors cue.Cue with an explicit null for open-ended cues.
type yamlCue struct {
	Index int      `yaml:"index"`
	Start float64  `yaml:"start"`
	End   *float64 `yaml:"end"`
	Text  string   `yaml:"text"`
}

func toYAMLCues(cues []cue.Cue) []yamlCue {
	out := make([]yamlCue, 0, len(cues))
	for i, c := range cues {
		item := yamlCue{Index: i, Start: c.Start, Text: c.Text}
		if !c.OpenEnded() {
			end := c.End
			item.End = &end
		}
		out = append(out, item)
	}
	return out
}

func writeCues(cmd *cobra.Command, cues []cue.Cue, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", formatTable:
		if len(cues) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cues")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Start", "End", "Text"},
			cueRows(cues),
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
		))
		return nil
	case formatJSON:
		if cues == nil {
			cues = []cue.Cue{}
		}
		return writeJSON(cmd, cues)
	case formatYAML:
		return writeYAML(cmd, toYAMLCues(cues))
	case formatVTT:
		return webvtt.Encode(cmd.OutOrStdout(), cues)
	default:
		return fmt.Errorf("unsupported format %q (use table, json, yaml or vtt)", format)
	}
}

func cueRows(cues []cue.Cue) [][]string {
	rows := make([][]string, 0, len(cues))
	for i, c := range cues {
		rows = append(rows, []string{
			strconv.Itoa(i),
			cue.FormatTimestamp(c.Start),
			formatEnd(c.End),
			c.Text,
		})
	}
	return rows
}

func formatEnd(end float64) string {
	if math.IsInf(end, 1) {
		return "-"
	}
	return cue.FormatTimestamp(end)
}
