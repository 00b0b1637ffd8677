package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"beatframe/internal/beats"
	"beatframe/internal/project"
)

type analyzeOutput struct {
	Audio    string         `json:"audio"`
	Method   string         `json:"method"`
	Beats    int            `json:"beats"`
	Tempo    float64        `json:"tempo_bpm"`
	Duration float64        `json:"duration"`
	CacheHit bool           `json:"cache_hit"`
	Timeline beats.Timeline `json:"timeline"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var det detectionFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze AUDIO",
		Short: "Detect beats in an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			in, err := buildInputs(cmd, cfg, args[0], nil, &det, nil)
			if err != nil {
				return err
			}

			var analysis project.Analysis
			err = ctx.withBuilder(in.NoCache, func(b *project.Builder) error {
				var runErr error
				analysis, runErr = b.Timeline(cmd.Context(), in)
				return runErr
			})
			if err != nil {
				return err
			}
			timeline := analysis.Timeline.Shift(in.Offset)

			if jsonOut {
				return writeJSON(cmd, analyzeOutput{
					Audio:    in.AudioPath,
					Method:   timeline.Method,
					Beats:    timeline.Len(),
					Tempo:    timeline.Tempo(),
					Duration: timeline.Duration,
					CacheHit: analysis.CacheHit,
					Timeline: timeline,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio:     %s\n", in.AudioPath)
			fmt.Fprintf(out, "Method:    %s\n", timeline.Method)
			fmt.Fprintf(out, "Beats:     %s\n", humanize.Comma(int64(timeline.Len())))
			fmt.Fprintf(out, "Tempo:     %s\n", formatTempo(timeline.Tempo()))
			fmt.Fprintf(out, "Duration:  %s\n", formatSeconds(timeline.Duration))
			fmt.Fprintf(out, "Cache hit: %s\n", yesNo(analysis.CacheHit))
			if timeline.Len() == 0 {
				fmt.Fprintln(out, "No beats detected; try a lower --sensitivity or --threshold")
				return nil
			}
			fmt.Fprintln(out, beatTable(timeline))
			return nil
		},
	}

	det.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the timeline as JSON")
	return cmd
}

func beatTable(timeline beats.Timeline) string {
	rows := make([][]string, 0, len(timeline.Beats))
	for i, beat := range timeline.Beats {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(beat.Time),
			strconv.FormatFloat(beat.Strength, 'f', 2, 64),
		})
	}
	return renderTable([]string{"#", "Time", "Strength"}, rows, []columnAlignment{alignRight, alignRight, alignRight})
}
