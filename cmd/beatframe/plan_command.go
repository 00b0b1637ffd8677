package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"beatframe/internal/images"
	"beatframe/internal/project"
	"beatframe/internal/slideshow"
)

type planOutput struct {
	SessionID string                `json:"session_id"`
	Title     string                `json:"title"`
	Audio     string                `json:"audio"`
	Beats     int                   `json:"beats"`
	Tempo     float64               `json:"tempo_bpm"`
	CacheHit  bool                  `json:"cache_hit"`
	Images    []images.Image        `json:"images"`
	Plan      slideshow.Plan        `json:"plan"`
	Frames    []slideshow.FrameSpan `json:"frames,omitempty"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var det detectionFlags
	var show slideshowFlags
	var jsonOut bool
	var frames bool

	cmd := &cobra.Command{
		Use:   "plan AUDIO IMAGES...",
		Short: "Map images onto detected beats and print the slide plan",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := buildSession(cmd, ctx, args, &det, &show)
			if err != nil {
				return err
			}

			if jsonOut {
				payload := planOutput{
					SessionID: session.ID,
					Title:     session.Title,
					Audio:     session.AudioPath,
					Beats:     session.Timeline.Len(),
					Tempo:     session.Timeline.Tempo(),
					CacheHit:  session.CacheHit,
					Images:    session.Images,
					Plan:      session.Plan,
				}
				if frames {
					payload.Frames = session.Plan.Frames()
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			printSessionSummary(cmd, session)
			if frames {
				fmt.Fprintln(out, frameTable(session))
				return nil
			}
			fmt.Fprintln(out, slideTable(session))
			return nil
		},
	}

	det.register(cmd)
	show.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the plan as JSON")
	cmd.Flags().BoolVar(&frames, "frames", false, "List frame spans instead of slides")
	return cmd
}

// buildSession resolves inputs from args and flags and runs the project builder.
func buildSession(cmd *cobra.Command, ctx *commandContext, args []string, det *detectionFlags, show *slideshowFlags) (*project.Session, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	in, err := buildInputs(cmd, cfg, args[0], args[1:], det, show)
	if err != nil {
		return nil, err
	}
	var session *project.Session
	err = ctx.withBuilder(in.NoCache, func(b *project.Builder) error {
		var buildErr error
		session, buildErr = b.Build(cmd.Context(), in)
		return buildErr
	})
	return session, err
}

func printSessionSummary(cmd *cobra.Command, session *project.Session) {
	out := cmd.OutOrStdout()
	plan := session.Plan
	fmt.Fprintf(out, "Title:     %s\n", session.Title)
	fmt.Fprintf(out, "Audio:     %s\n", session.AudioPath)
	fmt.Fprintf(out, "Images:    %d\n", len(session.Images))
	fmt.Fprintf(out, "Beats:     %s (%s, %s)\n", humanize.Comma(int64(session.Timeline.Len())),
		session.Timeline.Method, formatTempo(session.Timeline.Tempo()))
	fmt.Fprintf(out, "Slides:    %d (source: %s)\n", len(plan.Slides), plan.Source)
	fmt.Fprintf(out, "Duration:  %s at %d fps (%s frames)\n", formatSeconds(plan.Duration), plan.FPS,
		humanize.Comma(int64(plan.TotalFrames())))
	fmt.Fprintf(out, "Cache hit: %s\n", yesNo(session.CacheHit))
}

func slideTable(session *project.Session) string {
	rows := make([][]string, 0, len(session.Plan.Slides))
	for _, slide := range session.Plan.Slides {
		rows = append(rows, []string{
			strconv.Itoa(slide.Index + 1),
			formatSeconds(slide.Start),
			formatSeconds(slide.End),
			formatSeconds(slide.Length()),
			imageLabel(session.Images, slide.ImageIndex),
		})
	}
	footer := []string{"", "", "", formatSeconds(session.Plan.Duration), fmt.Sprintf("%d images", len(session.Images))}
	return renderTableWithFooter(
		[]string{"#", "Start", "End", "Length", "Image"},
		rows,
		footer,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func frameTable(session *project.Session) string {
	spans := session.Plan.Frames()
	rows := make([][]string, 0, len(spans))
	for i, span := range spans {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(span.StartFrame),
			strconv.Itoa(span.EndFrame),
			strconv.Itoa(span.Frames()),
			imageLabel(session.Images, span.ImageIndex),
		})
	}
	return renderTable(
		[]string{"#", "First frame", "End frame", "Frames", "Image"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func imageLabel(list []images.Image, index int) string {
	if index < 0 || index >= len(list) {
		return strconv.Itoa(index)
	}
	return fmt.Sprintf("%d %s", index+1, list[index].Name)
}
