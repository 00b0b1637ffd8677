package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"beatframe/internal/config"
	"beatframe/internal/preflight"
	"beatframe/internal/project"
	"beatframe/internal/render"
	"beatframe/internal/services"
	"beatframe/internal/services/drapto"
	"beatframe/internal/textutil"
)

type exportFlags struct {
	output       string
	format       string
	width        int
	height       int
	crf          int
	preset       string
	audioBitrate string
	overwrite    bool
	archive      bool
	jsonOut      bool
}

type exportOutput struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	render.Result
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var det detectionFlags
	var show slideshowFlags
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export AUDIO IMAGES...",
		Short: "Render the beat-synced slideshow to a video file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			session, err := buildSession(cmd, ctx, args, &det, &show)
			if err != nil {
				return err
			}

			req, err := exportRequest(cmd, cfg, session, flags)
			if err != nil {
				return err
			}
			if check := preflight.CheckCreatableDirectory("Output directory", filepath.Dir(req.OutputPath)); !check.Passed {
				return services.Wrap(services.ErrConfiguration, "export", "check output directory", check.Detail, nil)
			}

			opts := []render.Option{render.WithFFmpeg(cfg.FFmpegBinary()), render.WithLogger(logger)}
			if flags.archive || (cfg.Export.ArchiveAV1 && !cmd.Flags().Changed("archive-av1")) {
				opts = append(opts, render.WithArchiver(drapto.NewLibrary()))
				req.ArchiveDir = filepath.Dir(req.OutputPath)
			}

			var bar *progressbar.ProgressBar
			errOut := cmd.ErrOrStderr()
			if !flags.jsonOut && isTerminalWriter(errOut) {
				bar = newExportBar(errOut)
				req.Progress = func(p render.Progress) {
					if p.Stage == "archive" {
						bar.Describe("Archiving (AV1)")
					}
					_ = bar.Set(int(p.Percent))
				}
			}

			result, err := render.NewExporter(opts...).Export(cmd.Context(), req)
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(errOut)
			}
			if err != nil {
				return err
			}

			if flags.jsonOut {
				return writeJSON(cmd, exportOutput{SessionID: session.ID, Title: session.Title, Result: result})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %s\n", result.OutputPath)
			fmt.Fprintf(out, "  %s, %s frames in %d spans, %s of video, took %s\n",
				humanize.Bytes(uint64(result.Bytes)),
				humanize.Comma(int64(result.Frames)),
				result.Spans,
				formatSeconds(result.Duration),
				formatElapsed(result.Elapsed))
			if result.ArchivePath != "" {
				fmt.Fprintf(out, "  AV1 archive: %s\n", result.ArchivePath)
			}
			return nil
		},
	}

	det.register(cmd)
	show.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "Output video path (default: <output_dir>/<title>.<format>)")
	f.StringVar(&flags.format, "format", "", "Container: mp4 or webm (default: from --output extension or config)")
	f.IntVar(&flags.width, "width", 0, "Output width in pixels (even)")
	f.IntVar(&flags.height, "height", 0, "Output height in pixels (even)")
	f.IntVar(&flags.crf, "crf", 0, "Encoder quality from 0 to 63 (lower is better)")
	f.StringVar(&flags.preset, "preset", "", "x264 preset for mp4 exports")
	f.StringVar(&flags.audioBitrate, "audio-bitrate", "", "Audio bitrate, e.g. 192k")
	f.BoolVar(&flags.overwrite, "overwrite", false, "Replace an existing output file")
	f.BoolVar(&flags.archive, "archive-av1", false, "Also write an AV1 archive copy with drapto")
	f.BoolVar(&flags.jsonOut, "json", false, "Print the export result as JSON")
	return cmd
}

func exportRequest(cmd *cobra.Command, cfg *config.Config, session *project.Session, flags exportFlags) (render.Request, error) {
	format := strings.ToLower(strings.TrimSpace(flags.format))
	output := strings.TrimSpace(flags.output)
	switch {
	case format != "":
	case output != "":
		format = render.FormatForPath(output)
	default:
		format = cfg.Export.Format
	}

	if output == "" {
		output = filepath.Join(cfg.Paths.OutputDir, textutil.OutputFileName(session.Title, "slideshow", format))
	}
	expanded, err := config.ExpandPath(output)
	if err != nil {
		return render.Request{}, fmt.Errorf("resolve output path: %w", err)
	}

	req := render.Request{
		Plan:         session.Plan,
		Images:       session.Images,
		AudioPath:    session.AudioPath,
		OutputPath:   expanded,
		Width:        cfg.Export.Width,
		Height:       cfg.Export.Height,
		Format:       format,
		CRF:          cfg.Export.CRF,
		Preset:       cfg.Export.Preset,
		AudioBitrate: cfg.Export.AudioBitrate,
		Overwrite:    flags.overwrite,
	}
	changed := cmd.Flags().Changed
	if changed("width") {
		req.Width = flags.width
	}
	if changed("height") {
		req.Height = flags.height
	}
	if changed("crf") {
		req.CRF = flags.crf
	}
	if flags.preset != "" {
		req.Preset = flags.preset
	}
	if flags.audioBitrate != "" {
		req.AudioBitrate = flags.audioBitrate
	}
	return req, nil
}

func newExportBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Exporting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}
