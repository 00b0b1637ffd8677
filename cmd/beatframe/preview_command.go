package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"beatframe/internal/preview"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var det detectionFlags
	var show slideshowFlags
	var bind string

	cmd := &cobra.Command{
		Use:   "preview AUDIO IMAGES...",
		Short: "Serve the slideshow to a browser for live preview",
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

			addr := cfg.Preview.Bind
			if strings.TrimSpace(bind) != "" {
				addr = bind
			}
			server, err := preview.New(session, addr, logger)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if err := server.Start(runCtx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSessionSummary(cmd, session)
			fmt.Fprintf(out, "Preview:   %s\n", server.URL())
			fmt.Fprintln(out, "Press Ctrl+C to stop")
			<-runCtx.Done()
			server.Wait()
			return nil
		},
	}

	det.register(cmd)
	show.register(cmd)
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: preview.bind from config)")
	return cmd
}
