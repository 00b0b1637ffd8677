package render

import (
	"fmt"
	"strconv"
)

func buildArgs(req Request, scriptPath, outputPath string) []string {
	w, h, fps := req.Width, req.Height, req.Plan.FPS
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black,setsar=1,fps=%d,format=yuv420p",
		w, h, w, h, fps)

	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-loglevel", "error",
		"-progress", "pipe:1", "-nostats",
		"-f", "concat", "-safe", "0", "-i", scriptPath,
		"-i", req.AudioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-vf", filter,
		"-r", strconv.Itoa(fps),
	}
	switch req.Format {
	case FormatWebM:
		args = append(args,
			"-c:v", "libvpx-vp9", "-crf", strconv.Itoa(req.CRF), "-b:v", "0",
			"-row-mt", "1",
			"-c:a", "libopus", "-b:a", req.AudioBitrate,
			"-f", "webm",
		)
	default:
		args = append(args,
			"-c:v", "libx264", "-preset", req.Preset, "-crf", strconv.Itoa(req.CRF),
			"-tune", "stillimage",
			"-c:a", "aac", "-b:a", req.AudioBitrate,
			"-movflags", "+faststart",
			"-f", "mp4",
		)
	}
	args = append(args, "-t", strconv.FormatFloat(req.Plan.Duration, 'f', 3, 64), outputPath)
	return args
}
