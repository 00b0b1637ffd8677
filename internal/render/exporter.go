package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"beatframe/internal/fileutil"
	"beatframe/internal/logging"
	"beatframe/internal/services"
	"beatframe/internal/services/drapto"
)

var commandContext = exec.CommandContext

const stderrTailLines = 12

// Option configures an Exporter.
type Option func(*Exporter)

// WithFFmpeg overrides the ffmpeg binary.
func WithFFmpeg(binary string) Option {
	return func(e *Exporter) {
		if strings.TrimSpace(binary) != "" {
			e.ffmpeg = binary
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithArchiver enables the AV1 archive step.
func WithArchiver(client drapto.Client) Option {
	return func(e *Exporter) {
		e.archiver = client
	}
}

// LockPath returns the file an export of outputPath holds an flock on.
func LockPath(outputPath string) string { return outputPath + ".lock" }

// Exporter renders plans to video files.
type Exporter struct {
	ffmpeg   string
	logger   *slog.Logger
	archiver drapto.Client
}

// NewExporter constructs an Exporter with defaults.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{ffmpeg: "ffmpeg", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "render")
	return e
}

// Export renders req and returns the finished file details.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	ctx = services.WithStage(ctx, "export")
	correlationID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		correlationID = uuid.NewString()
		ctx = services.WithRequestID(ctx, correlationID)
	}
	logger := logging.WithContext(ctx, e.logger)

	if err := req.normalize(); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "export", "validate request", "", err)
	}

	outDir := filepath.Dir(req.OutputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	// The lock file stays behind after Unlock; removing it would let a
	// waiting export lock an unlinked inode while a third creates a new one.
	lock := flock.New(LockPath(req.OutputPath))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire export lock: %w", err)
	}
	if !locked {
		return Result{}, services.Wrap(services.ErrValidation, "export", "acquire lock",
			"another export is writing "+req.OutputPath, nil)
	}
	defer func() { _ = lock.Unlock() }()

	// Checked under the lock so an export that just finished cannot be
	// replaced without --overwrite.
	if !req.Overwrite {
		if _, err := os.Stat(req.OutputPath); err == nil {
			return Result{}, services.Wrap(services.ErrValidation, "export", "check output",
				req.OutputPath+" (pass --overwrite to replace it)", ErrOutputExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("stat output: %w", err)
		}
	}

	workDir, err := os.MkdirTemp(outDir, ".beatframe-")
	if err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	scriptPath := filepath.Join(workDir, "slides.ffconcat")
	spans, err := writeScriptFile(scriptPath, req)
	if err != nil {
		return Result{}, err
	}

	partial := filepath.Join(workDir, "partial."+req.Format)
	frames := req.Plan.TotalFrames()
	logger.Info("export started",
		logging.String("output", req.OutputPath),
		logging.String("format", req.Format),
		logging.Int("frames", frames),
		logging.Int("spans", spans),
		logging.Int("images", len(req.Images)))

	if err := e.runFFmpeg(ctx, logger, req, scriptPath, partial); err != nil {
		return Result{}, err
	}
	if err := fileutil.MoveFile(partial, req.OutputPath); err != nil {
		return Result{}, fmt.Errorf("finalize output: %w", err)
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat output: %w", err)
	}
	result := Result{
		CorrelationID: correlationID,
		OutputPath:    req.OutputPath,
		Bytes:         info.Size(),
		Frames:        frames,
		Spans:         spans,
		Duration:      req.Plan.Duration,
	}

	if e.archiver != nil {
		archive, err := e.archive(ctx, logger, req)
		if err != nil {
			logging.WarnWithContext(logger, "av1 archive failed", "archive_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-run export with archive disabled or check drapto requirements"),
				logging.String(logging.FieldImpact, "the exported video is fine but no AV1 copy was written"))
		} else {
			result.ArchivePath = archive
		}
	}

	result.Elapsed = time.Since(started)
	logger.Info("export finished",
		logging.String("output", result.OutputPath),
		logging.Int64("bytes", result.Bytes),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func writeScriptFile(path string, req Request) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create concat script: %w", err)
	}
	spans, err := WriteConcatScript(f, req.Plan, req.Images)
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("write concat script: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close concat script: %w", err)
	}
	return spans, nil
}

func (e *Exporter) runFFmpeg(ctx context.Context, logger *slog.Logger, req Request, scriptPath, partial string) error {
	args := buildArgs(req, scriptPath, partial)
	cmd := commandContext(ctx, e.ffmpeg, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &tailBuffer{max: stderrTailLines}
	cmd.Stderr = stderr

	logger.Debug("running ffmpeg", logging.String("binary", e.ffmpeg), logging.String("args", strings.Join(args, " ")))
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "export", "start ffmpeg", e.ffmpeg, err)
	}

	sampler := logging.NewProgressSampler(10)
	total := time.Duration(req.Plan.Duration * float64(time.Second))
	readErr := readProgress(stdout, total, func(p Progress) {
		if sampler.ShouldLog(p.Percent, p.Stage) {
			logger.Info("export progress",
				logging.Float64(logging.FieldProgressPercent, p.Percent),
				logging.Int("frame", p.Frame),
				logging.String("speed", p.Speed))
		}
		if req.Progress != nil {
			req.Progress(p)
		}
	})
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if waitErr != nil {
		return services.Wrap(services.ErrExternalTool, "export", "ffmpeg encode", stderr.String(), waitErr)
	}
	if readErr != nil {
		return fmt.Errorf("read ffmpeg progress: %w", readErr)
	}
	return nil
}

func (e *Exporter) archive(ctx context.Context, logger *slog.Logger, req Request) (string, error) {
	dir := strings.TrimSpace(req.ArchiveDir)
	if dir == "" {
		dir = filepath.Join(filepath.Dir(req.OutputPath), "archive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	logger.Info("av1 archive started", logging.String("archive_dir", dir))
	sampler := logging.NewProgressSampler(25)
	return e.archiver.Encode(ctx, req.OutputPath, dir, drapto.EncodeOptions{
		Progress: func(u drapto.ProgressUpdate) {
			if req.Progress != nil && u.Type != drapto.EventTypeWarning && u.Type != drapto.EventTypeError {
				req.Progress(Progress{Stage: "archive", Percent: u.Percent, Done: u.Type == drapto.EventTypeComplete})
			}
			if sampler.ShouldLog(u.Percent, u.Stage) {
				logger.Debug("av1 archive progress",
					logging.String("archive_stage", u.Stage),
					logging.Float64(logging.FieldProgressPercent, u.Percent))
			}
		},
	})
}

// tailBuffer keeps the last max lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	max   int
	lines []string
	buf   bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			t.buf.Reset()
			t.buf.WriteString(line)
			break
		}
		t.push(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (t *tailBuffer) push(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.lines
	if rest := strings.TrimSpace(t.buf.String()); rest != "" {
		lines = append(append([]string(nil), lines...), rest)
	}
	if len(lines) > t.max {
		lines = lines[len(lines)-t.max:]
	}
	return strings.Join(lines, "; ")
}
