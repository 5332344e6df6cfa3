package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/logger"
	"github.com/andresmejia3/formcheck/internal/pose"
	"github.com/andresmejia3/formcheck/internal/render"
	"github.com/andresmejia3/formcheck/internal/session"
	"github.com/andresmejia3/formcheck/internal/store"
	"github.com/andresmejia3/formcheck/internal/types"
	"github.com/andresmejia3/formcheck/internal/utils"
	"github.com/andresmejia3/formcheck/internal/worker"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const megabyte = 1024 * 1024

var analyzeOpts Options

var analyzeCmd = &cobra.Command{
	Use:         "analyze",
	Short:       "Evaluate exercise form across a video with parallel pose engines",
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), analyzeOpts)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.InputPath, "input", "i", "", "Path to video")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Exercise, "exercise", "x", "", "Exercise to evaluate (Squat, Shoulder Press, Bicep Curl, Plank)")
	analyzeCmd.Flags().IntVarP(&analyzeOpts.NthFrame, "nth-frame", "n", 1, "Evaluate every nth frame")
	analyzeCmd.Flags().IntVarP(&analyzeOpts.NumEngines, "engines", "e", 1, "Number of parallel pose engine workers")
	analyzeCmd.Flags().StringVar(&analyzeOpts.WorkerTimeout, "worker-timeout", "30s", "Maximum time to wait for a pose engine response")
	analyzeCmd.Flags().BoolVarP(&analyzeOpts.DebugOverlays, "debug-overlays", "d", false, "Save annotated PNG frames with the skeleton and feedback")
	analyzeCmd.Flags().StringVar(&analyzeOpts.OverlayDir, "overlay-dir", defaultOverlayDir, "Directory for debug overlays")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.NoDB, "no-db", false, "Do not store the session in PostgreSQL")

	analyzeCmd.MarkFlagRequired("input")
	analyzeCmd.MarkFlagRequired("exercise")
	rootCmd.AddCommand(analyzeCmd)
}

const defaultOverlayDir = "./storage/overlays"

// Buffer pool to reduce GC pressure during decoding
var frameBufferPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0, megabyte) },
}

// frameOutcome is what an engine reports for one frame.
type frameOutcome struct {
	Index     int
	Keypoints pose.KeypointSet
	Detected  bool
	// Failed marks a frame the estimator could not process.
	Failed bool
	// Data is the encoded frame, kept only when overlays are requested.
	Data []byte
}

// estimatorFactory starts pose engine number id.
type estimatorFactory func(ctx context.Context, id int) (worker.Estimator, error)

// sessionWriter is the part of the store an analysis writes to.
type sessionWriter interface {
	CreateSession(ctx context.Context, id uuid.UUID, exercise, source string, startedAt time.Time) error
	InsertResults(ctx context.Context, sessionID uuid.UUID, results []store.FrameResult) error
	FinishSession(ctx context.Context, id uuid.UUID, t store.Totals) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// runAnalyze orchestrates the pipeline: FFmpeg decoding, the engine pool,
// ordered evaluation and persistence.
func runAnalyze(ctx context.Context, opts Options) error {
	ex, timeout, err := validateAnalyzeFlags(&opts)
	if err != nil {
		return err
	}

	videoID, err := utils.GenerateVideoID(opts.InputPath)
	if err != nil {
		return fmt.Errorf("failed to generate video ID: %w", err)
	}

	a := newAnalysis(ex, opts.NthFrame)
	if opts.DebugOverlays {
		a.overlayDir = filepath.Join(opts.OverlayDir, videoID[:12])
		if err := os.MkdirAll(a.overlayDir, 0755); err != nil {
			return fmt.Errorf("failed to create overlay directory: %w", err)
		}
	}

	a.source = opts.InputPath

	var db sessionWriter
	if DB != nil {
		db = DB
	}

	fmt.Fprintf(os.Stderr, "📼 Processing Video ID: %s\n", videoID[:12])
	fmt.Fprintf(os.Stderr, "🏋️  Exercise: %s (session %s)\n", ex, a.tracker.ID)
	if fps := utils.GetVideoFPS(opts.InputPath); fps > 0 {
		fmt.Fprintf(os.Stderr, "🎞️  Source: %.2f fps, sampling every %d frame(s)\n", fps, opts.NthFrame)
	}
	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d Pose Engines...\n", opts.NumEngines)

	total := utils.GetTotalFrames(opts.InputPath)
	if total > 0 {
		total = (total + opts.NthFrame - 1) / opts.NthFrame
	} else {
		// Fallback to a spinner if ffprobe fails
		total = -1
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("🔍 Evaluating Form"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	factory := func(ctx context.Context, id int) (worker.Estimator, error) {
		return worker.NewPythonWorker(ctx, id, worker.Config{Script: Cfg.PoseWorkerScript, ReadTimeout: timeout})
	}

	tasks := make(chan types.FrameTask, opts.NumEngines)
	results := make(chan frameOutcome, opts.NumEngines*2)

	g, gctx := errgroup.WithContext(ctx)
	var decoded int

	g.Go(func() error {
		defer close(tasks)
		n, err := decodeFrames(gctx, opts, tasks)
		decoded = n
		return err
	})
	g.Go(func() error {
		defer close(results)
		return runEngines(gctx, opts.NumEngines, tasks, results, factory, opts.DebugOverlays)
	})
	g.Go(func() error {
		return a.consume(gctx, results, func() { bar.Add(1) })
	})

	if err := g.Wait(); err != nil {
		return err
	}
	bar.Finish()

	if db != nil {
		// Use Background so an interrupt after the run does not lose the results
		if err := a.persist(context.Background(), db); err != nil {
			logger.Error(logger.Fields{"session": a.tracker.ID.String(), "results": len(a.results)}, "session results were not stored")
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n🏁 Analysis Complete. Evaluated %d frames.\n", decoded)
	printSummary(os.Stderr, a.tracker)
	if a.overlayDir != "" {
		fmt.Fprintf(os.Stderr, "🖼️  Overlays written to %s\n", a.overlayDir)
	}
	return nil
}

// decodeFrames streams MJPEG frames from FFmpeg into tasks and returns how many were sent.
func decodeFrames(ctx context.Context, opts Options, tasks chan<- types.FrameTask) (int, error) {
	ffmpeg := utils.NewFFmpegCmd(ctx, opts.InputPath, opts.NthFrame)

	var stderrBuf bytes.Buffer
	ffmpeg.Stderr = &stderrBuf

	ffmpegOut, err := ffmpeg.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("failed to create FFmpeg stdout pipe: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		return 0, fmt.Errorf("failed to start FFmpeg: %w", err)
	}

	scanner := bufio.NewScanner(ffmpegOut)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)

	sent := 0
	for scanner.Scan() {
		buf := frameBufferPool.Get().([]byte)
		if cap(buf) < len(scanner.Bytes()) {
			buf = make([]byte, len(scanner.Bytes()))
		}
		buf = buf[:len(scanner.Bytes())]
		copy(buf, scanner.Bytes())

		select {
		case tasks <- types.FrameTask{Index: sent, Data: buf}:
			sent++
		case <-ctx.Done():
			ffmpeg.Wait()
			return sent, ctx.Err()
		}
	}

	// Check for scanner errors (e.g. token too long, unexpected EOF)
	if err := scanner.Err(); err != nil {
		ffmpeg.Wait()
		return sent, fmt.Errorf("frame scanner failed: %w", err)
	}

	if err := ffmpeg.Wait(); err != nil {
		if stderrBuf.Len() > 0 {
			fmt.Fprintf(os.Stderr, "\nFFmpeg Logs:\n%s\n", stderrBuf.String())
		}
		return sent, fmt.Errorf("FFmpeg execution failed: %w", err)
	}
	return sent, nil
}

// runEngines runs n engines until tasks is drained or one of them fails.
func runEngines(ctx context.Context, n int, tasks <-chan types.FrameTask, results chan<- frameOutcome, factory estimatorFactory, keepFrames bool) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		id := i
		g.Go(func() error {
			return runEngine(gctx, id, tasks, results, factory, keepFrames)
		})
	}
	return g.Wait()
}

// runEngine manages the lifecycle of a single pose engine.
func runEngine(ctx context.Context, id int, tasks <-chan types.FrameTask, results chan<- frameOutcome, factory estimatorFactory, keepFrames bool) error {
	est, err := factory(ctx, id)
	if err != nil {
		return fmt.Errorf("worker %d startup failed: %w", id, err)
	}
	defer est.Close()

	for {
		var task types.FrameTask
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok = <-tasks:
			if !ok {
				return nil
			}
		}

		kps, detected, err := est.Estimate(task.Data)
		out := frameOutcome{Index: task.Index, Keypoints: kps, Detected: detected}

		var workerErr *worker.Error
		switch {
		case errors.As(err, &workerErr):
			appLog().WithFields(logrus.Fields{"worker": id, "frame": task.Index, "error": err.Error()}).Warn("pose detection failed")
			out.Failed = true
		case err != nil:
			// DRAIN: Wait for process to exit and capture final stderr logs
			if pw, ok := est.(*worker.PythonWorker); ok {
				pw.Close()
				utils.ShowError("Pose engine crashed", err, pw.Cmd)
			}
			return fmt.Errorf("worker %d: %w", id, err)
		}

		if keepFrames {
			out.Data = task.Data
		} else {
			// Return buffer to pool immediately after sending
			frameBufferPool.Put(task.Data[:0])
		}

		select {
		case results <- out:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// --- Ordered Evaluation ---

// reorderBuffer releases outcomes in index order (engine 2 might finish before engine 1).
type reorderBuffer struct {
	next    int
	pending map[int]frameOutcome
}

func newReorderBuffer() *reorderBuffer {
	return &reorderBuffer{pending: make(map[int]frameOutcome)}
}

// Push stores o and returns every outcome that is now contiguous.
func (b *reorderBuffer) Push(o frameOutcome) []frameOutcome {
	b.pending[o.Index] = o

	var ready []frameOutcome
	for {
		next, ok := b.pending[b.next]
		if !ok {
			break
		}
		delete(b.pending, b.next)
		ready = append(ready, next)
		b.next++
	}
	return ready
}

// Len is the number of outcomes waiting for an earlier frame.
func (b *reorderBuffer) Len() int {
	return len(b.pending)
}

// analysis evaluates outcomes in frame order and collects per-frame results.
type analysis struct {
	exercise   form.Exercise
	registry   *form.Registry
	tracker    *session.Tracker
	nth        int
	overlayDir string
	// source is the input path recorded with the session.
	source  string
	results []store.FrameResult
}

func newAnalysis(ex form.Exercise, nth int) *analysis {
	if nth < 1 {
		nth = 1
	}
	return &analysis{
		exercise: ex,
		registry: form.DefaultRegistry(),
		tracker:  session.NewTracker(ex),
		nth:      nth,
	}
}

// consume drains results, evaluating each frame once all earlier frames are done.
func (a *analysis) consume(ctx context.Context, results <-chan frameOutcome, progress func()) error {
	buffer := newReorderBuffer()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				if buffer.Len() > 0 {
					return fmt.Errorf("%d frames never became contiguous", buffer.Len())
				}
				return nil
			}
			for _, o := range buffer.Push(res) {
				if _, err := a.observe(o); err != nil {
					return err
				}
				if progress != nil {
					progress()
				}
			}
		}
	}
}

// observe evaluates one in-order outcome.
func (a *analysis) observe(o frameOutcome) (session.Observation, error) {
	var kps *pose.KeypointSet
	r := form.NoPose()
	switch {
	case o.Failed:
		r = form.DetectionFailed()
	case o.Detected:
		kps = &o.Keypoints
		r = a.registry.Evaluate(a.exercise, kps)
	}

	obs := a.tracker.ObserveFrame(o.Index*a.nth, r)
	a.results = append(a.results, store.FrameResult{
		FrameIndex: obs.Frame,
		Feedback:   r.Feedback,
		Correct:    r.Correct,
		Cue:        string(obs.Cue),
	})
	if obs.Cue != session.CueNone {
		logger.Debug(logger.Fields{"session": a.tracker.ID.String(), "frame": obs.Frame, "cue": string(obs.Cue)}, r.Feedback)
	}

	if a.overlayDir != "" && len(o.Data) > 0 {
		png, err := render.Annotate(o.Data, render.Plan(a.exercise, kps, r))
		if err != nil {
			return obs, fmt.Errorf("failed to annotate frame %d: %w", obs.Frame, err)
		}
		path := filepath.Join(a.overlayDir, fmt.Sprintf("frame_%06d.png", obs.Frame))
		if err := os.WriteFile(path, png, 0644); err != nil {
			return obs, fmt.Errorf("failed to write overlay: %w", err)
		}
	}
	return obs, nil
}

// persist registers the session and writes its frame results and final
// counters. It runs only after the pipeline succeeded, and removes the
// session again if any later step fails.
func (a *analysis) persist(ctx context.Context, db sessionWriter) error {
	id := a.tracker.ID
	if err := db.CreateSession(ctx, id, string(a.exercise), a.source, a.tracker.Started); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}

	err := db.InsertResults(ctx, id, a.results)
	if err == nil {
		sum := a.tracker.Summary()
		err = db.FinishSession(ctx, id, store.Totals{
			TotalFrames:   sum.Frames,
			CorrectFrames: sum.Correct,
			Transitions:   sum.Transitions,
			LongestStreak: sum.LongestStreak,
		})
	}
	if err != nil {
		if derr := db.DeleteSession(ctx, id); derr != nil {
			logger.Warn(logger.Fields{"session": id.String(), "error": derr.Error()}, "failed to remove incomplete session")
		}
		return err
	}
	return nil
}

// validateAnalyzeFlags ensures all CLI arguments are valid before starting heavy processes.
func validateAnalyzeFlags(opts *Options) (form.Exercise, time.Duration, error) {
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, fmt.Errorf("input file does not exist: %w", err)
		}
		return "", 0, fmt.Errorf("unable to access input file: %w", err)
	}
	if info.IsDir() {
		return "", 0, errors.New("input path is a directory, expected a video file")
	}

	ex, ok := form.ParseExercise(opts.Exercise)
	if !ok {
		return "", 0, fmt.Errorf("unknown exercise %q (supported: %v)", opts.Exercise, form.Exercises())
	}
	if opts.NthFrame < 1 {
		return "", 0, fmt.Errorf("invalid nth-frame interval: must be >= 1, got %d", opts.NthFrame)
	}
	if opts.NumEngines < 1 {
		opts.NumEngines = 1
	}
	timeout, err := time.ParseDuration(opts.WorkerTimeout)
	if err != nil {
		return "", 0, fmt.Errorf("invalid worker-timeout format (use '30s', '500ms'): %w", err)
	}
	return ex, timeout, nil
}
