package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// Reporter renders pipeline progress. Interactive reporters animate a spinner,
// others print one line per event.
type Reporter struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
	startTime   time.Time
	stages      []stageInfo
}

type stageInfo struct {
	Stage     usecase.ExecutionStage
	StartTime time.Time
	EndTime   time.Time
}

// NewReporter creates a reporter writing to out
func NewReporter(out io.Writer, interactive bool) *Reporter {
	return &Reporter{
		out:         out,
		interactive: interactive,
		startTime:   time.Now(),
	}
}

// OnProgress handles progress events
func (r *Reporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enterStage(event.Stage)

	// The use case has already returned its error; the caller reports it
	if event.Stage == usecase.StageFailed {
		r.stopSpinner()
		return
	}

	if event.Stage == usecase.StageCompleted {
		r.stopSpinner()
		if !r.interactive {
			return
		}
		color.New(color.FgGreen).Fprintf(r.out, "✓ Done in %s %s\n",
			time.Since(r.startTime).Round(time.Millisecond),
			color.New(color.Faint).Sprint(r.timeline()))
		return
	}

	if !r.interactive {
		if event.Message != "" {
			fmt.Fprintln(r.out, event.Message)
		}
		return
	}

	if event.Spinner {
		if r.spinner == nil {
			r.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			r.spinner.Writer = r.out
			if f, ok := r.out.(*os.File); ok {
				r.spinner.WriterFile = f
			}
			r.spinner.HideCursor = false
			_ = r.spinner.Color("cyan", "bold")
		}
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}

	r.stopSpinner()
	if event.Message != "" {
		color.New(color.Faint).Fprintln(r.out, "• "+event.Message)
	}
}

// Info prints an info message
func (r *Reporter) Info(message string) {
	r.print(color.New(color.FgCyan), message, true)
}

// Error prints an error message. The spinner stays stopped afterwards.
func (r *Reporter) Error(message string) {
	r.print(color.New(color.FgRed), message, false)
}

func (r *Reporter) print(c *color.Color, message string, resume bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner != nil && r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	c.Fprintln(r.out, message)
	if wasActive && resume {
		r.spinner.Start()
	}
}

func (r *Reporter) stopSpinner() {
	if r.spinner != nil && r.spinner.Active() {
		r.spinner.Stop()
	}
}

// enterStage closes the running stage when the pipeline moves on or ends
func (r *Reporter) enterStage(stage usecase.ExecutionStage) {
	now := time.Now()
	if n := len(r.stages); n > 0 {
		if r.stages[n-1].Stage == stage {
			return
		}
		r.stages[n-1].EndTime = now
	}
	if stage != usecase.StageCompleted && stage != usecase.StageFailed {
		r.stages = append(r.stages, stageInfo{Stage: stage, StartTime: now})
	}
}

// timeline summarises stage durations, e.g. loading 3ms → deploying 4.1s
func (r *Reporter) timeline() string {
	parts := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		end := s.EndTime
		if end.IsZero() {
			end = time.Now()
		}
		parts = append(parts, fmt.Sprintf("%s %s", s.Stage, end.Sub(s.StartTime).Round(time.Millisecond)))
	}
	return strings.Join(parts, " → ")
}

var _ usecase.ProgressSink = (*Reporter)(nil)
