package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"hbwrap/internal/handbrake"
	"hbwrap/internal/logging"
)

// monitorInteractive decides whether to render a live progress bar. JSON log
// output implies machine consumption, so the bar stays off there too.
func monitorInteractive(logFormat string, noProgress bool) bool {
	if noProgress {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(logFormat), "json") {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}

// encodeMonitor consumes a job's event stream until the terminal outcome.
// Encoded fragments go to out, progress goes to either a terminal progress
// bar or sampled log lines, and encoder log lines are re-emitted through the
// structured logger.
type encodeMonitor struct {
	logger      *slog.Logger
	out         io.Writer
	interactive bool
	sampler     *logging.ProgressSampler
}

func newEncodeMonitor(logger *slog.Logger, out io.Writer, interactive bool) *encodeMonitor {
	return &encodeMonitor{
		logger:      logger,
		out:         out,
		interactive: interactive,
		sampler:     logging.NewProgressSampler(0),
	}
}

func (m *encodeMonitor) run(handle *handbrake.JobHandle) *handbrake.Outcome {
	var pw progress.Writer
	var tracker *progress.Tracker
	if m.interactive {
		pw = progress.NewWriter()
		pw.SetOutputWriter(os.Stderr)
		pw.SetTrackerLength(30)
		pw.SetUpdateFrequency(200 * time.Millisecond)
		pw.SetTrackerPosition(progress.PositionRight)
		tracker = &progress.Tracker{Message: "Encoding", Total: 100}
		pw.AppendTracker(tracker)
		go pw.Render()
		defer pw.Stop()
	}

	var outcome *handbrake.Outcome
	for ev := range handle.Events() {
		switch ev.Type {
		case handbrake.EventTypeFragment:
			if _, err := m.out.Write(ev.Fragment); err != nil {
				m.logger.Error("write encoded output failed", logging.Error(err))
				_ = handle.Kill()
			}
		case handbrake.EventTypeProgress:
			m.observeProgress(tracker, ev.Progress)
		case handbrake.EventTypeLog:
			m.observeLog(ev.Log)
		case handbrake.EventTypeConfig:
			m.logger.Debug("job configuration parsed",
				logging.String("source", ev.Config.Source.Path),
				logging.String("destination", ev.Config.Destination.File),
				logging.String("video_encoder", ev.Config.Video.Encoder),
				logging.Int("audio_tracks", len(ev.Config.Audio.Tracks)),
			)
		case handbrake.EventTypeDone:
			outcome = ev.Done
			if tracker != nil {
				if outcome.OK {
					tracker.MarkAsDone()
				} else {
					tracker.MarkAsErrored()
				}
			}
		}
	}
	return outcome
}

func (m *encodeMonitor) observeProgress(tracker *progress.Tracker, p *handbrake.Progress) {
	if tracker != nil {
		tracker.SetValue(int64(p.Percent))
		tracker.UpdateMessage(progressMessage(p))
		return
	}
	if !m.sampler.ShouldLog(p.Percent) {
		return
	}
	attrs := []logging.Attr{
		logging.Int("task", p.Task),
		logging.Int("task_count", p.TaskCount),
		logging.Float64("percent", p.Percent),
		logging.Float64("fps", p.FPS),
	}
	if p.AvgFPS != nil {
		attrs = append(attrs, logging.Float64("avg_fps", *p.AvgFPS))
	}
	if p.ETA != nil {
		attrs = append(attrs, logging.Duration("eta", *p.ETA))
	}
	m.logger.Info("encoding progress", logging.Args(attrs...)...)
}

func progressMessage(p *handbrake.Progress) string {
	msg := fmt.Sprintf("Encoding task %d/%d", p.Task, p.TaskCount)
	if p.FPS > 0 {
		msg += fmt.Sprintf(" (%.1f fps)", p.FPS)
	}
	if p.ETA != nil {
		msg += fmt.Sprintf(", ETA %s", p.ETA.Round(time.Second))
	}
	return msg
}

func (m *encodeMonitor) observeLog(line *handbrake.LogMessage) {
	switch line.Level {
	case handbrake.LevelError:
		m.logger.Error(line.Message, logging.String("origin", "handbrake"))
	case handbrake.LevelWarning:
		m.logger.Warn(line.Message, logging.String("origin", "handbrake"))
	default:
		m.logger.Debug(line.Message, logging.String("origin", "handbrake"))
	}
}
