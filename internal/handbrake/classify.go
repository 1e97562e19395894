package handbrake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// classifier converts raw pipe bytes into events. Implementations keep
// partial-line state between Feed calls and must tolerate arbitrary chunk
// boundaries: a boundary never splits a match incorrectly or drops bytes.
type classifier interface {
	Feed(chunk []byte) []Event
	Flush() []Event
}

const jsonBlockPrefix = "json job:"

// Progress lines look like
//
//	Encoding: task 1 of 1, 42.50 %, 23.10 fps, avg 21.00 fps, ETA 00h01m23s
//
// The fps, avg fps and ETA fields are optional. HandBrakeCLI builds that
// wrap the throughput fields in parentheses are accepted as well.
var progressRE = regexp.MustCompile(
	`Encoding: task (\d+) of (\d+), ([0-9]+(?:\.[0-9]+)?) %` +
		`(?:\s*[,(]\s*([0-9]+(?:\.[0-9]+)?) fps)?` +
		`(?:, avg ([0-9]+(?:\.[0-9]+)?) fps)?` +
		`(?:, ETA ([0-9]+)h([0-9]+)m([0-9]+)s\)?)?`)

func parseProgressLine(line string) (*Progress, bool) {
	m := progressRE.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	task, _ := strconv.Atoi(m[1])
	count, _ := strconv.Atoi(m[2])
	percent, _ := strconv.ParseFloat(m[3], 64)
	p := &Progress{Task: task, TaskCount: count, Percent: percent}
	if m[4] != "" {
		p.FPS, _ = strconv.ParseFloat(m[4], 64)
	}
	if m[5] != "" {
		avg, _ := strconv.ParseFloat(m[5], 64)
		p.AvgFPS = &avg
	}
	if m[6] != "" {
		hours, _ := strconv.Atoi(m[6])
		minutes, _ := strconv.Atoi(m[7])
		seconds, _ := strconv.Atoi(m[8])
		eta := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
		p.ETA = &eta
	}
	return p, true
}

// stderrClassifier handles the line-oriented diagnostic stream: newline or
// carriage-return terminated log lines, progress updates, and an optional
// multi-line JSON block describing the resolved job configuration.
type stderrClassifier struct {
	partial    []byte
	block      []byte
	blockDepth int
}

func newStderrClassifier() *stderrClassifier { return &stderrClassifier{} }

func (c *stderrClassifier) Feed(chunk []byte) []Event {
	data := append(c.partial, chunk...)
	c.partial = nil

	var events []Event
	for {
		idx := bytes.IndexAny(data, "\r\n")
		if idx < 0 {
			break
		}
		line := string(data[:idx])
		if data[idx] == '\r' && idx+1 < len(data) && data[idx+1] == '\n' {
			idx++
		}
		data = data[idx+1:]
		events = append(events, c.classifyLine(line)...)
	}
	c.partial = append([]byte(nil), data...)
	return events
}

// Flush classifies any buffered partial line and reports an unterminated
// configuration block. Called once the pipe reaches end of stream.
func (c *stderrClassifier) Flush() []Event {
	var events []Event
	if len(c.partial) > 0 {
		line := string(c.partial)
		c.partial = nil
		events = append(events, c.classifyLine(line)...)
	}
	if c.blockDepth > 0 {
		events = append(events, logEvent(LevelError, "unterminated job configuration block"))
		c.block = nil
		c.blockDepth = 0
	}
	return events
}

func (c *stderrClassifier) classifyLine(line string) []Event {
	if c.blockDepth > 0 {
		c.block = append(c.block, line...)
		c.block = append(c.block, '\n')
		c.blockDepth += strings.Count(line, "{") - strings.Count(line, "}")
		if c.blockDepth > 0 {
			return nil
		}
		return []Event{c.closeBlock()}
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	if rest, ok := strings.CutPrefix(trimmed, jsonBlockPrefix); ok {
		rest = strings.TrimSpace(rest)
		depth := strings.Count(rest, "{") - strings.Count(rest, "}")
		if strings.Contains(rest, "{") {
			c.block = append(c.block[:0], rest...)
			c.block = append(c.block, '\n')
			c.blockDepth = depth
			if depth <= 0 {
				return []Event{c.closeBlock()}
			}
			return nil
		}
		// Marker without an opening brace; treat as an ordinary log line.
		return []Event{logEvent(LevelInfo, trimmed)}
	}

	if p, ok := parseProgressLine(trimmed); ok {
		return []Event{{Type: EventTypeProgress, Progress: p}}
	}
	if rest, ok := cutErrorPrefix(trimmed); ok {
		return []Event{logEvent(LevelError, rest)}
	}
	if strings.Contains(strings.ToLower(trimmed), "warning:") {
		return []Event{logEvent(LevelWarning, trimmed)}
	}
	return []Event{logEvent(LevelInfo, trimmed)}
}

func (c *stderrClassifier) closeBlock() Event {
	raw := c.block
	c.block = nil
	c.blockDepth = 0

	var cfg ResolvedConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return logEvent(LevelError, fmt.Sprintf("malformed job configuration block: %v", err))
	}
	return Event{Type: EventTypeConfig, Config: &cfg}
}

func cutErrorPrefix(line string) (string, bool) {
	for _, prefix := range []string{"ERROR:", "Error:"} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// stdoutClassifier handles the mixed-framing output stream: carriage-return
// delimited progress updates interleaved with raw payload bytes. Progress
// text is consumed; everything else passes through verbatim as Fragment
// events, with no text-encoding assumptions.
type stdoutClassifier struct {
	pending []byte
}

var progressMarker = []byte("Encoding: task")

// maxProgressLine bounds how long a candidate progress line may grow before
// it is given up on and passed through as payload.
const maxProgressLine = 512

func newStdoutClassifier() *stdoutClassifier { return &stdoutClassifier{} }

func (c *stdoutClassifier) Feed(chunk []byte) []Event {
	data := append(c.pending, chunk...)
	c.pending = nil

	var events []Event
	for len(data) > 0 {
		start := bytes.Index(data, progressMarker)
		if start < 0 {
			// Withhold a suffix that could be the start of a progress
			// marker split across chunks; everything else is payload.
			hold := markerOverlap(data)
			if emit := data[:len(data)-hold]; len(emit) > 0 {
				events = append(events, fragmentEvent(emit))
			}
			c.pending = append([]byte(nil), data[len(data)-hold:]...)
			return events
		}
		if start > 0 {
			events = append(events, fragmentEvent(data[:start]))
			data = data[start:]
		}
		end := bytes.IndexAny(data, "\r\n")
		if end < 0 {
			if len(data) > maxProgressLine {
				events = append(events, fragmentEvent(data))
				return events
			}
			c.pending = append([]byte(nil), data...)
			return events
		}
		if p, ok := parseProgressLine(string(data[:end])); ok {
			events = append(events, Event{Type: EventTypeProgress, Progress: p})
		} else {
			events = append(events, fragmentEvent(data[:end+1]))
		}
		data = data[end+1:]
	}
	return events
}

// Flush releases withheld bytes. A complete but unterminated progress line
// still yields a Progress event; anything else is payload.
func (c *stdoutClassifier) Flush() []Event {
	if len(c.pending) == 0 {
		return nil
	}
	data := c.pending
	c.pending = nil
	if bytes.HasPrefix(data, progressMarker) {
		if p, ok := parseProgressLine(string(data)); ok {
			return []Event{{Type: EventTypeProgress, Progress: p}}
		}
	}
	return []Event{fragmentEvent(data)}
}

// markerOverlap returns the length of the longest proper prefix of the
// progress marker that is also a suffix of data.
func markerOverlap(data []byte) int {
	max := len(progressMarker) - 1
	if len(data) < max {
		max = len(data)
	}
	for k := max; k > 0; k-- {
		if bytes.HasSuffix(data, progressMarker[:k]) {
			return k
		}
	}
	return 0
}
