package handbrake

import "time"

// EventType discriminates the payload carried by an Event.
type EventType string

const (
	EventTypeConfig   EventType = "config"
	EventTypeProgress EventType = "progress"
	EventTypeLog      EventType = "log"
	EventTypeFragment EventType = "fragment"
	EventTypeDone     EventType = "done"
)

// Event is a single item on a job's event stream. Exactly one payload field
// matching Type is populated. Events from a single pipe arrive in source
// order; a Done event is always last and is followed by channel close.
type Event struct {
	Type     EventType
	Config   *ResolvedConfig
	Progress *Progress
	Log      *LogMessage
	Fragment []byte
	Done     *Outcome
}

// Progress reports encode progress parsed from a HandBrakeCLI status line.
// AvgFPS and ETA are nil when the line omitted them; they are never zeroed.
type Progress struct {
	Task      int
	TaskCount int
	Percent   float64
	FPS       float64
	AvgFPS    *float64
	ETA       *time.Duration
}

// LogLevel classifies a log line by severity.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// LogMessage is a classified log line from the transcoder.
type LogMessage struct {
	Level   LogLevel
	Message string
}

// ResolvedConfig is the job configuration HandBrakeCLI echoes back as a
// multi-line JSON block shortly after job start.
type ResolvedConfig struct {
	Source      SourceConfig      `json:"Source"`
	Destination DestinationConfig `json:"Destination"`
	Video       VideoConfig       `json:"Video"`
	Audio       AudioConfig       `json:"Audio"`
}

// SourceConfig describes the resolved input.
type SourceConfig struct {
	Path  string `json:"Path"`
	Title int    `json:"Title"`
}

// DestinationConfig describes the resolved output.
type DestinationConfig struct {
	File string `json:"File"`
	Mux  string `json:"Mux"`
}

// VideoConfig describes the resolved video encode settings.
type VideoConfig struct {
	Encoder string  `json:"Encoder"`
	Preset  string  `json:"Preset"`
	Quality float64 `json:"Quality"`
}

// AudioConfig lists the resolved audio track settings.
type AudioConfig struct {
	Tracks []AudioTrackConfig `json:"AudioList"`
}

// AudioTrackConfig describes one resolved audio track.
type AudioTrackConfig struct {
	Track   int    `json:"Track"`
	Encoder string `json:"Encoder"`
}

// Outcome is the terminal result of a job. Exactly one of Summary or
// Failure is set, matching OK.
type Outcome struct {
	OK      bool
	Summary *Summary
	Failure *Failure
}

// Summary describes a successful encode.
type Summary struct {
	Elapsed time.Duration
	AvgFPS  float64
}

// Failure describes a failed encode. ExitCode is nil when the code could
// not be determined, e.g. when the process was terminated by a signal.
type Failure struct {
	ExitCode *int
	Message  string
}

func logEvent(level LogLevel, message string) Event {
	return Event{Type: EventTypeLog, Log: &LogMessage{Level: level, Message: message}}
}

func fragmentEvent(raw []byte) Event {
	return Event{Type: EventTypeFragment, Fragment: append([]byte(nil), raw...)}
}
