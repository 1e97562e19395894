package handbrake

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	readBufferSize = 32 * 1024
	eventBuffer    = 64
)

// eventSink is the single ordered channel both pumps and the controller
// feed. Every event passes through the outcome tracker before delivery so
// the terminal Done event can reference the last observed average fps and
// the most recent error message. Sends block when the consumer lags; events
// are never dropped.
type eventSink struct {
	ch      chan Event
	tracker *outcomeTracker
}

func (s *eventSink) emit(ev Event) {
	s.tracker.observe(ev)
	s.ch <- ev
}

func (s *eventSink) emitAll(events []Event) {
	for _, ev := range events {
		s.emit(ev)
	}
}

// pumpPipe drains one pipe until end of stream, classifying its bytes and
// forwarding every resulting event. A read error other than EOF degrades to
// a Log event; it never aborts the job.
func pumpPipe(r io.Reader, c classifier, sink *eventSink, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sink.emitAll(c.Feed(buf[:n]))
		}
		if err != nil {
			sink.emitAll(c.Flush())
			if !errors.Is(err, io.EOF) {
				sink.emit(logEvent(LevelError, fmt.Sprintf("pipe read failed: %v", err)))
			}
			return
		}
	}
}
