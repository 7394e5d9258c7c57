package pipeline

// Event is a progress or log message emitted by a run. The set of event
// types is closed; consumers switch on the concrete type.
type Event interface {
	isEvent()
}

// LogEvent carries a human-readable progress line.
type LogEvent struct {
	Text string
}

// ProgressEvent carries overall run completion in percent, 0-100.
type ProgressEvent struct {
	Percent int
}

// PreviewRequestEvent asks the consumer to show the extracted source text
// before downstream generation proceeds.
type PreviewRequestEvent struct {
	Text   string
	Prompt string
}

func (LogEvent) isEvent()            {}
func (ProgressEvent) isEvent()       {}
func (PreviewRequestEvent) isEvent() {}

// Sink receives events from a run. Implementations must not block for
// long; the run publishes synchronously.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }

// NopSink discards all events.
var NopSink Sink = SinkFunc(func(Event) {})
