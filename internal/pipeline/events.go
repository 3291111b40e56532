package pipeline

import "nosferatu/internal/models"

// EventSink receives the coordinator's outbound events. Any listener — a
// GUI binding, a CLI, a test harness — implements this; the core has no
// toolkit dependency. Events for one job arrive in production order.
// Callbacks run on the emitting goroutine and must not block for long;
// listeners must not retain the ImageData past the callback, the next load
// invalidates it.
type EventSink interface {
	ImageUpdated(img *models.ImageData)
	Progress(jobID string, percent int)
	Status(jobID string, status string)
	JobFinished(result models.JobResult)
}

// SinkFuncs adapts plain functions to EventSink. Nil members are skipped.
type SinkFuncs struct {
	OnImageUpdated func(img *models.ImageData)
	OnProgress     func(jobID string, percent int)
	OnStatus       func(jobID string, status string)
	OnJobFinished  func(result models.JobResult)
}

func (s SinkFuncs) ImageUpdated(img *models.ImageData) {
	if s.OnImageUpdated != nil {
		s.OnImageUpdated(img)
	}
}

func (s SinkFuncs) Progress(jobID string, percent int) {
	if s.OnProgress != nil {
		s.OnProgress(jobID, percent)
	}
}

func (s SinkFuncs) Status(jobID, status string) {
	if s.OnStatus != nil {
		s.OnStatus(jobID, status)
	}
}

func (s SinkFuncs) JobFinished(result models.JobResult) {
	if s.OnJobFinished != nil {
		s.OnJobFinished(result)
	}
}

// EventKind discriminates ChannelSink events.
type EventKind int

const (
	EventImageUpdated EventKind = iota
	EventProgress
	EventStatus
	EventJobFinished
)

// Event is the channel-facing union of the sink callbacks.
type Event struct {
	Kind    EventKind
	JobID   string
	Image   *models.ImageData
	Percent int
	Text    string
	Result  *models.JobResult
}

// ChannelSink bridges the observer interface to a channel consumer. Sends
// block when the buffer is full so ordering is preserved; size the buffer
// for the consumer's latency.
type ChannelSink struct {
	ch chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (s *ChannelSink) C() <-chan Event {
	return s.ch
}

// Close releases the channel. Call only after the final JobFinished event
// has been consumed.
func (s *ChannelSink) Close() {
	close(s.ch)
}

func (s *ChannelSink) ImageUpdated(img *models.ImageData) {
	s.ch <- Event{Kind: EventImageUpdated, Image: img}
}

func (s *ChannelSink) Progress(jobID string, percent int) {
	s.ch <- Event{Kind: EventProgress, JobID: jobID, Percent: percent}
}

func (s *ChannelSink) Status(jobID, status string) {
	s.ch <- Event{Kind: EventStatus, JobID: jobID, Text: status}
}

func (s *ChannelSink) JobFinished(result models.JobResult) {
	s.ch <- Event{Kind: EventJobFinished, JobID: result.JobID, Result: &result}
}
