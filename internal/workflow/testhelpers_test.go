package workflow_test

import (
	"context"
	"sync"

	"brandguardian/internal/auditstate"
	"brandguardian/internal/extraction"
	"brandguardian/internal/notifications"
)

type stubTranscriber struct {
	result extraction.Result
	err    error
	calls  int
}

func (s *stubTranscriber) FetchAndTranscribe(context.Context, string) (extraction.Result, error) {
	s.calls++
	return s.result, s.err
}

type stubRetriever struct {
	rules   []string
	err     error
	calls   int
	queries []string
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, _ int) ([]string, error) {
	s.calls++
	s.queries = append(s.queries, query)
	return s.rules, s.err
}

type stubCompleter struct {
	content string
	err     error
	calls   int
	system  string
	user    string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.system = system
	s.user = user
	return s.content, s.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

type memoryRecorder struct {
	saved []auditstate.State
}

func (m *memoryRecorder) Save(_ context.Context, state auditstate.State) error {
	m.saved = append(m.saved, state)
	return nil
}
