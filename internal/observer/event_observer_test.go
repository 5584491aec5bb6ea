package observer

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []AnalysisEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string {
	return r.name
}

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	panic("boom")
}

func (panickingObserver) GetObserverName() string {
	return "panicking"
}

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted, Mode: "ela"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted, Mode: "ela"})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted, Mode: "noise"})
	m.OnEvent(ctx, AnalysisEvent{EventType: SourceDecoded})
	m.OnEvent(ctx, AnalysisEvent{EventType: SourceFailed})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, ProcessingTime: 2 * time.Second})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, ProcessingTime: 4 * time.Second})
	m.OnEvent(ctx, AnalysisEvent{EventType: AnalysisFailed, ErrorType: "codec"})

	got := m.GetMetrics()
	if got.TotalAnalyses != 3 || got.SuccessfulAnalyses != 2 || got.FailedAnalyses != 1 {
		t.Errorf("Unexpected analysis counters: %+v", got)
	}
	if got.DecodedSources != 1 || got.RejectedSources != 1 {
		t.Errorf("Unexpected source counters: %+v", got)
	}
	if got.ByMode["ela"] != 2 || got.ByMode["noise"] != 1 {
		t.Errorf("Unexpected per-mode counters: %v", got.ByMode)
	}
	if got.FailuresByType["codec"] != 1 {
		t.Errorf("Unexpected failure counters: %v", got.FailuresByType)
	}
	if got.AvgProcessingTime != 3*time.Second {
		t.Errorf("Expected 3s average, got %s", got.AvgProcessingTime)
	}
}

func TestMetricsObserver_SnapshotIsCopy(t *testing.T) {
	m := NewMetricsObserver()
	m.OnEvent(context.Background(), AnalysisEvent{EventType: AnalysisStarted, Mode: "delta"})

	snap := m.GetMetrics()
	snap.ByMode["delta"] = 100

	if m.GetMetrics().ByMode["delta"] != 1 {
		t.Error("Expected snapshot maps to be detached from the observer")
	}
}

func TestEventPublisher_NotifyAndFlush(t *testing.T) {
	p := NewEventPublisher()
	a := &recordingObserver{name: "a"}
	b := &recordingObserver{name: "b"}
	p.Subscribe(a)
	p.Subscribe(b)
	p.Subscribe(panickingObserver{})

	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted, Source: "upload"})
	p.Flush()

	for _, obs := range []*recordingObserver{a, b} {
		if len(obs.events) != 1 {
			t.Fatalf("Expected 1 event for %s, got %d", obs.name, len(obs.events))
		}
		if obs.events[0].Timestamp.IsZero() {
			t.Error("Expected timestamp to be filled in")
		}
	}

	p.Unsubscribe(b)
	p.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisCompleted})
	p.Flush()

	if len(a.events) != 2 || len(b.events) != 1 {
		t.Errorf("Expected unsubscribed observer to stop receiving, got a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(log)
	o.OnEvent(context.Background(), AnalysisEvent{
		EventType:    AnalysisFailed,
		Source:       "upload",
		Mode:         "ela",
		ErrorType:    "codec",
		ErrorMessage: "encode failed",
	})

	out := buf.String()
	for _, want := range []string{`"mode":"ela"`, `"error_type":"codec"`, `"level":"error"`, "Forensic analysis failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in log output %q", want, out)
		}
	}
}
