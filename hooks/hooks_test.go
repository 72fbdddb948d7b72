package hooks

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/qa"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
}

func TestOnBeforeBrief(t *testing.T) {
	r := NewRegistry()
	var capturedType string
	var capturedDay time.Time

	r.OnBeforeBrief(func(ctx context.Context, briefType string, day time.Time) error {
		capturedType = briefType
		capturedDay = day
		return nil
	})

	day := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)
	err := r.TriggerBeforeBrief(context.Background(), briefing.TypeMorning, day)
	if err != nil {
		t.Errorf("TriggerBeforeBrief returned error: %v", err)
	}
	if capturedType != briefing.TypeMorning {
		t.Errorf("expected type %q, got %q", briefing.TypeMorning, capturedType)
	}
	if !capturedDay.Equal(day) {
		t.Errorf("expected day %v, got %v", day, capturedDay)
	}
}

func TestOnAfterBrief(t *testing.T) {
	r := NewRegistry()
	var capturedBrief *briefing.Brief
	var capturedErr error

	r.OnAfterBrief(func(ctx context.Context, briefType string, brief *briefing.Brief, err error) error {
		capturedBrief = brief
		capturedErr = err
		return nil
	})

	testBrief := &briefing.Brief{Type: briefing.TypeMorning, Mode: briefing.ModeDemo}

	err := r.TriggerAfterBrief(context.Background(), briefing.TypeMorning, testBrief, nil)
	if err != nil {
		t.Errorf("TriggerAfterBrief returned error: %v", err)
	}
	if capturedBrief != testBrief {
		t.Error("brief was not passed to hook")
	}
	if capturedErr != nil {
		t.Errorf("expected nil error, got %v", capturedErr)
	}
}

func TestOnBeforeQuery(t *testing.T) {
	r := NewRegistry()
	var capturedQuestion string

	r.OnBeforeQuery(func(ctx context.Context, question string) error {
		capturedQuestion = question
		return nil
	})

	err := r.TriggerBeforeQuery(context.Background(), "which sites are low on stock?")
	if err != nil {
		t.Errorf("TriggerBeforeQuery returned error: %v", err)
	}
	if capturedQuestion != "which sites are low on stock?" {
		t.Errorf("expected question to be captured, got %q", capturedQuestion)
	}
}

func TestOnAfterQuery(t *testing.T) {
	r := NewRegistry()
	var capturedAnswer *qa.Answer

	r.OnAfterQuery(func(ctx context.Context, question string, answer *qa.Answer, err error) error {
		capturedAnswer = answer
		return nil
	})

	testAnswer := &qa.Answer{Answer: "Two sites are low.", Confidence: 0.85}

	err := r.TriggerAfterQuery(context.Background(), "which sites are low on stock?", testAnswer, nil)
	if err != nil {
		t.Errorf("TriggerAfterQuery returned error: %v", err)
	}
	if capturedAnswer != testAnswer {
		t.Error("answer was not passed to hook")
	}
}

func TestHookError(t *testing.T) {
	r := NewRegistry()
	expectedErr := errors.New("hook error")

	r.OnBeforeQuery(func(ctx context.Context, question string) error {
		return expectedErr
	})

	err := r.TriggerBeforeQuery(context.Background(), "anything")
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestMultipleHooks(t *testing.T) {
	r := NewRegistry()
	callOrder := []int{}

	for i := 1; i <= 3; i++ {
		n := i
		r.OnBeforeQuery(func(ctx context.Context, question string) error {
			callOrder = append(callOrder, n)
			return nil
		})
	}

	err := r.TriggerBeforeQuery(context.Background(), "q")
	if err != nil {
		t.Errorf("TriggerBeforeQuery returned error: %v", err)
	}

	if len(callOrder) != 3 {
		t.Fatalf("expected 3 hooks to be called, got %d", len(callOrder))
	}

	// Verify hooks are called in registration order
	for i, v := range callOrder {
		if v != i+1 {
			t.Errorf("expected call order %d at index %d, got %d", i+1, i, v)
		}
	}
}

func TestHookStopsOnError(t *testing.T) {
	r := NewRegistry()
	called := []int{}
	expectedErr := errors.New("stop here")

	r.OnBeforeBrief(func(ctx context.Context, briefType string, day time.Time) error {
		called = append(called, 1)
		return nil
	})

	r.OnBeforeBrief(func(ctx context.Context, briefType string, day time.Time) error {
		called = append(called, 2)
		return expectedErr
	})

	r.OnBeforeBrief(func(ctx context.Context, briefType string, day time.Time) error {
		called = append(called, 3)
		return nil
	})

	err := r.TriggerBeforeBrief(context.Background(), briefing.TypeMorning, time.Now())
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}

	if len(called) != 2 {
		t.Errorf("expected 2 hooks to be called before error, got %d", len(called))
	}
}

func TestConcurrentHookRegistration(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	numGoroutines := 100

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			r.OnBeforeQuery(func(ctx context.Context, question string) error {
				return nil
			})
		}()
	}
	wg.Wait()

	// Trigger should work without panic
	err := r.TriggerBeforeQuery(context.Background(), "q")
	if err != nil {
		t.Errorf("TriggerBeforeQuery returned error: %v", err)
	}
}

func TestConcurrentHookTrigger(t *testing.T) {
	r := NewRegistry()
	var callCount int
	var mu sync.Mutex

	r.OnBeforeQuery(func(ctx context.Context, question string) error {
		mu.Lock()
		callCount++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	numGoroutines := 100

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			r.TriggerBeforeQuery(context.Background(), "q")
		}()
	}
	wg.Wait()

	if callCount != numGoroutines {
		t.Errorf("expected %d calls, got %d", numGoroutines, callCount)
	}
}

func TestLoggingHooks_Brief(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoggingHooks(log.New(&buf, "", 0))

	day := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)
	if err := h.BeforeBrief(context.Background(), briefing.TypeMorning, day); err != nil {
		t.Fatalf("BeforeBrief returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "[Sally] Generating morning brief for 2026-08-20") {
		t.Errorf("unexpected log output: %q", buf.String())
	}

	buf.Reset()
	brief := &briefing.Brief{
		Type: briefing.TypeMorning,
		Mode: briefing.ModeProduction,
		Summary: briefing.Summary{
			CriticalAlerts:   3,
			DelayedShipments: 1,
		},
	}
	if err := h.AfterBrief(context.Background(), briefing.TypeMorning, brief, nil); err != nil {
		t.Fatalf("AfterBrief returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "morning brief generated (production mode)") {
		t.Errorf("unexpected log output: %q", out)
	}
	if !strings.Contains(out, "3 critical alerts") {
		t.Errorf("expected alert count in log, got %q", out)
	}

	buf.Reset()
	if err := h.AfterBrief(context.Background(), briefing.TypeEvening, nil, errors.New("store down")); err != nil {
		t.Fatalf("AfterBrief returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "evening brief failed: store down") {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}

func TestLoggingHooks_Query(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoggingHooks(log.New(&buf, "", 0))

	long := strings.Repeat("inventory ", 20)
	if err := h.BeforeQuery(context.Background(), long); err != nil {
		t.Fatalf("BeforeQuery returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "...") {
		t.Errorf("expected long question to be truncated, got %q", buf.String())
	}

	buf.Reset()
	answer := &qa.Answer{
		Provider:   "openai",
		Model:      "gpt-4o-mini",
		Confidence: 0.85,
		TokensUsed: 412,
		LatencyMs:  950,
	}
	if err := h.AfterQuery(context.Background(), "q", answer, nil); err != nil {
		t.Fatalf("AfterQuery returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "openai/gpt-4o-mini") {
		t.Errorf("expected provider/model in log, got %q", out)
	}
	if !strings.Contains(out, "confidence=0.85") {
		t.Errorf("expected confidence in log, got %q", out)
	}
}

func TestVerboseLoggingHooks_QueryIncludesSQL(t *testing.T) {
	var buf bytes.Buffer
	h := NewVerboseLoggingHooks(log.New(&buf, "", 0))

	answer := &qa.Answer{
		Answer:   "Two sites.",
		Provider: "openai",
		Model:    "gpt-4o-mini",
		SQLQuery: "SELECT site_id FROM gold_clinical_sites",
		Sources:  []string{"inventory summary"},
	}
	if err := h.AfterQuery(context.Background(), "q", answer, nil); err != nil {
		t.Fatalf("AfterQuery returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "SQL: SELECT site_id FROM gold_clinical_sites") {
		t.Errorf("expected SQL in verbose log, got %q", out)
	}
	if !strings.Contains(out, "Sources:") {
		t.Errorf("expected sources in verbose log, got %q", out)
	}
}

type metricRecord struct {
	name  string
	value float64
	tags  map[string]string
}

func TestMetricsHooks_Query(t *testing.T) {
	var records []metricRecord
	h := NewMetricsHooks(func(name string, value float64, tags map[string]string) {
		records = append(records, metricRecord{name, value, tags})
	})

	answer := &qa.Answer{Provider: "openai", TokensUsed: 412, LatencyMs: 950, Confidence: 0.85}
	if err := h.AfterQuery(context.Background(), "q", answer, nil); err != nil {
		t.Fatalf("AfterQuery returned error: %v", err)
	}

	want := map[string]float64{
		"sally.query.success":    1,
		"sally.query.tokens":     412,
		"sally.query.latency_ms": 950,
		"sally.query.confidence": 0.85,
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(records))
	}
	for _, rec := range records {
		expected, ok := want[rec.name]
		if !ok {
			t.Errorf("unexpected metric %q", rec.name)
			continue
		}
		if rec.value != expected {
			t.Errorf("metric %q = %v, want %v", rec.name, rec.value, expected)
		}
		if rec.tags["provider"] != "openai" {
			t.Errorf("metric %q missing provider tag: %v", rec.name, rec.tags)
		}
	}

	records = nil
	if err := h.AfterQuery(context.Background(), "q", nil, errors.New("no provider")); err != nil {
		t.Fatalf("AfterQuery returned error: %v", err)
	}
	if len(records) != 1 || records[0].name != "sally.query.error" {
		t.Errorf("expected single sally.query.error metric, got %+v", records)
	}
}

func TestMetricsHooks_Brief(t *testing.T) {
	var records []metricRecord
	h := NewMetricsHooks(func(name string, value float64, tags map[string]string) {
		records = append(records, metricRecord{name, value, tags})
	})

	brief := &briefing.Brief{
		Mode:    briefing.ModeDemo,
		Summary: briefing.Summary{CriticalAlerts: 2, DelayedShipments: 1},
	}
	if err := h.AfterBrief(context.Background(), briefing.TypeMorning, brief, nil); err != nil {
		t.Fatalf("AfterBrief returned error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(records))
	}
	if records[0].name != "sally.brief.generated" {
		t.Errorf("expected sally.brief.generated first, got %q", records[0].name)
	}
	if records[0].tags["type"] != briefing.TypeMorning || records[0].tags["mode"] != briefing.ModeDemo {
		t.Errorf("unexpected tags: %v", records[0].tags)
	}

	records = nil
	if err := h.AfterBrief(context.Background(), briefing.TypeEvening, nil, errors.New("boom")); err != nil {
		t.Fatalf("AfterBrief returned error: %v", err)
	}
	if len(records) != 1 || records[0].name != "sally.brief.error" {
		t.Errorf("expected single sally.brief.error metric, got %+v", records)
	}
}
