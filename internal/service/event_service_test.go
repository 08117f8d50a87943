package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/namerapp/namer/internal/domain"
)

func TestEventService_Emit(t *testing.T) {
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 10}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	svc.EmitInfo(domain.EventCategoryUpload, "test", "test message", domain.EventMetadata{
		"session_id": "s1",
	})

	events := svc.GetRecent(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].Message != "test message" {
		t.Errorf("expected message 'test message', got '%s'", events[0].Message)
	}
	if events[0].Category != domain.EventCategoryUpload {
		t.Errorf("expected category upload, got %s", events[0].Category)
	}
	if events[0].Severity != domain.EventSeverityInfo {
		t.Errorf("expected severity info, got %s", events[0].Severity)
	}
}

func TestEventService_RingBuffer(t *testing.T) {
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 5}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	for i := 0; i < 10; i++ {
		svc.EmitInfo(domain.EventCategorySystem, "test", fmt.Sprintf("message %d", i), nil)
	}

	// Should only have the last 5
	events := svc.GetRecent(10)
	if len(events) != 5 {
		t.Fatalf("expected 5 events (ring buffer size), got %d", len(events))
	}

	// Most recent first
	if events[0].Message != "message 9" {
		t.Errorf("expected first event to be 'message 9', got '%s'", events[0].Message)
	}
	if events[4].Message != "message 5" {
		t.Errorf("expected last event to be 'message 5', got '%s'", events[4].Message)
	}
}

func TestEventService_Query_Filter(t *testing.T) {
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 100}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	svc.EmitInfo(domain.EventCategoryUpload, "session", "files staged", nil)
	svc.EmitError(domain.EventCategoryExport, "export", "archive failed", nil)
	svc.EmitSuccess(domain.EventCategoryExport, "export", "archive downloaded", nil)

	category := domain.EventCategoryExport
	result, err := svc.Query(context.Background(), domain.EventQuery{
		Filter: domain.EventFilter{Category: &category},
	})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if result.Total != 2 {
		t.Errorf("total = %d, want 2 export events", result.Total)
	}

	severity := domain.EventSeverityError
	result, err = svc.Query(context.Background(), domain.EventQuery{
		Filter: domain.EventFilter{Severity: &severity},
	})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if result.Total != 1 || result.Events[0].Message != "archive failed" {
		t.Errorf("severity filter returned %d events, want the single error", result.Total)
	}
}

func TestEventService_Query_SearchText(t *testing.T) {
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 100}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	svc.EmitInfo(domain.EventCategorySession, "session", "session created", nil)
	svc.EmitInfo(domain.EventCategorySession, "session", "session deleted", nil)

	result, err := svc.Query(context.Background(), domain.EventQuery{
		Filter: domain.EventFilter{SearchText: "CREATED"},
	})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if result.Total != 1 {
		t.Errorf("search matched %d events, want 1 (case-insensitive)", result.Total)
	}
}

func TestEventService_Subscribe(t *testing.T) {
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 10}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	id, ch := svc.Subscribe()
	defer svc.Unsubscribe(id)

	svc.EmitInfo(domain.EventCategorySystem, "test", "hello subscriber", nil)

	select {
	case event := <-ch:
		if event.Message != "hello subscriber" {
			t.Errorf("subscriber got %q, want 'hello subscriber'", event.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the event")
	}

	if svc.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", svc.SubscriberCount())
	}
}

func TestEventService_SQLitePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 10, SQLitePath: path}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	svc.EmitSuccess(domain.EventCategoryExport, "export", "archive downloaded", domain.EventMetadata{
		"members": 3,
	})

	// Persistence is async; poll until the row lands.
	deadline := time.Now().Add(2 * time.Second)
	for {
		result, err := svc.QueryHistorical(context.Background(), domain.EventQuery{})
		if err != nil {
			t.Fatalf("QueryHistorical() failed: %v", err)
		}
		if result.Total == 1 {
			if result.Events[0].Message != "archive downloaded" {
				t.Errorf("persisted message = %q", result.Events[0].Message)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("event was never persisted to sqlite")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !svc.Stats().SQLiteEnabled {
		t.Error("Stats().SQLiteEnabled should be true")
	}
}

func TestEventService_Stats(t *testing.T) {
	svc, err := NewEventService(EventServiceConfig{RingBufferSize: 10}, testLogger())
	if err != nil {
		t.Fatalf("failed to create event service: %v", err)
	}
	defer svc.Close()

	svc.EmitInfo(domain.EventCategorySystem, "test", "one", nil)
	svc.EmitInfo(domain.EventCategorySystem, "test", "two", nil)

	stats := svc.Stats()
	if stats.BufferSize != 10 {
		t.Errorf("BufferSize = %d, want 10", stats.BufferSize)
	}
	if stats.BufferUsed != 2 {
		t.Errorf("BufferUsed = %d, want 2", stats.BufferUsed)
	}
	if stats.SQLiteEnabled {
		t.Error("SQLiteEnabled should be false without a path")
	}
}
