package trip

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestTrip_Core tests core Trip functionality
func TestTrip_Core(t *testing.T) {
	context := Context{
		"action": "zoomToGalaxy",
		"id":     "nebula-9",
	}

	trip := NewTrip(InvalidReference, "unknown galaxy", context)

	assert.Equal(t, InvalidReference, trip.Type)
	assert.Equal(t, "unknown galaxy", trip.Message)
	assert.Equal(t, context, trip.Context)
	assert.Equal(t, Error, trip.Severity)
	assert.WithinDuration(t, time.Now(), trip.Timestamp, time.Second)

	assert.Contains(t, trip.Error(), "unknown galaxy")
	assert.Contains(t, trip.Error(), InvalidReference)
	assert.Contains(t, trip.Error(), "error")
}

// TestTrip_Severities tests different severity levels
func TestTrip_Severities(t *testing.T) {
	stumble := NewStumble("timing", "Slight delay", nil)
	error_ := NewTrip("assertion", "Wrong mode", nil)
	fall := NewFall("system", "Model panicked", nil)

	assert.Equal(t, Stumble, stumble.Severity)
	assert.Equal(t, Error, error_.Severity)
	assert.Equal(t, Fall, fall.Severity)

	assert.True(t, stumble.CanRecover())
	assert.False(t, error_.CanRecover())
	assert.False(t, fall.CanRecover())

	assert.False(t, stumble.IsFall())
	assert.False(t, error_.IsFall())
	assert.True(t, fall.IsFall())
}

func TestTrip_CoreConstructorsAreStumbles(t *testing.T) {
	unknown := UnknownID("zoomToProject", "project", "ghost")
	assert.Equal(t, InvalidReference, unknown.Type)
	assert.True(t, unknown.CanRecover())
	id, ok := unknown.GetContext("id")
	assert.True(t, ok)
	assert.Equal(t, "ghost", id)

	waiting := Waiting("camera", "caipo-ai")
	assert.Equal(t, MissingDependency, waiting.Type)
	assert.True(t, waiting.CanRecover())

	skipped := SkippedStop("ai-story", "gone", 2)
	assert.Equal(t, TourContent, skipped.Type)
	assert.Contains(t, skipped.Message, `"gone"`)
}

// TestTrip_Methods tests trip methods
func TestTrip_Methods(t *testing.T) {
	trip := NewTrip("test", "Test message", Context{"b": 2, "a": 1})

	trip.WithAttempt(3)
	assert.Equal(t, 3, trip.Attempt)

	_, exists := trip.GetContext("missing")
	assert.False(t, exists)

	detailed := trip.DetailedString()
	assert.Contains(t, detailed, "Test message")
	assert.Contains(t, detailed, "Attempt: 3")
	assert.Less(t, strings.Index(detailed, "a: 1"), strings.Index(detailed, "b: 2"), "context keys are sorted")
}

func TestHandler_DefaultPolicyNeverStopsOnStumbles(t *testing.T) {
	h := NewHandler("store", nil)

	for i := 0; i < 1000; i++ {
		h.Record(UnknownID("zoomToGalaxy", "galaxy", fmt.Sprintf("g%d", i)))
	}

	assert.True(t, h.ShouldContinue())
	assert.True(t, h.HasStumbles())
	assert.False(t, h.HasTrips())
	assert.Equal(t, 1000, h.Count(InvalidReference))
	assert.Len(t, h.GetStumbles(), 256, "retention is bounded")
	assert.Equal(t, "g999", h.GetStumbles()[255].Context["id"])
	assert.Contains(t, h.Summary(), "1000 stumbles")
}

func TestHandler_StagePolicy(t *testing.T) {
	h := NewHandler("stage_director", StagePolicy())
	assert.True(t, h.ShouldContinue())

	h.Record(NewStumble("minor", "Minor issue", nil))
	assert.True(t, h.ShouldContinue())

	h.Record(NewFall("critical", "Critical error", nil))
	assert.False(t, h.ShouldContinue())
	assert.True(t, h.HasTrips())
	assert.Len(t, h.GetTrips(), 1)

	over := NewHandler("stage_director", StagePolicy())
	for i := 0; i < 11; i++ {
		over.Record(NewStumble("timing", "late", nil))
	}
	assert.False(t, over.ShouldContinue())
}

func TestHandler_CanRecover(t *testing.T) {
	h := NewHandler("store", DefaultPolicy())
	assert.True(t, h.CanRecover(InvalidReference))
	assert.True(t, h.CanRecover(TourContent))
	assert.False(t, h.CanRecover("assertion"))
}

func TestHandler_LogsTrips(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewHandler("journey", nil).WithLogger(zap.New(core))

	h.Record(SkippedStop("ai-story", "gone", 1))
	h.Record(NewTrip("assertion", "bad", nil))

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "journey", entries[0].ContextMap()["component"])
	assert.Equal(t, TourContent, entries[0].ContextMap()["trip"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestHandler_ConcurrentRecord(t *testing.T) {
	h := NewHandler("runtime", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Record(Waiting("scan", "p"))
				_ = h.Summary()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, h.Count(MissingDependency))
}

func TestHandler_DetailedReport(t *testing.T) {
	h := NewHandler("journey", nil)
	assert.Contains(t, h.Summary(), "No issues")

	h.Record(SkippedStop("builders", "ghost", 0))
	report := h.DetailedReport()
	assert.Contains(t, report, "=== journey Component Report ===")
	assert.Contains(t, report, "Stumbles:")
	assert.Contains(t, report, "ghost")
}

// TestSeverity_String tests severity string representation
func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "stumble", Stumble.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fall", Fall.String())
	assert.Equal(t, "unknown", Severity(99).String())
}
