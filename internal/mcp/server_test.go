package mcp

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

func requestWith(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestParseDays(t *testing.T) {
	days, err := parseDays(`[{"day_label": "Day A", "weekdays": [1,4], "exercises": [{"exercise": "Squat", "sets": 3, "reps": 5}]}]`)
	if err != nil {
		t.Fatalf("parseDays: %v", err)
	}
	if len(days) != 1 || days[0].DayLabel != "Day A" || len(days[0].Items) != 1 {
		t.Errorf("parsed shape wrong: %+v", days)
	}

	if _, err := parseDays(`{"not": "an array"}`); err == nil {
		t.Error("expected error for non-array days")
	}
}

func TestDayRefFromRequest(t *testing.T) {
	dayID := uuid.New()
	req := requestWith(map[string]any{"day_id": dayID.String(), "day_label": "Day B"})

	ref, err := dayRefFromRequest(req)
	if err != nil {
		t.Fatalf("dayRefFromRequest: %v", err)
	}
	if ref.DayID == nil || *ref.DayID != dayID {
		t.Error("day_id not parsed")
	}
	if ref.ProgramID != nil {
		t.Error("program_id should stay nil when absent")
	}
	if ref.DayLabel != "Day B" {
		t.Errorf("day_label = %q", ref.DayLabel)
	}

	if _, err := dayRefFromRequest(requestWith(map[string]any{"day_id": "not-a-uuid"})); err == nil {
		t.Error("expected error for malformed day_id")
	}
}

func TestExerciseRefFromRequest(t *testing.T) {
	req := requestWith(map[string]any{"day_label": "Day A", "exercise": "curl"})
	ref, err := exerciseRefFromRequest(req)
	if err != nil {
		t.Fatalf("exerciseRefFromRequest: %v", err)
	}
	if ref.RowID != nil {
		t.Error("row_id should stay nil when absent")
	}
	if ref.DayLabel != "Day A" || ref.Exercise != "curl" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestOptHelpers(t *testing.T) {
	args := map[string]any{
		"sets":  float64(4),
		"rpe":   8.5,
		"notes": "slow eccentric",
	}

	if got := optInt(args, "sets"); got == nil || *got != 4 {
		t.Errorf("optInt(sets) = %v, want 4", got)
	}
	if got := optInt(args, "missing"); got != nil {
		t.Errorf("optInt(missing) = %v, want nil", got)
	}
	if got := optFloat(args, "rpe"); got == nil || *got != 8.5 {
		t.Errorf("optFloat(rpe) = %v, want 8.5", got)
	}
	if got := optString(args, "notes"); got == nil || *got != "slow eccentric" {
		t.Errorf("optString(notes) = %v", got)
	}
	if got := optString(args, "sets"); got != nil {
		t.Errorf("optString on a number = %v, want nil", got)
	}
}
