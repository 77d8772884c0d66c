package program

import (
	"testing"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

func TestApplyExercisePatch(t *testing.T) {
	sets := 5
	rpe := 8.5
	rest := 120
	notes := "pause at the bottom"

	t.Run("all fields on a solo row", func(t *testing.T) {
		row := &models.DayExerciseDetail{
			DayExerciseRow: models.DayExerciseRow{
				ID:         uuid.New(),
				TargetSets: 3,
				TargetReps: 8,
			},
			ExerciseName: "Squat",
		}
		applyExercisePatch(row, storage.DayExercisePatch{
			TargetSets:  &sets,
			Reps:        &models.FlexInts{Values: []int{6, 6, 4}},
			Weight:      &models.FlexFloat{Values: []float64{100, 100, 105}},
			TargetRPE:   &rpe,
			RestSeconds: &rest,
			Notes:       &notes,
		})

		if row.TargetSets != 5 {
			t.Errorf("TargetSets = %d, want 5", row.TargetSets)
		}
		if row.TargetReps != 6 {
			t.Errorf("TargetReps = %d, want first per-set value 6", row.TargetReps)
		}
		if len(row.TargetRepsPerSet) != 3 {
			t.Errorf("TargetRepsPerSet = %v, want 3 values", row.TargetRepsPerSet)
		}
		if row.TargetWeight == nil || *row.TargetWeight != 100 {
			t.Errorf("TargetWeight = %v, want 100", row.TargetWeight)
		}
		if row.TargetRPE == nil || *row.TargetRPE != rpe {
			t.Errorf("TargetRPE = %v, want %v", row.TargetRPE, rpe)
		}
		if row.RestSeconds == nil || *row.RestSeconds != rest {
			t.Errorf("RestSeconds = %v, want %d", row.RestSeconds, rest)
		}
		if row.Notes == nil || *row.Notes != notes {
			t.Errorf("Notes = %v, want %q", row.Notes, notes)
		}
	})

	t.Run("rest discarded on a grouped row", func(t *testing.T) {
		groupID := uuid.New()
		row := &models.DayExerciseDetail{
			DayExerciseRow: models.DayExerciseRow{ID: uuid.New(), GroupID: &groupID},
		}
		applyExercisePatch(row, storage.DayExercisePatch{RestSeconds: &rest})
		if row.RestSeconds != nil {
			t.Errorf("RestSeconds = %v, want nil for a grouped row", row.RestSeconds)
		}
	})

	t.Run("scalar reps clears the per-set array", func(t *testing.T) {
		row := &models.DayExerciseDetail{
			DayExerciseRow: models.DayExerciseRow{
				ID:               uuid.New(),
				TargetReps:       6,
				TargetRepsPerSet: []int{6, 6, 4},
			},
		}
		applyExercisePatch(row, storage.DayExercisePatch{
			Reps: &models.FlexInts{Values: []int{10}, Scalar: true},
		})
		if row.TargetReps != 10 {
			t.Errorf("TargetReps = %d, want 10", row.TargetReps)
		}
		if row.TargetRepsPerSet != nil {
			t.Errorf("TargetRepsPerSet = %v, want nil for a scalar patch", row.TargetRepsPerSet)
		}
	})

	t.Run("absent fields untouched", func(t *testing.T) {
		weight := 80.0
		row := &models.DayExerciseDetail{
			DayExerciseRow: models.DayExerciseRow{
				ID:           uuid.New(),
				TargetSets:   3,
				TargetReps:   8,
				TargetWeight: &weight,
			},
		}
		applyExercisePatch(row, storage.DayExercisePatch{TargetSets: &sets})
		if row.TargetReps != 8 {
			t.Errorf("TargetReps = %d, want untouched 8", row.TargetReps)
		}
		if row.TargetWeight == nil || *row.TargetWeight != weight {
			t.Errorf("TargetWeight = %v, want untouched %v", row.TargetWeight, weight)
		}
	})
}
