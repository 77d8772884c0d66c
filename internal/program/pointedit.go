package program

import (
	"context"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// DayRef locates a day for an inline edit: by explicit id, or by label on a
// program (the caller's active program when ProgramID is nil).
type DayRef struct {
	DayID     *uuid.UUID `json:"day_id,omitempty"`
	ProgramID *uuid.UUID `json:"program_id,omitempty"`
	DayLabel  string     `json:"day_label,omitempty"`
}

// ExerciseRef locates a single exercise row: by explicit row id, or by
// (day label, exercise name). A name matching more than one row in the day
// yields an AmbiguousError listing every candidate; nothing is modified.
type ExerciseRef struct {
	RowID     *uuid.UUID `json:"row_id,omitempty"`
	ProgramID *uuid.UUID `json:"program_id,omitempty"`
	DayLabel  string     `json:"day_label,omitempty"`
	Exercise  string     `json:"exercise,omitempty"`
}

// PatchDay renames a day or changes its weekdays in place. Inline edits do
// not create a new version.
func (s *Service) PatchDay(ctx context.Context, userID int, ref DayRef, patch storage.DayPatch) (*models.DayRow, error) {
	var day *models.DayRow
	err := s.db.InTx(ctx, func(st *storage.Store) error {
		var err error
		day, err = s.resolveDay(ctx, st, userID, ref)
		if err != nil {
			return err
		}
		if err := st.UpdateDay(ctx, day.ID, patch); err != nil {
			return err
		}
		if patch.Label != nil {
			day.Label = *patch.Label
		}
		if patch.Weekdays != nil {
			day.Weekdays = *patch.Weekdays
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return day, nil
}

// PatchExercise adjusts one exercise row's targets in place.
func (s *Service) PatchExercise(ctx context.Context, userID int, ref ExerciseRef, patch storage.DayExercisePatch) (*models.DayExerciseDetail, error) {
	var row *models.DayExerciseDetail
	err := s.db.InTx(ctx, func(st *storage.Store) error {
		var err error
		row, err = s.resolveExerciseRow(ctx, st, userID, ref)
		if err != nil {
			return err
		}
		if err := st.UpdateDayExercise(ctx, row.ID, row.GroupID != nil, patch); err != nil {
			return err
		}
		applyExercisePatch(row, patch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// applyExercisePatch mirrors the store's update onto the in-memory row so the
// caller sees exactly the values that were persisted. Rest on a grouped row
// is discarded, same as the store does.
func applyExercisePatch(row *models.DayExerciseDetail, p storage.DayExercisePatch) {
	if p.TargetSets != nil {
		row.TargetSets = *p.TargetSets
	}
	if p.Reps != nil {
		row.TargetReps = p.Reps.First()
		row.TargetRepsPerSet = p.Reps.PerSet()
	}
	if p.Weight != nil {
		w := p.Weight.First()
		row.TargetWeight = &w
		row.TargetWeightPerSet = p.Weight.PerSet()
	}
	if p.TargetRPE != nil {
		rpe := *p.TargetRPE
		row.TargetRPE = &rpe
	}
	if p.RestSeconds != nil && row.GroupID == nil {
		rest := *p.RestSeconds
		row.RestSeconds = &rest
	}
	if p.Notes != nil {
		notes := *p.Notes
		row.Notes = &notes
	}
}

// AddExercise appends one solo exercise to the end of a day.
func (s *Service) AddExercise(ctx context.Context, userID int, ref DayRef, solo models.SoloInput) (*models.DayExerciseRow, *storage.Resolved, error) {
	if strings.TrimSpace(solo.Exercise) == "" {
		return nil, nil, storage.ValidationError("exercise name is required")
	}
	if solo.Sets < 1 {
		return nil, nil, storage.ValidationError("sets must be >= 1")
	}
	if len(solo.Reps.Values) == 0 {
		return nil, nil, storage.ValidationError("reps is required")
	}
	if solo.Reps.First() < 1 {
		return nil, nil, storage.ValidationError("reps must be >= 1")
	}

	var row *models.DayExerciseRow
	var res *storage.Resolved
	err := s.db.InTx(ctx, func(st *storage.Store) error {
		day, err := s.resolveDay(ctx, st, userID, ref)
		if err != nil {
			return err
		}
		res, err = st.ResolveExercise(ctx, storage.ResolveRequest{Name: solo.Exercise, UserID: userID})
		if err != nil {
			return err
		}
		next, err := st.NextSortOrder(ctx, day.ID)
		if err != nil {
			return err
		}

		r := models.DayExerciseRow{
			ID:               uuid.New(),
			DayID:            day.ID,
			ExerciseID:       res.ID,
			TargetSets:       solo.Sets,
			TargetReps:       solo.Reps.First(),
			TargetRepsPerSet: solo.Reps.PerSet(),
			TargetRPE:        solo.RPE,
			RestSeconds:      solo.RestSeconds,
			Notes:            solo.Notes,
			SortOrder:        next,
		}
		if solo.Weight != nil {
			w := solo.Weight.First()
			r.TargetWeight = &w
			r.TargetWeightPerSet = solo.Weight.PerSet()
		}
		if err := st.InsertDayExercise(ctx, &r); err != nil {
			return err
		}
		row = &r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return row, res, nil
}

// RemoveExercise deletes one exercise row. A group left with a single member
// is collapsed: the survivor becomes a solo entry and the group row goes away.
func (s *Service) RemoveExercise(ctx context.Context, userID int, ref ExerciseRef) error {
	return s.db.InTx(ctx, func(st *storage.Store) error {
		row, err := s.resolveExerciseRow(ctx, st, userID, ref)
		if err != nil {
			return err
		}
		groupID, err := st.DeleteDayExercise(ctx, row.ID)
		if err != nil {
			return err
		}
		if groupID != nil {
			return st.CollapseGroupIfSingle(ctx, *groupID)
		}
		return nil
	})
}

func (s *Service) resolveDay(ctx context.Context, st *storage.Store, userID int, ref DayRef) (*models.DayRow, error) {
	if ref.DayID != nil {
		return st.GetOwnedDay(ctx, *ref.DayID, userID)
	}
	if strings.TrimSpace(ref.DayLabel) == "" {
		return nil, storage.ValidationError("day_id or day_label is required")
	}

	var prog *models.ProgramRow
	var err error
	if ref.ProgramID != nil {
		prog, err = st.GetOwnedProgram(ctx, *ref.ProgramID, userID)
		if err != nil {
			return nil, err
		}
		if prog == nil {
			return nil, storage.NotFoundError("program %s", *ref.ProgramID)
		}
	} else {
		prog, err = st.ActiveProgram(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return st.FindDayByLabel(ctx, prog.ID, ref.DayLabel)
}

func (s *Service) resolveExerciseRow(ctx context.Context, st *storage.Store, userID int, ref ExerciseRef) (*models.DayExerciseDetail, error) {
	if ref.RowID != nil {
		return st.GetOwnedDayExercise(ctx, *ref.RowID, userID)
	}
	if strings.TrimSpace(ref.Exercise) == "" {
		return nil, storage.ValidationError("row_id or exercise name is required")
	}

	day, err := s.resolveDay(ctx, st, userID, DayRef{ProgramID: ref.ProgramID, DayLabel: ref.DayLabel})
	if err != nil {
		return nil, err
	}
	matches, err := st.FindDayExercisesByName(ctx, day.ID, ref.Exercise)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, storage.NotFoundError("exercise %q in day %q", ref.Exercise, day.Label)
	case 1:
		return &matches[0], nil
	}
	return nil, &storage.AmbiguousError{
		Target:     day.Label + "/" + ref.Exercise,
		Candidates: storage.CandidatesFrom(matches),
	}
}
