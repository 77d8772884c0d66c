package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FindDayByLabel locates a day on the latest version of a program by its
// label, case-insensitively. Duplicate labels resolve to the earliest day.
func (s *Store) FindDayByLabel(ctx context.Context, programID uuid.UUID, label string) (*models.DayRow, error) {
	var d models.DayRow
	err := s.q.QueryRow(ctx,
		`SELECT d.id, d.version_id, d.label, d.weekdays, d.sort_order
		 FROM program_days d
		 JOIN program_versions v ON v.id = d.version_id
		 WHERE v.program_id = $1 AND lower(d.label) = lower($2)
		   AND v.version = (SELECT max(version) FROM program_versions WHERE program_id = $1)
		 ORDER BY d.sort_order
		 LIMIT 1`,
		programID, label).Scan(&d.ID, &d.VersionID, &d.Label, &d.Weekdays, &d.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundError("day %q", label)
	}
	if err != nil {
		return nil, fmt.Errorf("querying day by label: %w", err)
	}
	return &d, nil
}

// GetOwnedDay retrieves a day row, verifying the surrounding program belongs
// to the caller.
func (s *Store) GetOwnedDay(ctx context.Context, dayID uuid.UUID, userID int) (*models.DayRow, error) {
	var d models.DayRow
	err := s.q.QueryRow(ctx,
		`SELECT d.id, d.version_id, d.label, d.weekdays, d.sort_order
		 FROM program_days d
		 JOIN program_versions v ON v.id = d.version_id
		 JOIN programs p ON p.id = v.program_id
		 WHERE d.id = $1 AND p.user_id = $2`,
		dayID, userID).Scan(&d.ID, &d.VersionID, &d.Label, &d.Weekdays, &d.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundError("day %s", dayID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying day: %w", err)
	}
	return &d, nil
}

// GetOwnedDayExercise retrieves one exercise row by id, verifying ownership.
func (s *Store) GetOwnedDayExercise(ctx context.Context, rowID uuid.UUID, userID int) (*models.DayExerciseDetail, error) {
	row := s.q.QueryRow(ctx,
		dayExerciseDetailQuery+`
		 JOIN program_days d ON d.id = de.day_id
		 JOIN program_versions v ON v.id = d.version_id
		 JOIN programs p ON p.id = v.program_id
		 WHERE de.id = $1 AND p.user_id = $2`,
		rowID, userID)
	d, err := scanDayExerciseDetail(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("exercise row %s", rowID)
		}
		return nil, err
	}
	return d, nil
}

// FindDayExercisesByName returns every exercise row in a day whose catalog
// name or alias matches, in sort order. Point-edit callers treat more than
// one match as ambiguous.
func (s *Store) FindDayExercisesByName(ctx context.Context, dayID uuid.UUID, name string) ([]models.DayExerciseDetail, error) {
	rows, err := s.q.Query(ctx,
		dayExerciseDetailQuery+`
		 WHERE de.day_id = $1
		   AND (lower(e.name) = lower($2)
		        OR EXISTS (SELECT 1 FROM exercise_aliases a
		                   WHERE a.exercise_id = e.id AND lower(a.alias) = lower($2)))
		 ORDER BY de.sort_order`,
		dayID, name)
	if err != nil {
		return nil, fmt.Errorf("querying day exercises by name: %w", err)
	}
	defer rows.Close()

	var result []models.DayExerciseDetail
	for rows.Next() {
		d, err := scanDayExerciseDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

// CandidatesFrom converts matched rows into the candidate list handed back on
// an ambiguous point edit.
func CandidatesFrom(matches []models.DayExerciseDetail) []Candidate {
	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = Candidate{
			RowID:        m.ID,
			Exercise:     m.ExerciseName,
			Position:     m.SortOrder,
			GroupType:    m.GroupType,
			GroupLabel:   m.GroupLabel,
			SectionLabel: m.SectionLabel,
		}
	}
	return out
}

// DayPatch is the sparse field set for an inline day edit.
type DayPatch struct {
	Label    *string
	Weekdays *[]int
}

// UpdateDay applies a sparse inline edit to a day row without creating a new
// version.
func (s *Store) UpdateDay(ctx context.Context, dayID uuid.UUID, p DayPatch) error {
	var sets []fieldValue
	if p.Label != nil {
		sets = append(sets, fieldValue{"label", *p.Label})
	}
	if p.Weekdays != nil {
		for _, wd := range *p.Weekdays {
			if wd < 1 || wd > 7 {
				return ValidationError("weekday %d out of range 1..7", wd)
			}
		}
		sets = append(sets, fieldValue{"weekdays", *p.Weekdays})
	}
	if len(sets) == 0 {
		return ValidationError("no fields to update")
	}
	return s.sparseUpdate(ctx, "program_days", dayID, sets)
}

// DayExercisePatch is the sparse field set for an inline exercise edit.
// Reps and Weight update both the scalar representative and the per-set
// array together; the scalar is always the first per-set value.
type DayExercisePatch struct {
	TargetSets  *int
	Reps        *models.FlexInts
	Weight      *models.FlexFloat
	TargetRPE   *float64
	RestSeconds *int
	Notes       *string
}

// UpdateDayExercise applies a sparse inline edit to one exercise row. When
// the row belongs to a group, a supplied rest_seconds is silently discarded:
// rest is owned by the group.
func (s *Store) UpdateDayExercise(ctx context.Context, rowID uuid.UUID, grouped bool, p DayExercisePatch) error {
	var sets []fieldValue
	if p.TargetSets != nil {
		if *p.TargetSets < 1 {
			return ValidationError("sets must be >= 1")
		}
		sets = append(sets, fieldValue{"target_sets", *p.TargetSets})
	}
	if p.Reps != nil {
		if len(p.Reps.Values) == 0 {
			return ValidationError("reps is empty")
		}
		if p.Reps.First() < 1 {
			return ValidationError("reps must be >= 1")
		}
		sets = append(sets,
			fieldValue{"target_reps", p.Reps.First()},
			fieldValue{"target_reps_per_set", p.Reps.PerSet()})
	}
	if p.Weight != nil {
		if len(p.Weight.Values) == 0 {
			return ValidationError("weight is empty")
		}
		first := p.Weight.First()
		sets = append(sets,
			fieldValue{"target_weight", &first},
			fieldValue{"target_weight_per_set", p.Weight.PerSet()})
	}
	if p.TargetRPE != nil {
		sets = append(sets, fieldValue{"target_rpe", *p.TargetRPE})
	}
	if p.RestSeconds != nil && !grouped {
		sets = append(sets, fieldValue{"rest_seconds", *p.RestSeconds})
	}
	if p.Notes != nil {
		sets = append(sets, fieldValue{"notes", *p.Notes})
	}
	if len(sets) == 0 {
		return ValidationError("no fields to update")
	}
	return s.sparseUpdate(ctx, "program_day_exercises", rowID, sets)
}

// NextSortOrder returns the sort position after the day's current last row.
func (s *Store) NextSortOrder(ctx context.Context, dayID uuid.UUID) (int, error) {
	var next int
	err := s.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM program_day_exercises WHERE day_id = $1`,
		dayID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("querying next sort order: %w", err)
	}
	return next, nil
}

// InsertDayExercise appends one row; used by inline add_exercise.
func (s *Store) InsertDayExercise(ctx context.Context, r *models.DayExerciseRow) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO program_day_exercises
		 (id, day_id, exercise_id, target_sets, target_reps, target_reps_per_set,
		  target_weight, target_weight_per_set, target_rpe, rest_seconds, notes,
		  sort_order, group_id, section_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		r.ID, r.DayID, r.ExerciseID, r.TargetSets, r.TargetReps, r.TargetRepsPerSet,
		r.TargetWeight, r.TargetWeightPerSet, r.TargetRPE, r.RestSeconds, r.Notes,
		r.SortOrder, r.GroupID, r.SectionID)
	if err != nil {
		return fmt.Errorf("inserting day exercise: %w", err)
	}
	return nil
}

// DeleteDayExercise removes one row and returns its group reference, if any,
// so the caller can collapse a group left with a single member.
func (s *Store) DeleteDayExercise(ctx context.Context, rowID uuid.UUID) (*uuid.UUID, error) {
	var groupID *uuid.UUID
	err := s.q.QueryRow(ctx,
		`DELETE FROM program_day_exercises WHERE id = $1 RETURNING group_id`,
		rowID).Scan(&groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundError("exercise row %s", rowID)
	}
	if err != nil {
		return nil, fmt.Errorf("deleting day exercise: %w", err)
	}
	return groupID, nil
}

// CollapseGroupIfSingle enforces the >=2 members invariant after a removal:
// a group down to one member has that member converted to a solo entry and
// the group row deleted. An emptied group is deleted outright.
func (s *Store) CollapseGroupIfSingle(ctx context.Context, groupID uuid.UUID) error {
	var members int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM program_day_exercises WHERE group_id = $1`,
		groupID).Scan(&members)
	if err != nil {
		return fmt.Errorf("counting group members: %w", err)
	}
	if members >= 2 {
		return nil
	}
	if members == 1 {
		if _, err := s.q.Exec(ctx,
			`UPDATE program_day_exercises SET group_id = NULL WHERE group_id = $1`,
			groupID); err != nil {
			return fmt.Errorf("detaching last group member: %w", err)
		}
	}
	if _, err := s.q.Exec(ctx,
		`DELETE FROM program_exercise_groups WHERE id = $1`, groupID); err != nil {
		return fmt.Errorf("deleting collapsed group: %w", err)
	}
	return nil
}
