package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// InsertDay inserts one day row for a version.
func (s *Store) InsertDay(ctx context.Context, d *models.DayRow) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO program_days (id, version_id, label, weekdays, sort_order)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.VersionID, d.Label, d.Weekdays, d.SortOrder)
	if err != nil {
		return fmt.Errorf("inserting day %q: %w", d.Label, err)
	}
	return nil
}

// InsertSections batch-inserts section rows for one day.
func (s *Store) InsertSections(ctx context.Context, rows []models.SectionRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO program_sections (id, day_id, label, notes, sort_order) VALUES `
	args := make([]any, 0, len(rows)*5)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, r.ID, r.DayID, r.Label, r.Notes, r.SortOrder)
	}

	if _, err := s.q.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting sections: %w", err)
	}
	return nil
}

// InsertGroups batch-inserts group rows for one day.
func (s *Store) InsertGroups(ctx context.Context, rows []models.GroupRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO program_exercise_groups (id, day_id, group_type, label, notes, rest_seconds) VALUES `
	args := make([]any, 0, len(rows)*6)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, r.ID, r.DayID, r.GroupType, r.Label, r.Notes, r.RestSeconds)
	}

	if _, err := s.q.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting groups: %w", err)
	}
	return nil
}

// InsertDayExercises writes every exercise row of a day in one set-oriented
// statement. Within the surrounding transaction no reader can ever observe a
// half-written day.
func (s *Store) InsertDayExercises(ctx context.Context, rows []models.DayExerciseRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO program_day_exercises
		(id, day_id, exercise_id, target_sets, target_reps, target_reps_per_set,
		 target_weight, target_weight_per_set, target_rpe, rest_seconds, notes,
		 sort_order, group_id, section_id) VALUES `
	args := make([]any, 0, len(rows)*14)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 14
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
			base+8, base+9, base+10, base+11, base+12, base+13, base+14,
		))
		args = append(args, r.ID, r.DayID, r.ExerciseID, r.TargetSets, r.TargetReps,
			r.TargetRepsPerSet, r.TargetWeight, r.TargetWeightPerSet, r.TargetRPE,
			r.RestSeconds, r.Notes, r.SortOrder, r.GroupID, r.SectionID)
	}

	if _, err := s.q.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting day exercises: %w", err)
	}
	return nil
}

// QueryVersionDays returns the day rows of one version in sort order.
func (s *Store) QueryVersionDays(ctx context.Context, versionID uuid.UUID) ([]models.DayRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, version_id, label, weekdays, sort_order
		 FROM program_days
		 WHERE version_id = $1
		 ORDER BY sort_order`,
		versionID)
	if err != nil {
		return nil, fmt.Errorf("querying days: %w", err)
	}
	defer rows.Close()

	var result []models.DayRow
	for rows.Next() {
		var d models.DayRow
		if err := rows.Scan(&d.ID, &d.VersionID, &d.Label, &d.Weekdays, &d.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

const dayExerciseDetailQuery = `
	SELECT de.id, de.day_id, de.exercise_id, de.target_sets, de.target_reps,
	       de.target_reps_per_set, de.target_weight, de.target_weight_per_set,
	       de.target_rpe, de.rest_seconds, de.notes, de.sort_order,
	       de.group_id, de.section_id,
	       e.name, e.display_names, e.category, e.rep_unit,
	       g.group_type, g.label, g.notes, g.rest_seconds,
	       sec.label, sec.notes
	FROM program_day_exercises de
	JOIN exercises e ON e.id = de.exercise_id
	LEFT JOIN program_exercise_groups g ON g.id = de.group_id
	LEFT JOIN program_sections sec ON sec.id = de.section_id`

// QueryDayExercises returns the fully joined, flat exercise list of one day,
// ordered by sort position. Group and section context is denormalized onto
// each row, so renderers need no further shaping.
func (s *Store) QueryDayExercises(ctx context.Context, dayID uuid.UUID) ([]models.DayExerciseDetail, error) {
	rows, err := s.q.Query(ctx,
		dayExerciseDetailQuery+`
		 WHERE de.day_id = $1
		 ORDER BY de.sort_order`,
		dayID)
	if err != nil {
		return nil, fmt.Errorf("querying day exercises: %w", err)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanDayExerciseDetail(row scanner) (*models.DayExerciseDetail, error) {
	var d models.DayExerciseDetail
	var displayNames map[string]string
	err := row.Scan(&d.ID, &d.DayID, &d.ExerciseID, &d.TargetSets, &d.TargetReps,
		&d.TargetRepsPerSet, &d.TargetWeight, &d.TargetWeightPerSet,
		&d.TargetRPE, &d.RestSeconds, &d.Notes, &d.SortOrder,
		&d.GroupID, &d.SectionID,
		&d.ExerciseName, &displayNames, &d.Category, &d.RepUnit,
		&d.GroupType, &d.GroupLabel, &d.GroupNotes, &d.GroupRestSeconds,
		&d.SectionLabel, &d.SectionNotes)
	if err != nil {
		return nil, fmt.Errorf("scanning day exercise: %w", err)
	}
	d.DisplayName = d.ExerciseName
	if n, ok := displayNames["en"]; ok && n != "" {
		d.DisplayName = n
	}
	return &d, nil
}
