package models

import (
	"time"

	"github.com/google/uuid"
)

// Rep units for catalog exercises.
const (
	RepUnitReps     = "reps"
	RepUnitSeconds  = "seconds"
	RepUnitMeters   = "meters"
	RepUnitCalories = "calories"
)

// Exercise categories.
const (
	CategoryStrength = "strength"
	CategoryMobility = "mobility"
	CategoryCardio   = "cardio"
	CategoryWarmup   = "warmup"
)

// Group types.
const (
	GroupSuperset = "superset"
	GroupPaired   = "paired"
	GroupCircuit  = "circuit"
)

// ValidRepUnit reports whether u is a known rep unit.
func ValidRepUnit(u string) bool {
	switch u {
	case RepUnitReps, RepUnitSeconds, RepUnitMeters, RepUnitCalories:
		return true
	}
	return false
}

// ValidCategory reports whether c is a known exercise category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryStrength, CategoryMobility, CategoryCardio, CategoryWarmup:
		return true
	}
	return false
}

// ValidGroupType reports whether t is a known group type.
func ValidGroupType(t string) bool {
	switch t {
	case GroupSuperset, GroupPaired, GroupCircuit:
		return true
	}
	return false
}

// ExerciseRow is a row in the exercises table. UserID nil means the entry is
// global (shared across users); an owned entry with the same name shadows it.
type ExerciseRow struct {
	ID           uuid.UUID         `json:"id"`
	UserID       *int              `json:"user_id,omitempty"`
	Name         string            `json:"name"`
	DisplayNames map[string]string `json:"display_names,omitempty"`
	MuscleGroup  *string           `json:"muscle_group,omitempty"`
	Equipment    *string           `json:"equipment,omitempty"`
	RepUnit      string            `json:"rep_unit"`
	Category     string            `json:"category"`
	CreatedAt    time.Time         `json:"created_at"`
}

// DisplayName returns the localized name for lang, falling back to the
// canonical name.
func (e *ExerciseRow) DisplayName(lang string) string {
	if n, ok := e.DisplayNames[lang]; ok && n != "" {
		return n
	}
	return e.Name
}

// ExerciseAliasRow is a row in the exercise_aliases table.
type ExerciseAliasRow struct {
	ID         uuid.UUID `json:"id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	Alias      string    `json:"alias"`
}

// ProgramRow is a row in the programs table. UserID nil means the program is
// a shared template available to everyone for cloning.
type ProgramRow struct {
	ID          uuid.UUID `json:"id"`
	UserID      *int      `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsValidated bool      `json:"is_validated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProgramVersionRow is a row in the program_versions table. Versions are
// append-only: once written, a version and everything under it never changes.
type ProgramVersionRow struct {
	ID         uuid.UUID `json:"id"`
	ProgramID  uuid.UUID `json:"program_id"`
	Version    int       `json:"version"`
	ChangeNote *string   `json:"change_note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DayRow is a row in the program_days table.
type DayRow struct {
	ID        uuid.UUID `json:"id"`
	VersionID uuid.UUID `json:"version_id"`
	Label     string    `json:"label"`
	Weekdays  []int     `json:"weekdays,omitempty"`
	SortOrder int       `json:"sort_order"`
}

// SectionRow is a row in the program_sections table.
type SectionRow struct {
	ID        uuid.UUID `json:"id"`
	DayID     uuid.UUID `json:"day_id"`
	Label     string    `json:"label"`
	Notes     *string   `json:"notes,omitempty"`
	SortOrder int       `json:"sort_order"`
}

// GroupRow is a row in the program_exercise_groups table. RestSeconds on the
// group is authoritative for all member exercises.
type GroupRow struct {
	ID          uuid.UUID `json:"id"`
	DayID       uuid.UUID `json:"day_id"`
	GroupType   string    `json:"group_type"`
	Label       *string   `json:"label,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	RestSeconds *int      `json:"rest_seconds,omitempty"`
}

// DayExerciseRow is a row in the program_day_exercises table. TargetReps and
// TargetWeight hold the scalar representative (the first per-set value); the
// *PerSet arrays are only set when the caller supplied explicit per-set
// targets. RestSeconds is always nil for rows that belong to a group.
type DayExerciseRow struct {
	ID                 uuid.UUID  `json:"id"`
	DayID              uuid.UUID  `json:"day_id"`
	ExerciseID         uuid.UUID  `json:"exercise_id"`
	TargetSets         int        `json:"target_sets"`
	TargetReps         int        `json:"target_reps"`
	TargetRepsPerSet   []int      `json:"target_reps_per_set,omitempty"`
	TargetWeight       *float64   `json:"target_weight,omitempty"`
	TargetWeightPerSet []float64  `json:"target_weight_per_set,omitempty"`
	TargetRPE          *float64   `json:"target_rpe,omitempty"`
	RestSeconds        *int       `json:"rest_seconds,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	SortOrder          int        `json:"sort_order"`
	GroupID            *uuid.UUID `json:"group_id,omitempty"`
	SectionID          *uuid.UUID `json:"section_id,omitempty"`
}

// DayExerciseDetail is the read-side shape consumed by renderers: one flat row
// per exercise with group and section context denormalized on.
type DayExerciseDetail struct {
	DayExerciseRow
	ExerciseName     string  `json:"exercise"`
	DisplayName      string  `json:"display_name"`
	Category         string  `json:"category"`
	RepUnit          string  `json:"rep_unit"`
	GroupType        *string `json:"group_type,omitempty"`
	GroupLabel       *string `json:"group_label,omitempty"`
	GroupNotes       *string `json:"group_notes,omitempty"`
	GroupRestSeconds *int    `json:"group_rest_seconds,omitempty"`
	SectionLabel     *string `json:"section_label,omitempty"`
	SectionNotes     *string `json:"section_notes,omitempty"`
}

// DayDetail is one day of a version with its exercises in sort order.
type DayDetail struct {
	DayRow
	Exercises []DayExerciseDetail `json:"exercises"`
}

// ProgramDetail is a program joined with one of its versions.
type ProgramDetail struct {
	ProgramRow
	Version    int         `json:"version"`
	ChangeNote *string     `json:"change_note,omitempty"`
	Days       []DayDetail `json:"days"`
}
