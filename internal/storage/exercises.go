package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const exerciseColumns = `id, user_id, name, display_names, muscle_group, equipment, rep_unit, category, created_at`

// ResolveRequest is one free-text name to resolve against the catalog,
// scoped to owned-by-caller-or-global. Metadata hints are backfilled into an
// owned winner's unset fields, or used as defaults on auto-create.
type ResolveRequest struct {
	Name        string
	UserID      int
	MuscleGroup *string
	Equipment   *string
	RepUnit     *string
	Category    *string
}

// Resolved is the outcome of resolving one name.
type Resolved struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Category    string    `json:"category"`
	Created     bool      `json:"created"`
}

// ResolveExercise maps free text to a catalog identity: exact name, then
// alias, then partial match, each preferring an entry owned by the caller
// over a global one. An unmatched name auto-creates an owned entry; losing
// the creation race to a concurrent caller falls back to re-reading the
// winner, so two first-use resolutions of the same name converge on one row.
func (s *Store) ResolveExercise(ctx context.Context, req ResolveRequest) (*Resolved, error) {
	name := NormalizeName(req.Name)
	if name == "" {
		return nil, ValidationError("exercise name is empty")
	}
	if req.RepUnit != nil && !models.ValidRepUnit(*req.RepUnit) {
		return nil, ValidationError("unknown rep unit %q", *req.RepUnit)
	}
	if req.Category != nil && !models.ValidCategory(*req.Category) {
		return nil, ValidationError("unknown category %q", *req.Category)
	}

	entry, err := s.lookupExercise(ctx, name, req.UserID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if err := s.backfillMetadata(ctx, entry, req); err != nil {
			return nil, err
		}
		return resolvedFrom(entry, false), nil
	}

	entry, err = s.createExercise(ctx, name, req)
	if err == nil {
		return resolvedFrom(entry, true), nil
	}
	if !IsUniqueViolation(err) {
		return nil, err
	}

	// A concurrent caller created the same name first. The unique index on
	// (owner, lowered name) guarantees exactly one row exists now; return it.
	entry, err = s.exactMatch(ctx, name, req.UserID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("exercise %q vanished after unique violation", name)
	}
	return resolvedFrom(entry, false), nil
}

// lookupExercise runs the three match steps in order.
func (s *Store) lookupExercise(ctx context.Context, name string, userID int) (*models.ExerciseRow, error) {
	entry, err := s.exactMatch(ctx, name, userID)
	if err != nil || entry != nil {
		return entry, err
	}
	entry, err = s.aliasMatch(ctx, name, userID)
	if err != nil || entry != nil {
		return entry, err
	}
	return s.partialMatch(ctx, name, userID)
}

func (s *Store) exactMatch(ctx context.Context, name string, userID int) (*models.ExerciseRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE lower(name) = lower($1) AND (user_id = $2 OR user_id IS NULL)
		 ORDER BY user_id NULLS LAST
		 LIMIT 1`,
		name, userID)
	return scanExercise(row)
}

func (s *Store) aliasMatch(ctx context.Context, name string, userID int) (*models.ExerciseRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT e.id, e.user_id, e.name, e.display_names, e.muscle_group, e.equipment, e.rep_unit, e.category, e.created_at
		 FROM exercise_aliases a
		 JOIN exercises e ON e.id = a.exercise_id
		 WHERE lower(a.alias) = lower($1) AND (e.user_id = $2 OR e.user_id IS NULL)
		 ORDER BY e.user_id NULLS LAST
		 LIMIT 1`,
		name, userID)
	return scanExercise(row)
}

func (s *Store) partialMatch(ctx context.Context, name string, userID int) (*models.ExerciseRow, error) {
	pattern := "%" + EscapeLike(name) + "%"
	row := s.q.QueryRow(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises e
		 WHERE (e.user_id = $2 OR e.user_id IS NULL)
		   AND (e.name ILIKE $1 ESCAPE '\'
		        OR EXISTS (SELECT 1 FROM exercise_aliases a
		                   WHERE a.exercise_id = e.id AND a.alias ILIKE $1 ESCAPE '\'))
		 ORDER BY e.user_id NULLS LAST, length(e.name), e.name
		 LIMIT 1`,
		pattern, userID)
	return scanExercise(row)
}

func (s *Store) createExercise(ctx context.Context, name string, req ResolveRequest) (*models.ExerciseRow, error) {
	repUnit := models.RepUnitReps
	if req.RepUnit != nil {
		repUnit = *req.RepUnit
	}
	category := models.CategoryStrength
	if req.Category != nil {
		category = *req.Category
	}
	row := s.q.QueryRow(ctx,
		`INSERT INTO exercises (id, user_id, name, muscle_group, equipment, rep_unit, category)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+exerciseColumns,
		uuid.New(), req.UserID, name, req.MuscleGroup, req.Equipment, repUnit, category)
	entry, err := scanExercise(row)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("inserting exercise %q returned no row", name)
	}
	return entry, nil
}

// backfillMetadata writes supplied hints into the winner, but only when the
// winner is owned by the caller and only into fields still at their
// default/null value. Shared rows and explicitly set fields are never touched.
func (s *Store) backfillMetadata(ctx context.Context, entry *models.ExerciseRow, req ResolveRequest) error {
	if entry.UserID == nil || *entry.UserID != req.UserID {
		return nil
	}

	var sets []fieldValue
	if req.MuscleGroup != nil && entry.MuscleGroup == nil {
		sets = append(sets, fieldValue{"muscle_group", *req.MuscleGroup})
		entry.MuscleGroup = req.MuscleGroup
	}
	if req.Equipment != nil && entry.Equipment == nil {
		sets = append(sets, fieldValue{"equipment", *req.Equipment})
		entry.Equipment = req.Equipment
	}
	if req.RepUnit != nil && entry.RepUnit == models.RepUnitReps && *req.RepUnit != entry.RepUnit {
		sets = append(sets, fieldValue{"rep_unit", *req.RepUnit})
		entry.RepUnit = *req.RepUnit
	}
	if req.Category != nil && entry.Category == models.CategoryStrength && *req.Category != entry.Category {
		sets = append(sets, fieldValue{"category", *req.Category})
		entry.Category = *req.Category
	}
	if len(sets) == 0 {
		return nil
	}
	return s.sparseUpdate(ctx, "exercises", entry.ID, sets)
}

// CreateAlias records an alternate text form for a catalog entry.
func (s *Store) CreateAlias(ctx context.Context, exerciseID uuid.UUID, alias string) (*models.ExerciseAliasRow, error) {
	alias = NormalizeName(alias)
	if alias == "" {
		return nil, ValidationError("alias is empty")
	}
	r := models.ExerciseAliasRow{ID: uuid.New(), ExerciseID: exerciseID, Alias: alias}
	_, err := s.q.Exec(ctx,
		`INSERT INTO exercise_aliases (id, exercise_id, alias) VALUES ($1, $2, $3)`,
		r.ID, r.ExerciseID, r.Alias)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ConflictError("alias %q already exists for this exercise", alias)
		}
		return nil, fmt.Errorf("inserting alias: %w", err)
	}
	return &r, nil
}

// GetExercise retrieves one catalog entry visible to the caller.
func (s *Store) GetExercise(ctx context.Context, id uuid.UUID, userID int) (*models.ExerciseRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)`,
		id, userID)
	entry, err := scanExercise(row)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, NotFoundError("exercise %s", id)
	}
	return entry, nil
}

// ListExercises returns the caller's catalog view: owned plus global entries.
func (s *Store) ListExercises(ctx context.Context, userID int) ([]models.ExerciseRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE user_id = $1 OR user_id IS NULL
		 ORDER BY lower(name), user_id NULLS LAST`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var e models.ExerciseRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.DisplayNames, &e.MuscleGroup,
			&e.Equipment, &e.RepUnit, &e.Category, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// fieldValue is one (column, value) pair of a sparse update.
type fieldValue struct {
	column string
	value  any
}

// sparseUpdate writes only the supplied pairs in one parameterized statement.
// Column names come from fixed sets in this package, never from user input.
func (s *Store) sparseUpdate(ctx context.Context, table string, id uuid.UUID, sets []fieldValue) error {
	assigns := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for i, fv := range sets {
		assigns = append(assigns, fmt.Sprintf("%s = $%d", fv.column, i+1))
		args = append(args, fv.value)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(assigns, ", "), len(args))

	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError("%s row %s", table, id)
	}
	return nil
}

// NormalizeName trims and collapses interior whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// EscapeLike escapes LIKE/ILIKE metacharacters so user text matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func resolvedFrom(e *models.ExerciseRow, created bool) *Resolved {
	return &Resolved{
		ID:          e.ID,
		Name:        e.Name,
		DisplayName: e.DisplayName("en"),
		Category:    e.Category,
		Created:     created,
	}
}

func scanExercise(row pgx.Row) (*models.ExerciseRow, error) {
	var e models.ExerciseRow
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.DisplayNames, &e.MuscleGroup,
		&e.Equipment, &e.RepUnit, &e.Category, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning exercise: %w", err)
	}
	return &e, nil
}
