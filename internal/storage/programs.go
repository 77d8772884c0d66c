package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const programColumns = `id, user_id, name, description, is_active, is_validated, created_at, updated_at`

// InsertProgram inserts a program row. A same-named program for the same
// owner surfaces as a Conflict.
func (s *Store) InsertProgram(ctx context.Context, p *models.ProgramRow) error {
	err := s.q.QueryRow(ctx,
		`INSERT INTO programs (id, user_id, name, description, is_active, is_validated)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Name, p.Description, p.IsActive, p.IsValidated).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ConflictError("program named %q already exists", p.Name)
		}
		return fmt.Errorf("inserting program: %w", err)
	}
	return nil
}

// ProgramNameTaken reports whether the owner already has a program with this
// name, case-insensitively.
func (s *Store) ProgramNameTaken(ctx context.Context, userID int, name string) (bool, error) {
	var taken bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM programs WHERE user_id = $1 AND lower(name) = lower($2))`,
		userID, name).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("checking program name: %w", err)
	}
	return taken, nil
}

// GetProgram retrieves a program the caller may read: their own or a shared
// template.
func (s *Store) GetProgram(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+programColumns+`
		 FROM programs
		 WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)`,
		id, userID)
	return scanProgram(row)
}

// GetOwnedProgram retrieves a program the caller may modify.
func (s *Store) GetOwnedProgram(ctx context.Context, id uuid.UUID, userID int) (*models.ProgramRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+programColumns+`
		 FROM programs
		 WHERE id = $1 AND user_id = $2`,
		id, userID)
	return scanProgram(row)
}

// GetProgramByName retrieves an owned program by case-insensitive name.
func (s *Store) GetProgramByName(ctx context.Context, userID int, name string) (*models.ProgramRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+programColumns+`
		 FROM programs
		 WHERE user_id = $1 AND lower(name) = lower($2)`,
		userID, name)
	return scanProgram(row)
}

// ActiveProgram returns the caller's active program, or NotFound.
func (s *Store) ActiveProgram(ctx context.Context, userID int) (*models.ProgramRow, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+programColumns+`
		 FROM programs
		 WHERE user_id = $1 AND is_active`,
		userID)
	p, err := scanProgram(row)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NotFoundError("no active program")
	}
	return p, nil
}

// ListPrograms returns the caller's programs plus shared templates, owned
// first, active first within those.
func (s *Store) ListPrograms(ctx context.Context, userID int) ([]models.ProgramRow, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+programColumns+`
		 FROM programs
		 WHERE user_id = $1 OR user_id IS NULL
		 ORDER BY user_id NULLS LAST, is_active DESC, lower(name)`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramRow
	for rows.Next() {
		var p models.ProgramRow
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsActive,
			&p.IsValidated, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdateProgramMeta applies a sparse metadata patch (name, description) to
// the program row in place. The version number does not change.
func (s *Store) UpdateProgramMeta(ctx context.Context, id uuid.UUID, name *string, description *string) error {
	var sets []fieldValue
	if name != nil {
		sets = append(sets, fieldValue{"name", *name})
	}
	if description != nil {
		sets = append(sets, fieldValue{"description", *description})
	}
	if len(sets) == 0 {
		return ValidationError("no fields to update")
	}
	if err := s.sparseUpdate(ctx, "programs", id, sets); err != nil {
		if IsUniqueViolation(err) {
			if name != nil {
				return ConflictError("program named %q already exists", *name)
			}
			return ConflictError("program metadata conflict")
		}
		return err
	}
	_, err := s.q.Exec(ctx, `UPDATE programs SET updated_at = now() WHERE id = $1`, id)
	return err
}

// ActivateProgram makes exactly the given program active for the owner in a
// single statement: every row's active flag becomes (id = target).
func (s *Store) ActivateProgram(ctx context.Context, userID int, programID uuid.UUID) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE programs SET is_active = (id = $1) WHERE user_id = $2`,
		programID, userID)
	if err != nil {
		return fmt.Errorf("activating program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError("program %s", programID)
	}
	return nil
}

// DeactivatePrograms clears the active flag on all of the owner's programs.
// Used before inserting a new program that starts active.
func (s *Store) DeactivatePrograms(ctx context.Context, userID int) error {
	_, err := s.q.Exec(ctx,
		`UPDATE programs SET is_active = FALSE WHERE user_id = $1 AND is_active`,
		userID)
	if err != nil {
		return fmt.Errorf("deactivating programs: %w", err)
	}
	return nil
}

// InsertVersion appends a new immutable version row.
func (s *Store) InsertVersion(ctx context.Context, v *models.ProgramVersionRow) error {
	err := s.q.QueryRow(ctx,
		`INSERT INTO program_versions (id, program_id, version, change_note)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		v.ID, v.ProgramID, v.Version, v.ChangeNote).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting version %d: %w", v.Version, err)
	}
	return nil
}

// LatestVersion returns the highest version row for a program.
func (s *Store) LatestVersion(ctx context.Context, programID uuid.UUID) (*models.ProgramVersionRow, error) {
	var v models.ProgramVersionRow
	err := s.q.QueryRow(ctx,
		`SELECT id, program_id, version, change_note, created_at
		 FROM program_versions
		 WHERE program_id = $1
		 ORDER BY version DESC
		 LIMIT 1`,
		programID).Scan(&v.ID, &v.ProgramID, &v.Version, &v.ChangeNote, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundError("program %s has no versions", programID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest version: %w", err)
	}
	return &v, nil
}

// GetVersion returns one specific version of a program.
func (s *Store) GetVersion(ctx context.Context, programID uuid.UUID, version int) (*models.ProgramVersionRow, error) {
	var v models.ProgramVersionRow
	err := s.q.QueryRow(ctx,
		`SELECT id, program_id, version, change_note, created_at
		 FROM program_versions
		 WHERE program_id = $1 AND version = $2`,
		programID, version).Scan(&v.ID, &v.ProgramID, &v.Version, &v.ChangeNote, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundError("program %s version %d", programID, version)
	}
	if err != nil {
		return nil, fmt.Errorf("querying version: %w", err)
	}
	return &v, nil
}

func scanProgram(row pgx.Row) (*models.ProgramRow, error) {
	var p models.ProgramRow
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsActive,
		&p.IsValidated, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning program: %w", err)
	}
	return &p, nil
}
