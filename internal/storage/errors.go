package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates a program, day or exercise reference that does
	// not resolve. Nothing is written when it is returned.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate that is surfaced to the caller,
	// e.g. a program name already taken by the same owner.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates caller input rejected before any write.
	ErrValidation = errors.New("validation")
)

// NotFoundError tags an error as a missing reference.
func NotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// ConflictError tags an error as a user-facing duplicate.
func ConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// ValidationError tags an error as rejected input.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. This is the storage-boundary name for the one race the system
// deliberately recovers from: concurrent first-use exercise creation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Candidate describes one row matching an ambiguous point-edit target, with
// enough context for the caller to retry with an explicit row id.
type Candidate struct {
	RowID        uuid.UUID `json:"row_id"`
	Exercise     string    `json:"exercise"`
	Position     int       `json:"position"`
	GroupType    *string   `json:"group_type,omitempty"`
	GroupLabel   *string   `json:"group_label,omitempty"`
	SectionLabel *string   `json:"section_label,omitempty"`
}

// AmbiguousError is returned when a point-edit target matches more than one
// row. It is a structured outcome rather than a failure: no row is modified
// and the candidates are handed back for precise retry.
type AmbiguousError struct {
	Target     string      `json:"target"`
	Candidates []Candidate `json:"candidates"`
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d rows; retry with an explicit row id", e.Target, len(e.Candidates))
}
