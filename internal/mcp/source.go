package mcp

import (
	"context"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// ProgramSource abstracts the program service for MCP tools, so tool handlers
// can be tested against a fake without a database.
type ProgramSource interface {
	Create(ctx context.Context, userID int, req program.CreateRequest) (*program.Result, error)
	Patch(ctx context.Context, userID int, programID uuid.UUID, req program.PatchRequest) (*program.Result, error)
	Clone(ctx context.Context, userID int, sourceID uuid.UUID, newName string) (*program.Result, error)
	Activate(ctx context.Context, userID int, programID uuid.UUID) error
	List(ctx context.Context, userID int) ([]models.ProgramRow, error)
	Get(ctx context.Context, userID int, programID uuid.UUID, version *int) (*models.ProgramDetail, error)
	PatchDay(ctx context.Context, userID int, ref program.DayRef, patch storage.DayPatch) (*models.DayRow, error)
	PatchExercise(ctx context.Context, userID int, ref program.ExerciseRef, patch storage.DayExercisePatch) (*models.DayExerciseDetail, error)
	AddExercise(ctx context.Context, userID int, ref program.DayRef, solo models.SoloInput) (*models.DayExerciseRow, *storage.Resolved, error)
	RemoveExercise(ctx context.Context, userID int, ref program.ExerciseRef) error
}

// CatalogSource covers the exercise catalog operations the tools need.
type CatalogSource interface {
	ResolveExercise(ctx context.Context, req storage.ResolveRequest) (*storage.Resolved, error)
	ListExercises(ctx context.Context, userID int) ([]models.ExerciseRow, error)
	GetExercise(ctx context.Context, id uuid.UUID, userID int) (*models.ExerciseRow, error)
	CreateAlias(ctx context.Context, exerciseID uuid.UUID, alias string) (*models.ExerciseAliasRow, error)
	ActiveProgram(ctx context.Context, userID int) (*models.ProgramRow, error)
}

// Compile-time checks against the concrete implementations.
var (
	_ ProgramSource = (*program.Service)(nil)
	_ CatalogSource = (*storage.DB)(nil)
)
