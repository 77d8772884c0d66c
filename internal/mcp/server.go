package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(svc ProgramSource, catalog CatalogSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftPlan workout program server. Create and edit versioned training programs, look up exercises by name or alias, and make targeted edits to individual days and exercises. All data is scoped to the authenticated user."),
	)

	h := &handlers{svc: svc, catalog: catalog, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolCreateProgram, Handler: h.createProgram},
		server.ServerTool{Tool: toolPatchProgram, Handler: h.patchProgram},
		server.ServerTool{Tool: toolCloneProgram, Handler: h.cloneProgram},
		server.ServerTool{Tool: toolActivateProgram, Handler: h.activateProgram},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolPatchDay, Handler: h.patchDay},
		server.ServerTool{Tool: toolPatchExercise, Handler: h.patchExercise},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolRemoveExercise, Handler: h.removeExercise},
		server.ServerTool{Tool: toolResolveExercise, Handler: h.resolveExercise},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolAddExerciseAlias, Handler: h.addExerciseAlias},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveProgram, Handler: h.activeProgram},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc     ProgramSource
	catalog CatalogSource
	log     *slog.Logger
}

// --- Resource definitions ---

var resActiveProgram = mcp.NewResource(
	"liftplan://active_program",
	"Active Program",
	mcp.WithResourceDescription("The user's currently active program with its latest version fully expanded"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"liftplan://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises visible to the user: shared catalog entries plus their own additions"),
	mcp.WithMIMEType("application/json"),
)
