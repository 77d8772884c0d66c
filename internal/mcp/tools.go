package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const daysParamDescription = "JSON array of days. Each day: {\"day_label\": \"Day A\", \"weekdays\": [1,4], \"exercises\": [...]}. An exercises entry is a plain exercise {\"exercise\": \"Bench Press\", \"sets\": 3, \"reps\": 8 or [8,8,6], \"weight\": 80 or [80,80,85], \"rpe\": 8, \"rest_seconds\": 180, \"notes\": \"...\"}, a group {\"group_type\": \"superset\"|\"paired\"|\"circuit\",\"label\": \"...\", \"rest_seconds\": 120, \"exercises\": [plain exercises]}, or a section {\"section\": \"Warmup\", \"exercises\": [...]}."

func parseDays(s string) ([]models.DayInput, error) {
	var days []models.DayInput
	if err := json.Unmarshal([]byte(s), &days); err != nil {
		return nil, fmt.Errorf("parsing days: %w", err)
	}
	return days, nil
}

// optUUID parses an optional UUID-valued string parameter.
func optUUID(req mcp.CallToolRequest, key string) (*uuid.UUID, error) {
	s := req.GetString(key, "")
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &id, nil
}

func optString(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func optInt(args map[string]any, key string) *int {
	if v, ok := args[key].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}

func optFloat(args map[string]any, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}

// dayRefFromRequest assembles a day reference from day_id / program_id /
// day_label parameters.
func dayRefFromRequest(req mcp.CallToolRequest) (program.DayRef, error) {
	dayID, err := optUUID(req, "day_id")
	if err != nil {
		return program.DayRef{}, err
	}
	programID, err := optUUID(req, "program_id")
	if err != nil {
		return program.DayRef{}, err
	}
	return program.DayRef{
		DayID:     dayID,
		ProgramID: programID,
		DayLabel:  req.GetString("day_label", ""),
	}, nil
}

func exerciseRefFromRequest(req mcp.CallToolRequest) (program.ExerciseRef, error) {
	rowID, err := optUUID(req, "row_id")
	if err != nil {
		return program.ExerciseRef{}, err
	}
	programID, err := optUUID(req, "program_id")
	if err != nil {
		return program.ExerciseRef{}, err
	}
	return program.ExerciseRef{
		RowID:     rowID,
		ProgramID: programID,
		DayLabel:  req.GetString("day_label", ""),
		Exercise:  req.GetString("exercise", ""),
	}, nil
}

// toolError maps service errors to tool results. Ambiguous matches carry the
// candidate list so the client can retry with an exact row id.
func (h *handlers) toolError(op string, err error) *mcp.CallToolResult {
	var ambiguous *storage.AmbiguousError
	if errors.As(err, &ambiguous) {
		if data, jerr := json.Marshal(ambiguous.Candidates); jerr == nil {
			return mcp.NewToolResultError(fmt.Sprintf("%q matches more than one exercise row; retry with row_id. Candidates: %s", ambiguous.Target, data))
		}
	}
	if errors.Is(err, storage.ErrValidation) || errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrConflict) {
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+op, "error", err)
	return mcp.NewToolResultError(op + " failed: " + err.Error())
}

// --- Tool definitions ---

var toolCreateProgram = mcp.NewTool("create_program",
	mcp.WithDescription("Create a new workout program as version 1. Unknown exercise names are added to the user's catalog automatically. The new program becomes the active one."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Program name, unique per user (case-insensitive)")),
	mcp.WithString("description", mcp.Description("Optional program description")),
	mcp.WithString("change_note", mcp.Description("Optional note recorded on version 1")),
	mcp.WithString("days", mcp.Required(), mcp.Description(daysParamDescription)),
)

var toolPatchProgram = mcp.NewTool("patch_program",
	mcp.WithDescription("Update a program. With 'days' set, the full structure is replaced and a new immutable version is appended; without it only name/description change and the version stays put."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program UUID")),
	mcp.WithString("name", mcp.Description("New program name")),
	mcp.WithString("description", mcp.Description("New description")),
	mcp.WithString("change_note", mcp.Description("Note recorded on the new version")),
	mcp.WithString("days", mcp.Description(daysParamDescription)),
)

var toolCloneProgram = mcp.NewTool("clone_program",
	mcp.WithDescription("Copy a program's latest version into a new program owned by the user. Works on shared templates too. The clone starts at version 1 and is not active."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Source program UUID")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new program")),
)

var toolActivateProgram = mcp.NewTool("activate_program",
	mcp.WithDescription("Mark a program as the user's single active program, deactivating any other."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program UUID")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List the user's programs plus shared templates."),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Fetch a program with its days and exercises fully expanded, including group and section context per row."),
	mcp.WithString("program_id", mcp.Description("Program UUID. Defaults to the active program.")),
	mcp.WithNumber("version", mcp.Description("Version number to read. Defaults to the latest.")),
)

var toolPatchDay = mcp.NewTool("patch_day",
	mcp.WithDescription("Rename a day or change its weekdays in place, without creating a new version. Locate the day by day_id, or by day_label on a program (active program when program_id is omitted)."),
	mcp.WithString("day_id", mcp.Description("Day UUID")),
	mcp.WithString("program_id", mcp.Description("Program UUID, used with day_label")),
	mcp.WithString("day_label", mcp.Description("Day label, e.g. 'Day A'")),
	mcp.WithString("label", mcp.Description("New day label")),
	mcp.WithString("weekdays", mcp.Description("New weekdays as a JSON array, Monday=1 (e.g. [1,3,5])")),
)

var toolPatchExercise = mcp.NewTool("patch_exercise",
	mcp.WithDescription("Edit a single programmed exercise in place. Locate it by row_id, or by day_label plus exercise name; an ambiguous name returns the candidate rows instead of guessing."),
	mcp.WithString("row_id", mcp.Description("Exercise row UUID")),
	mcp.WithString("program_id", mcp.Description("Program UUID, used with day_label")),
	mcp.WithString("day_label", mcp.Description("Day label")),
	mcp.WithString("exercise", mcp.Description("Exercise name or alias")),
	mcp.WithNumber("sets", mcp.Description("New set count")),
	mcp.WithString("reps", mcp.Description("New rep target: a number or a JSON array per set (e.g. 8 or [8,8,6])")),
	mcp.WithString("weight", mcp.Description("New weight target: a number or a JSON array per set")),
	mcp.WithNumber("rpe", mcp.Description("New target RPE")),
	mcp.WithNumber("rest_seconds", mcp.Description("New rest in seconds. Ignored for grouped exercises, which rest at the group level.")),
	mcp.WithString("notes", mcp.Description("New notes")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Append one exercise to the end of a day without creating a new version."),
	mcp.WithString("day_id", mcp.Description("Day UUID")),
	mcp.WithString("program_id", mcp.Description("Program UUID, used with day_label")),
	mcp.WithString("day_label", mcp.Description("Day label")),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise as JSON: {\"exercise\": \"Face Pull\", \"sets\": 3, \"reps\": 15, ...}")),
)

var toolRemoveExercise = mcp.NewTool("remove_exercise",
	mcp.WithDescription("Remove one programmed exercise from a day. A group left with a single member is dissolved into a plain exercise."),
	mcp.WithString("row_id", mcp.Description("Exercise row UUID")),
	mcp.WithString("program_id", mcp.Description("Program UUID, used with day_label")),
	mcp.WithString("day_label", mcp.Description("Day label")),
	mcp.WithString("exercise", mcp.Description("Exercise name or alias")),
)

var toolResolveExercise = mcp.NewTool("resolve_exercise",
	mcp.WithDescription("Resolve a free-text exercise name against the catalog, tolerating whitespace, case, and known aliases. Unknown names create a new user-owned catalog entry."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name as typed")),
	mcp.WithString("muscle_group", mcp.Description("Hint recorded when a new entry is created")),
	mcp.WithString("equipment", mcp.Description("Hint recorded when a new entry is created")),
	mcp.WithString("rep_unit", mcp.Description("How the exercise is counted"), mcp.Enum("reps", "seconds", "meters", "calories")),
	mcp.WithString("category", mcp.Description("Exercise category"), mcp.Enum("strength", "mobility", "cardio", "warmup")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all exercises visible to the user: the shared catalog plus their own additions."),
)

var toolAddExerciseAlias = mcp.NewTool("add_exercise_alias",
	mcp.WithDescription("Register an alternative name for an exercise so future lookups resolve it."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID")),
	mcp.WithString("alias", mcp.Required(), mcp.Description("The alternative name")),
)

// --- Tool handlers ---

func (h *handlers) createProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	daysJSON, err := req.RequireString("days")
	if err != nil {
		return mcp.NewToolResultError("days parameter is required"), nil
	}
	days, err := parseDays(daysJSON)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	result, err := h.svc.Create(ctx, UserIDFromContext(ctx), program.CreateRequest{
		Name:        name,
		Description: optString(args, "description"),
		ChangeNote:  optString(args, "change_note"),
		Days:        days,
	})
	if err != nil {
		return h.toolError("create_program", err), nil
	}

	out, err := mcp.NewToolResultJSON(result)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) patchProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid program_id"), nil
	}

	args := req.GetArguments()
	patch := program.PatchRequest{
		Name:        optString(args, "name"),
		Description: optString(args, "description"),
		ChangeNote:  optString(args, "change_note"),
	}
	if daysJSON := req.GetString("days", ""); daysJSON != "" {
		patch.Days, err = parseDays(daysJSON)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := h.svc.Patch(ctx, UserIDFromContext(ctx), id, patch)
	if err != nil {
		return h.toolError("patch_program", err), nil
	}

	out, err := mcp.NewToolResultJSON(result)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) cloneProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid program_id"), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	result, err := h.svc.Clone(ctx, UserIDFromContext(ctx), id, name)
	if err != nil {
		return h.toolError("clone_program", err), nil
	}

	out, err := mcp.NewToolResultJSON(result)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) activateProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid program_id"), nil
	}

	if err := h.svc.Activate(ctx, UserIDFromContext(ctx), id); err != nil {
		return h.toolError("activate_program", err), nil
	}
	return mcp.NewToolResultText("activated"), nil
}

func (h *handlers) listPrograms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.svc.List(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("list_programs", err), nil
	}

	out, err := mcp.NewToolResultJSON(programs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	id, err := optUUID(req, "program_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if id == nil {
		active, err := h.catalog.ActiveProgram(ctx, uid)
		if err != nil {
			return h.toolError("get_program", err), nil
		}
		id = &active.ID
	}

	var version *int
	if v := optInt(req.GetArguments(), "version"); v != nil {
		version = v
	}

	detail, err := h.svc.Get(ctx, uid, *id, version)
	if err != nil {
		return h.toolError("get_program", err), nil
	}

	out, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) patchDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := dayRefFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	patch := storage.DayPatch{Label: optString(args, "label")}
	if wd := req.GetString("weekdays", ""); wd != "" {
		var weekdays []int
		if err := json.Unmarshal([]byte(wd), &weekdays); err != nil {
			return mcp.NewToolResultError("invalid weekdays: " + err.Error()), nil
		}
		patch.Weekdays = &weekdays
	}

	day, err := h.svc.PatchDay(ctx, UserIDFromContext(ctx), ref, patch)
	if err != nil {
		return h.toolError("patch_day", err), nil
	}

	out, err := mcp.NewToolResultJSON(day)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) patchExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := exerciseRefFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	patch := storage.DayExercisePatch{
		TargetSets:  optInt(args, "sets"),
		TargetRPE:   optFloat(args, "rpe"),
		RestSeconds: optInt(args, "rest_seconds"),
		Notes:       optString(args, "notes"),
	}
	if s := req.GetString("reps", ""); s != "" {
		var reps models.FlexInts
		if err := json.Unmarshal([]byte(s), &reps); err != nil {
			return mcp.NewToolResultError("invalid reps: " + err.Error()), nil
		}
		patch.Reps = &reps
	}
	if s := req.GetString("weight", ""); s != "" {
		var weight models.FlexFloat
		if err := json.Unmarshal([]byte(s), &weight); err != nil {
			return mcp.NewToolResultError("invalid weight: " + err.Error()), nil
		}
		patch.Weight = &weight
	}

	row, err := h.svc.PatchExercise(ctx, UserIDFromContext(ctx), ref, patch)
	if err != nil {
		return h.toolError("patch_exercise", err), nil
	}

	out, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := dayRefFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exerciseJSON, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	var solo models.SoloInput
	if err := json.Unmarshal([]byte(exerciseJSON), &solo); err != nil {
		return mcp.NewToolResultError("invalid exercise: " + err.Error()), nil
	}

	row, resolved, err := h.svc.AddExercise(ctx, UserIDFromContext(ctx), ref, solo)
	if err != nil {
		return h.toolError("add_exercise", err), nil
	}

	out, err := mcp.NewToolResultJSON(map[string]any{"row": row, "resolved": resolved})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) removeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := exerciseRefFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := h.svc.RemoveExercise(ctx, UserIDFromContext(ctx), ref); err != nil {
		return h.toolError("remove_exercise", err), nil
	}
	return mcp.NewToolResultText("removed"), nil
}

func (h *handlers) resolveExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	args := req.GetArguments()
	resolved, err := h.catalog.ResolveExercise(ctx, storage.ResolveRequest{
		Name:        name,
		UserID:      UserIDFromContext(ctx),
		MuscleGroup: optString(args, "muscle_group"),
		Equipment:   optString(args, "equipment"),
		RepUnit:     optString(args, "rep_unit"),
		Category:    optString(args, "category"),
	})
	if err != nil {
		return h.toolError("resolve_exercise", err), nil
	}

	out, err := mcp.NewToolResultJSON(resolved)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.catalog.ListExercises(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.toolError("list_exercises", err), nil
	}

	out, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}

func (h *handlers) addExerciseAlias(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_id"), nil
	}
	alias, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError("alias parameter is required"), nil
	}

	if _, err := h.catalog.GetExercise(ctx, id, UserIDFromContext(ctx)); err != nil {
		return h.toolError("add_exercise_alias", err), nil
	}

	created, err := h.catalog.CreateAlias(ctx, id, alias)
	if err != nil {
		return h.toolError("add_exercise_alias", err), nil
	}

	out, err := mcp.NewToolResultJSON(created)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return out, nil
}
