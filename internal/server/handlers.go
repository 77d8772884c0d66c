package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.service.List(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req program.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	result, err := s.service.Create(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var version *int
	if v := r.URL.Query().Get("version"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid version"})
			return
		}
		version = &parsed
	}
	detail, err := s.service.Get(r.Context(), userIDFromContext(r), id, version)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePatchProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req program.PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	result, err := s.service.Patch(r.Context(), userIDFromContext(r), id, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCloneProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	result, err := s.service.Clone(r.Context(), userIDFromContext(r), id, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleActivateProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.service.Activate(r.Context(), userIDFromContext(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.db.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleResolveExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		MuscleGroup *string `json:"muscle_group,omitempty"`
		Equipment   *string `json:"equipment,omitempty"`
		RepUnit     *string `json:"rep_unit,omitempty"`
		Category    *string `json:"category,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	resolved, err := s.db.ResolveExercise(r.Context(), storage.ResolveRequest{
		Name:        req.Name,
		UserID:      userIDFromContext(r),
		MuscleGroup: req.MuscleGroup,
		Equipment:   req.Equipment,
		RepUnit:     req.RepUnit,
		Category:    req.Category,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func (s *Server) handleAddAlias(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		Alias string `json:"alias"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	// The exercise must be visible to the caller before aliasing it.
	if _, err := s.db.GetExercise(r.Context(), id, userIDFromContext(r)); err != nil {
		s.writeError(w, err)
		return
	}
	alias, err := s.db.CreateAlias(r.Context(), id, req.Alias)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alias)
}

func (s *Server) handlePatchDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		program.DayRef
		Label    *string `json:"label,omitempty"`
		Weekdays *[]int  `json:"weekdays,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	day, err := s.service.PatchDay(r.Context(), userIDFromContext(r), req.DayRef,
		storage.DayPatch{Label: req.Label, Weekdays: req.Weekdays})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		program.DayRef
		Exercise models.SoloInput `json:"exercise"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	row, resolved, err := s.service.AddExercise(r.Context(), userIDFromContext(r), req.DayRef, req.Exercise)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"row": row, "resolved": resolved})
}

func (s *Server) handlePatchExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		program.ExerciseRef
		Sets        *int              `json:"sets,omitempty"`
		Reps        *models.FlexInts  `json:"reps,omitempty"`
		Weight      *models.FlexFloat `json:"weight,omitempty"`
		RPE         *float64          `json:"rpe,omitempty"`
		RestSeconds *int              `json:"rest_seconds,omitempty"`
		Notes       *string           `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	row, err := s.service.PatchExercise(r.Context(), userIDFromContext(r), req.ExerciseRef,
		storage.DayExercisePatch{
			TargetSets:  req.Sets,
			Reps:        req.Reps,
			Weight:      req.Weight,
			TargetRPE:   req.RPE,
			RestSeconds: req.RestSeconds,
			Notes:       req.Notes,
		})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	var req program.ExerciseRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.service.RemoveExercise(r.Context(), userIDFromContext(r), req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleImportProgram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login       string                `json:"login"`
		DisplayName string                `json:"display_name"`
		Program     program.CreateRequest `json:"program"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Login == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login is required"})
		return
	}
	uid, err := s.db.GetOrCreateUser(r.Context(), req.Login, req.DisplayName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.service.Create(r.Context(), uid, req.Program)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// writeError maps the storage error taxonomy onto HTTP statuses. Ambiguous
// point-edit targets are not failures: the candidate list goes back as a
// structured payload for precise retry.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ambiguous *storage.AmbiguousError
	switch {
	case errors.As(err, &ambiguous):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "ambiguous",
			"target":     ambiguous.Target,
			"candidates": ambiguous.Candidates,
		})
	case errors.Is(err, storage.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
