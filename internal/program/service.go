package program

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// Service orchestrates whole-program operations. Every mutating operation
// runs in one transaction: it either lands completely or not at all.
type Service struct {
	db  *storage.DB
	log *slog.Logger
}

// NewService creates a program service.
func NewService(db *storage.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

// CreateRequest is the payload for creating a program.
type CreateRequest struct {
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	ChangeNote  *string           `json:"change_note,omitempty"`
	Days        []models.DayInput `json:"days"`
}

// PatchRequest is the payload for patching a program. With Days present a
// new version is appended; without, only the program row's metadata changes
// and the version number stays put.
type PatchRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	ChangeNote  *string           `json:"change_note,omitempty"`
	Days        []models.DayInput `json:"days,omitempty"`
}

// Result summarizes a structural program operation.
type Result struct {
	ProgramID        uuid.UUID `json:"program_id"`
	Name             string    `json:"name"`
	Version          int       `json:"version"`
	DaysWritten      int       `json:"days_written"`
	CreatedExercises []string  `json:"created_exercises,omitempty"`
}

// Create inserts a new program as version 1. The new program becomes the
// owner's single active program; a same-named program is a conflict.
func (s *Service) Create(ctx context.Context, userID int, req CreateRequest) (*Result, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, storage.ValidationError("program name is required")
	}
	if err := validateDays(req.Days); err != nil {
		return nil, err
	}

	var result *Result
	err := s.db.InTx(ctx, func(st *storage.Store) error {
		taken, err := st.ProgramNameTaken(ctx, userID, name)
		if err != nil {
			return err
		}
		if taken {
			return storage.ConflictError("program named %q already exists", name)
		}
		if err := st.DeactivatePrograms(ctx, userID); err != nil {
			return err
		}

		p := models.ProgramRow{
			ID:          uuid.New(),
			UserID:      &userID,
			Name:        name,
			Description: req.Description,
			IsActive:    true,
		}
		if err := st.InsertProgram(ctx, &p); err != nil {
			return err
		}

		v := models.ProgramVersionRow{
			ID:         uuid.New(),
			ProgramID:  p.ID,
			Version:    1,
			ChangeNote: req.ChangeNote,
		}
		if err := st.InsertVersion(ctx, &v); err != nil {
			return err
		}

		created, err := s.writeDays(ctx, st, v.ID, userID, req.Days)
		if err != nil {
			return err
		}
		result = &Result{
			ProgramID:        p.ID,
			Name:             p.Name,
			Version:          v.Version,
			DaysWritten:      len(req.Days),
			CreatedExercises: created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("program created", "program_id", result.ProgramID, "name", result.Name, "days", result.DaysWritten)
	return result, nil
}

// Patch edits a program. Day structure present appends a new immutable
// version; older versions' rows are never touched. Metadata-only patches
// mutate the program row in place.
func (s *Service) Patch(ctx context.Context, userID int, programID uuid.UUID, req PatchRequest) (*Result, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, storage.ValidationError("program name cannot be empty")
	}
	if err := validateDays(req.Days); err != nil {
		return nil, err
	}

	var result *Result
	err := s.db.InTx(ctx, func(st *storage.Store) error {
		prog, err := st.GetOwnedProgram(ctx, programID, userID)
		if err != nil {
			return err
		}
		if prog == nil {
			return storage.NotFoundError("program %s", programID)
		}

		if req.Name != nil || req.Description != nil {
			if err := st.UpdateProgramMeta(ctx, prog.ID, req.Name, req.Description); err != nil {
				return err
			}
			if req.Name != nil {
				prog.Name = *req.Name
			}
		}

		if len(req.Days) == 0 {
			latest, err := st.LatestVersion(ctx, prog.ID)
			if err != nil {
				return err
			}
			result = &Result{ProgramID: prog.ID, Name: prog.Name, Version: latest.Version}
			return nil
		}

		latest, err := st.LatestVersion(ctx, prog.ID)
		if err != nil {
			return err
		}
		v := models.ProgramVersionRow{
			ID:         uuid.New(),
			ProgramID:  prog.ID,
			Version:    latest.Version + 1,
			ChangeNote: req.ChangeNote,
		}
		if err := st.InsertVersion(ctx, &v); err != nil {
			return err
		}

		created, err := s.writeDays(ctx, st, v.ID, userID, req.Days)
		if err != nil {
			return err
		}
		result = &Result{
			ProgramID:        prog.ID,
			Name:             prog.Name,
			Version:          v.Version,
			DaysWritten:      len(req.Days),
			CreatedExercises: created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("program patched", "program_id", result.ProgramID, "version", result.Version)
	return result, nil
}

// Clone copies the latest version of a source program (the caller's own or
// a shared template) into a brand-new program at version 1. Section and
// group identities are remapped to fresh ids; catalog exercise references
// are shared, not duplicated.
func (s *Service) Clone(ctx context.Context, userID int, sourceID uuid.UUID, newName string) (*Result, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return nil, storage.ValidationError("new program name is required")
	}

	var result *Result
	err := s.db.InTx(ctx, func(st *storage.Store) error {
		src, err := st.GetProgram(ctx, sourceID, userID)
		if err != nil {
			return err
		}
		if src == nil {
			return storage.NotFoundError("program %s", sourceID)
		}
		taken, err := st.ProgramNameTaken(ctx, userID, name)
		if err != nil {
			return err
		}
		if taken {
			return storage.ConflictError("program named %q already exists", name)
		}

		latest, err := st.LatestVersion(ctx, src.ID)
		if err != nil {
			return err
		}
		srcDays, err := st.QueryVersionDays(ctx, latest.ID)
		if err != nil {
			return err
		}

		p := models.ProgramRow{
			ID:          uuid.New(),
			UserID:      &userID,
			Name:        name,
			Description: src.Description,
		}
		if err := st.InsertProgram(ctx, &p); err != nil {
			return err
		}
		note := fmt.Sprintf("cloned from %q", src.Name)
		v := models.ProgramVersionRow{ID: uuid.New(), ProgramID: p.ID, Version: 1, ChangeNote: &note}
		if err := st.InsertVersion(ctx, &v); err != nil {
			return err
		}

		for _, srcDay := range srcDays {
			day := models.DayRow{
				ID:        uuid.New(),
				VersionID: v.ID,
				Label:     srcDay.Label,
				Weekdays:  srcDay.Weekdays,
				SortOrder: srcDay.SortOrder,
			}
			if err := st.InsertDay(ctx, &day); err != nil {
				return err
			}
			srcRows, err := st.QueryDayExercises(ctx, srcDay.ID)
			if err != nil {
				return err
			}
			if err := writeCollected(ctx, st, remapDay(day.ID, srcRows)); err != nil {
				return err
			}
		}
		result = &Result{ProgramID: p.ID, Name: p.Name, Version: 1, DaysWritten: len(srcDays)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("program cloned", "source_id", sourceID, "program_id", result.ProgramID, "name", result.Name)
	return result, nil
}

// Activate makes the given program the owner's single active program.
func (s *Service) Activate(ctx context.Context, userID int, programID uuid.UUID) error {
	return s.db.InTx(ctx, func(st *storage.Store) error {
		prog, err := st.GetOwnedProgram(ctx, programID, userID)
		if err != nil {
			return err
		}
		if prog == nil {
			return storage.NotFoundError("program %s", programID)
		}
		return st.ActivateProgram(ctx, userID, programID)
	})
}

// List returns the caller's programs plus shared templates.
func (s *Service) List(ctx context.Context, userID int) ([]models.ProgramRow, error) {
	return s.db.ListPrograms(ctx, userID)
}

// Get returns a program with one version's full day/exercise tree; version
// nil means latest. Reads run directly against the store; there is no caching.
func (s *Service) Get(ctx context.Context, userID int, programID uuid.UUID, version *int) (*models.ProgramDetail, error) {
	prog, err := s.db.GetProgram(ctx, programID, userID)
	if err != nil {
		return nil, err
	}
	if prog == nil {
		return nil, storage.NotFoundError("program %s", programID)
	}

	var v *models.ProgramVersionRow
	if version == nil {
		v, err = s.db.LatestVersion(ctx, prog.ID)
	} else {
		v, err = s.db.GetVersion(ctx, prog.ID, *version)
	}
	if err != nil {
		return nil, err
	}

	days, err := s.db.QueryVersionDays(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	detail := &models.ProgramDetail{
		ProgramRow: *prog,
		Version:    v.Version,
		ChangeNote: v.ChangeNote,
		Days:       make([]models.DayDetail, 0, len(days)),
	}
	for _, day := range days {
		exercises, err := s.db.QueryDayExercises(ctx, day.ID)
		if err != nil {
			return nil, err
		}
		detail.Days = append(detail.Days, models.DayDetail{DayRow: day, Exercises: exercises})
	}
	return detail, nil
}

// writeDays flattens, resolves and writes each day under versionID. One
// batch resolution per day; one set-oriented exercise insert per day.
func (s *Service) writeDays(ctx context.Context, st *storage.Store, versionID uuid.UUID, userID int, days []models.DayInput) ([]string, error) {
	createdSet := make(map[string]bool)
	for i, day := range days {
		d := models.DayRow{
			ID:        uuid.New(),
			VersionID: versionID,
			Label:     day.DayLabel,
			Weekdays:  day.Weekdays,
			SortOrder: i,
		}
		if err := st.InsertDay(ctx, &d); err != nil {
			return nil, err
		}

		resolved, err := st.ResolveExercises(ctx, leafNames(day.Items), userID)
		if err != nil {
			return nil, err
		}
		collected, err := collectDay(d.ID, day.Items, resolved)
		if err != nil {
			return nil, err
		}
		if err := writeCollected(ctx, st, collected); err != nil {
			return nil, err
		}
		for _, name := range createdNames(resolved) {
			createdSet[name] = true
		}
	}

	var created []string
	for name := range createdSet {
		created = append(created, name)
	}
	return created, nil
}

// writeCollected persists one day's row set: sections and groups first so
// the exercise rows' references hold, then all exercises in one statement.
func writeCollected(ctx context.Context, st *storage.Store, c *collectedDay) error {
	if err := st.InsertSections(ctx, c.Sections); err != nil {
		return err
	}
	if err := st.InsertGroups(ctx, c.Groups); err != nil {
		return err
	}
	return st.InsertDayExercises(ctx, c.Exercises)
}

// remapDay rebuilds a source day's denormalized rows under a new day id,
// giving every section and group a fresh identity. Old ids are never reused.
func remapDay(newDayID uuid.UUID, src []models.DayExerciseDetail) *collectedDay {
	c := &collectedDay{}
	sections := make(map[uuid.UUID]uuid.UUID)
	groups := make(map[uuid.UUID]uuid.UUID)
	sectionPos := 0

	for _, r := range src {
		row := r.DayExerciseRow
		row.ID = uuid.New()
		row.DayID = newDayID

		if r.SectionID != nil {
			newID, ok := sections[*r.SectionID]
			if !ok {
				sec := models.SectionRow{
					ID:        uuid.New(),
					DayID:     newDayID,
					Notes:     r.SectionNotes,
					SortOrder: sectionPos,
				}
				if r.SectionLabel != nil {
					sec.Label = *r.SectionLabel
				}
				sectionPos++
				sections[*r.SectionID] = sec.ID
				c.Sections = append(c.Sections, sec)
				newID = sec.ID
			}
			row.SectionID = &newID
		}

		if r.GroupID != nil {
			newID, ok := groups[*r.GroupID]
			if !ok {
				grp := models.GroupRow{
					ID:          uuid.New(),
					DayID:       newDayID,
					Label:       r.GroupLabel,
					Notes:       r.GroupNotes,
					RestSeconds: r.GroupRestSeconds,
				}
				if r.GroupType != nil {
					grp.GroupType = *r.GroupType
				}
				groups[*r.GroupID] = grp.ID
				c.Groups = append(c.Groups, grp)
				newID = grp.ID
			}
			row.GroupID = &newID
		}

		c.Exercises = append(c.Exercises, row)
	}
	return c
}

func validateDays(days []models.DayInput) error {
	for i := range days {
		if err := days[i].Validate(); err != nil {
			return storage.ValidationError("%v", err)
		}
	}
	return nil
}
