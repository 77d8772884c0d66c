// Package program implements the program structure and versioning engine:
// it turns client-supplied day trees into normalized rows and orchestrates
// whole-program operations as single transactions.
package program

import (
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// collectedDay is the flat row set produced from one day's item tree, ready
// for the batch writer. Exercises carry references into Sections and Groups.
type collectedDay struct {
	Sections  []models.SectionRow
	Groups    []models.GroupRow
	Exercises []models.DayExerciseRow
}

// leafNames returns every exercise name in a day's item tree, including
// those nested under groups and sections, in submission order.
func leafNames(items []models.Item) []string {
	var names []string
	for _, item := range items {
		switch item.Kind {
		case models.KindSolo:
			names = append(names, item.Solo.Exercise)
		case models.KindGroup:
			for _, solo := range item.Group.Exercises {
				names = append(names, solo.Exercise)
			}
		case models.KindSection:
			names = append(names, leafNames(item.Section.Items)...)
		}
	}
	return names
}

// collectDay walks a day's items in order and produces the normalized row
// set. Sort positions increase strictly per exercise, so reading the day
// back ordered by sort position reproduces the submitted order exactly.
// resolved must cover every leaf name (keyed by lowercased normalized name).
func collectDay(dayID uuid.UUID, items []models.Item, resolved map[string]storage.Resolved) (*collectedDay, error) {
	c := &collectedDay{}
	pos := 0
	sectionPos := 0

	for _, item := range items {
		switch item.Kind {
		case models.KindSolo:
			row, err := buildRow(dayID, item.Solo, resolved, &pos, nil, nil)
			if err != nil {
				return nil, err
			}
			c.Exercises = append(c.Exercises, *row)

		case models.KindGroup:
			if err := c.collectGroup(dayID, item.Group, resolved, &pos, nil); err != nil {
				return nil, err
			}

		case models.KindSection:
			sec := models.SectionRow{
				ID:        uuid.New(),
				DayID:     dayID,
				Label:     item.Section.Section,
				Notes:     item.Section.Notes,
				SortOrder: sectionPos,
			}
			sectionPos++
			c.Sections = append(c.Sections, sec)

			for _, child := range item.Section.Items {
				switch child.Kind {
				case models.KindSolo:
					row, err := buildRow(dayID, child.Solo, resolved, &pos, nil, &sec.ID)
					if err != nil {
						return nil, err
					}
					c.Exercises = append(c.Exercises, *row)
				case models.KindGroup:
					if err := c.collectGroup(dayID, child.Group, resolved, &pos, &sec.ID); err != nil {
						return nil, err
					}
				default:
					return nil, storage.ValidationError("section %q contains an invalid item", sec.Label)
				}
			}
		default:
			return nil, storage.ValidationError("unrecognized day item")
		}
	}
	return c, nil
}

func (c *collectedDay) collectGroup(dayID uuid.UUID, g *models.GroupInput, resolved map[string]storage.Resolved, pos *int, sectionID *uuid.UUID) error {
	resolvable := 0
	for _, solo := range g.Exercises {
		if _, ok := resolved[resolveKey(solo.Exercise)]; ok {
			resolvable++
		}
	}
	if resolvable < 2 {
		return storage.ValidationError("%s group needs at least 2 resolvable exercises, got %d", g.GroupType, resolvable)
	}

	grp := models.GroupRow{
		ID:          uuid.New(),
		DayID:       dayID,
		GroupType:   g.GroupType,
		Label:       g.Label,
		Notes:       g.Notes,
		RestSeconds: g.RestSeconds,
	}
	c.Groups = append(c.Groups, grp)

	for i := range g.Exercises {
		row, err := buildRow(dayID, &g.Exercises[i], resolved, pos, &grp.ID, sectionID)
		if err != nil {
			return err
		}
		c.Exercises = append(c.Exercises, *row)
	}
	return nil
}

// buildRow constructs one exercise row from a solo input. The scalar
// target_reps/target_weight is always the FIRST per-set value; the full
// array is stored only when the caller supplied one. A row inside a group
// never carries its own rest_seconds: the group's value is authoritative,
// and a supplied one is discarded rather than rejected.
func buildRow(dayID uuid.UUID, solo *models.SoloInput, resolved map[string]storage.Resolved, pos *int, groupID, sectionID *uuid.UUID) (*models.DayExerciseRow, error) {
	res, ok := resolved[resolveKey(solo.Exercise)]
	if !ok {
		return nil, storage.ValidationError("exercise %q did not resolve", solo.Exercise)
	}

	row := models.DayExerciseRow{
		ID:               uuid.New(),
		DayID:            dayID,
		ExerciseID:       res.ID,
		TargetSets:       solo.Sets,
		TargetReps:       solo.Reps.First(),
		TargetRepsPerSet: solo.Reps.PerSet(),
		TargetRPE:        solo.RPE,
		Notes:            solo.Notes,
		SortOrder:        *pos,
		GroupID:          groupID,
		SectionID:        sectionID,
	}
	*pos++

	if solo.Weight != nil {
		w := solo.Weight.First()
		row.TargetWeight = &w
		row.TargetWeightPerSet = solo.Weight.PerSet()
	}
	if groupID == nil {
		row.RestSeconds = solo.RestSeconds
	}
	return &row, nil
}

// resolveKey is the lookup key used by the batch resolver.
func resolveKey(name string) string {
	return strings.ToLower(storage.NormalizeName(name))
}

// createdNames returns the names of entries the resolver had to create, in
// no particular order, for reporting back to the caller.
func createdNames(resolved map[string]storage.Resolved) []string {
	var names []string
	for _, r := range resolved {
		if r.Created {
			names = append(names, r.Name)
		}
	}
	return names
}
