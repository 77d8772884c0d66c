package program

import (
	"testing"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

func resolvedFor(names ...string) map[string]storage.Resolved {
	m := make(map[string]storage.Resolved, len(names))
	for _, n := range names {
		m[resolveKey(n)] = storage.Resolved{ID: uuid.New(), Name: n, DisplayName: n, Category: models.CategoryStrength}
	}
	return m
}

func solo(name string, reps ...int) models.Item {
	return models.Item{Kind: models.KindSolo, Solo: soloInput(name, reps...)}
}

func soloInput(name string, reps ...int) *models.SoloInput {
	scalar := len(reps) == 1
	return &models.SoloInput{
		Exercise: name,
		Sets:     3,
		Reps:     models.FlexInts{Values: reps, Scalar: scalar},
	}
}

func TestLeafNames(t *testing.T) {
	items := []models.Item{
		solo("Squat", 5),
		{Kind: models.KindGroup, Group: &models.GroupInput{
			GroupType: models.GroupSuperset,
			Exercises: []models.SoloInput{*soloInput("Curl", 12), *soloInput("Pushdown", 12)},
		}},
		{Kind: models.KindSection, Section: &models.SectionInput{
			Section: "Accessories",
			Items:   []models.Item{solo("Face Pull", 15)},
		}},
	}

	got := leafNames(items)
	want := []string{"Squat", "Curl", "Pushdown", "Face Pull"}
	if len(got) != len(want) {
		t.Fatalf("leafNames returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("leafNames[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollectDayOrdering(t *testing.T) {
	dayID := uuid.New()
	items := []models.Item{
		solo("Squat", 5),
		{Kind: models.KindGroup, Group: &models.GroupInput{
			GroupType: models.GroupSuperset,
			Exercises: []models.SoloInput{*soloInput("Curl", 12), *soloInput("Pushdown", 12)},
		}},
		{Kind: models.KindSection, Section: &models.SectionInput{
			Section: "Accessories",
			Items:   []models.Item{solo("Face Pull", 15), solo("Shrug", 12)},
		}},
	}

	c, err := collectDay(dayID, items, resolvedFor("Squat", "Curl", "Pushdown", "Face Pull", "Shrug"))
	if err != nil {
		t.Fatalf("collectDay: %v", err)
	}

	if len(c.Exercises) != 5 {
		t.Fatalf("got %d exercise rows, want 5", len(c.Exercises))
	}
	for i, row := range c.Exercises {
		if row.SortOrder != i {
			t.Errorf("row %d sort_order = %d, want %d", i, row.SortOrder, i)
		}
		if row.DayID != dayID {
			t.Errorf("row %d has wrong day id", i)
		}
	}

	if len(c.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(c.Groups))
	}
	if c.Exercises[1].GroupID == nil || *c.Exercises[1].GroupID != c.Groups[0].ID {
		t.Error("second row should reference the group")
	}
	if c.Exercises[2].GroupID == nil || *c.Exercises[2].GroupID != c.Groups[0].ID {
		t.Error("third row should reference the group")
	}
	if c.Exercises[0].GroupID != nil {
		t.Error("solo row should not reference a group")
	}

	if len(c.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(c.Sections))
	}
	if c.Sections[0].SortOrder != 0 {
		t.Errorf("section sort_order = %d, want 0", c.Sections[0].SortOrder)
	}
	for _, i := range []int{3, 4} {
		if c.Exercises[i].SectionID == nil || *c.Exercises[i].SectionID != c.Sections[0].ID {
			t.Errorf("row %d should reference the section", i)
		}
	}
}

func TestCollectDayGroupRestDiscarded(t *testing.T) {
	dayID := uuid.New()
	rest := 90
	groupRest := 120

	member := *soloInput("Curl", 12)
	member.RestSeconds = &rest

	items := []models.Item{
		{Kind: models.KindGroup, Group: &models.GroupInput{
			GroupType:   models.GroupSuperset,
			RestSeconds: &groupRest,
			Exercises:   []models.SoloInput{member, *soloInput("Pushdown", 12)},
		}},
	}

	c, err := collectDay(dayID, items, resolvedFor("Curl", "Pushdown"))
	if err != nil {
		t.Fatalf("collectDay: %v", err)
	}

	for i, row := range c.Exercises {
		if row.RestSeconds != nil {
			t.Errorf("grouped row %d carries rest_seconds %d, want none", i, *row.RestSeconds)
		}
	}
	if c.Groups[0].RestSeconds == nil || *c.Groups[0].RestSeconds != groupRest {
		t.Error("group should carry the shared rest")
	}
}

func TestCollectDaySoloKeepsRest(t *testing.T) {
	rest := 180
	s := soloInput("Squat", 5)
	s.RestSeconds = &rest

	c, err := collectDay(uuid.New(), []models.Item{{Kind: models.KindSolo, Solo: s}}, resolvedFor("Squat"))
	if err != nil {
		t.Fatalf("collectDay: %v", err)
	}
	if c.Exercises[0].RestSeconds == nil || *c.Exercises[0].RestSeconds != rest {
		t.Error("solo row should keep its rest_seconds")
	}
}

func TestCollectDayPerSetTargets(t *testing.T) {
	s := soloInput("Bench Press", 8, 8, 6)
	s.Weight = &models.FlexFloat{Values: []float64{80, 80, 85}}

	c, err := collectDay(uuid.New(), []models.Item{{Kind: models.KindSolo, Solo: s}}, resolvedFor("Bench Press"))
	if err != nil {
		t.Fatalf("collectDay: %v", err)
	}

	row := c.Exercises[0]
	if row.TargetReps != 8 {
		t.Errorf("target_reps = %d, want first element 8", row.TargetReps)
	}
	if len(row.TargetRepsPerSet) != 3 {
		t.Errorf("target_reps_per_set = %v, want full array", row.TargetRepsPerSet)
	}
	if row.TargetWeight == nil || *row.TargetWeight != 80 {
		t.Error("target_weight should be the first per-set weight")
	}
	if len(row.TargetWeightPerSet) != 3 {
		t.Errorf("target_weight_per_set = %v, want full array", row.TargetWeightPerSet)
	}
}

func TestCollectDayScalarTargets(t *testing.T) {
	c, err := collectDay(uuid.New(), []models.Item{solo("Squat", 5)}, resolvedFor("Squat"))
	if err != nil {
		t.Fatalf("collectDay: %v", err)
	}
	row := c.Exercises[0]
	if row.TargetReps != 5 {
		t.Errorf("target_reps = %d, want 5", row.TargetReps)
	}
	if row.TargetRepsPerSet != nil {
		t.Errorf("scalar reps should not store a per-set array, got %v", row.TargetRepsPerSet)
	}
	if row.TargetWeight != nil {
		t.Error("no weight supplied, target_weight should be nil")
	}
}

func TestCollectDayGroupNeedsTwoResolvable(t *testing.T) {
	items := []models.Item{
		{Kind: models.KindGroup, Group: &models.GroupInput{
			GroupType: models.GroupCircuit,
			Exercises: []models.SoloInput{*soloInput("Curl", 12), *soloInput("Pushdown", 12)},
		}},
	}

	// Only one member resolves.
	_, err := collectDay(uuid.New(), items, resolvedFor("Curl"))
	if err == nil {
		t.Fatal("expected error for group with one resolvable member")
	}
}

func TestCollectDayUnresolvedName(t *testing.T) {
	_, err := collectDay(uuid.New(), []models.Item{solo("Mystery Lift", 5)}, resolvedFor("Squat"))
	if err == nil {
		t.Fatal("expected error for unresolved exercise")
	}
}

func TestResolveKeyNormalizes(t *testing.T) {
	if resolveKey("  Bench   PRESS ") != "bench press" {
		t.Errorf("resolveKey = %q, want %q", resolveKey("  Bench   PRESS "), "bench press")
	}
}

func TestCreatedNames(t *testing.T) {
	resolved := map[string]storage.Resolved{
		"squat":     {Name: "Squat", Created: false},
		"face pull": {Name: "Face Pull", Created: true},
	}
	names := createdNames(resolved)
	if len(names) != 1 || names[0] != "Face Pull" {
		t.Errorf("createdNames = %v, want [Face Pull]", names)
	}
}
