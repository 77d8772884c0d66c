package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestItemUnmarshalVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind ItemKind
	}{
		{
			name:     "solo exercise",
			input:    `{"exercise": "Bench Press", "sets": 3, "reps": 8}`,
			wantKind: KindSolo,
		},
		{
			name:     "superset group",
			input:    `{"group_type": "superset", "exercises": [{"exercise": "Curl", "sets": 3, "reps": 12}, {"exercise": "Pushdown", "sets": 3, "reps": 12}]}`,
			wantKind: KindGroup,
		},
		{
			name:     "section",
			input:    `{"section": "Warmup", "exercises": [{"exercise": "Jumping Jacks", "sets": 1, "reps": 30}]}`,
			wantKind: KindSection,
		},
		{
			name:     "section wins over exercise key",
			input:    `{"section": "Main", "exercise": "ignored", "exercises": []}`,
			wantKind: KindSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var it Item
			if err := json.Unmarshal([]byte(tt.input), &it); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if it.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", it.Kind, tt.wantKind)
			}
		})
	}
}

func TestItemUnmarshalRejectsUnknownShape(t *testing.T) {
	var it Item
	err := json.Unmarshal([]byte(`{"sets": 3, "reps": 8}`), &it)
	if err == nil {
		t.Fatal("expected error for item without a discriminating key")
	}
}

func TestItemMarshalRoundTrip(t *testing.T) {
	input := `{"group_type":"circuit","exercises":[{"exercise":"Row","sets":3,"reps":10},{"exercise":"Burpee","sets":3,"reps":10}]}`
	var it Item
	if err := json.Unmarshal([]byte(input), &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Item
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if again.Kind != KindGroup || len(again.Group.Exercises) != 2 {
		t.Errorf("round trip lost shape: kind=%q members=%d", again.Kind, len(again.Group.Exercises))
	}
}

func TestFlexInts(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFirst  int
		wantPerSet []int
	}{
		{"scalar", `8`, 8, nil},
		{"array", `[8,8,6]`, 8, []int{8, 8, 6}},
		{"single element array", `[10]`, 10, []int{10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexInts
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := f.First(); got != tt.wantFirst {
				t.Errorf("First() = %d, want %d", got, tt.wantFirst)
			}
			if got := f.PerSet(); !reflect.DeepEqual(got, tt.wantPerSet) {
				t.Errorf("PerSet() = %v, want %v", got, tt.wantPerSet)
			}
		})
	}
}

func TestFlexIntsMarshalPreservesShape(t *testing.T) {
	for _, input := range []string{`8`, `[8,8,6]`} {
		var f FlexInts
		if err := json.Unmarshal([]byte(input), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		out, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(out) != input {
			t.Errorf("round trip of %s produced %s", input, out)
		}
	}
}

func TestFlexFloat(t *testing.T) {
	var f FlexFloat
	if err := json.Unmarshal([]byte(`[80,80,85.5]`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.First() != 80 {
		t.Errorf("First() = %v, want 80", f.First())
	}
	if got := f.PerSet(); !reflect.DeepEqual(got, []float64{80, 80, 85.5}) {
		t.Errorf("PerSet() = %v", got)
	}

	var scalar FlexFloat
	if err := json.Unmarshal([]byte(`102.5`), &scalar); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if scalar.PerSet() != nil {
		t.Errorf("scalar PerSet() = %v, want nil", scalar.PerSet())
	}
}

func TestDayInputValidate(t *testing.T) {
	solo := func(name string) Item {
		return Item{Kind: KindSolo, Solo: &SoloInput{Exercise: name, Sets: 3, Reps: FlexInts{Values: []int{8}, Scalar: true}}}
	}

	tests := []struct {
		name    string
		day     DayInput
		wantErr bool
	}{
		{
			name: "valid",
			day:  DayInput{DayLabel: "Day A", Weekdays: []int{1, 4}, Items: []Item{solo("Squat")}},
		},
		{
			name:    "missing label",
			day:     DayInput{Items: []Item{solo("Squat")}},
			wantErr: true,
		},
		{
			name:    "weekday out of range",
			day:     DayInput{DayLabel: "Day A", Weekdays: []int{0}, Items: []Item{solo("Squat")}},
			wantErr: true,
		},
		{
			name:    "weekday eight",
			day:     DayInput{DayLabel: "Day A", Weekdays: []int{8}, Items: []Item{solo("Squat")}},
			wantErr: true,
		},
		{
			name:    "empty day",
			day:     DayInput{DayLabel: "Day A"},
			wantErr: true,
		},
		{
			name: "group with one member",
			day: DayInput{DayLabel: "Day A", Items: []Item{{
				Kind:  KindGroup,
				Group: &GroupInput{GroupType: GroupSuperset, Exercises: []SoloInput{{Exercise: "Curl", Sets: 3, Reps: FlexInts{Values: []int{12}, Scalar: true}}}},
			}}},
			wantErr: true,
		},
		{
			name: "unknown group type",
			day: DayInput{DayLabel: "Day A", Items: []Item{{
				Kind: KindGroup,
				Group: &GroupInput{GroupType: "megaset", Exercises: []SoloInput{
					{Exercise: "Curl", Sets: 3, Reps: FlexInts{Values: []int{12}, Scalar: true}},
					{Exercise: "Pushdown", Sets: 3, Reps: FlexInts{Values: []int{12}, Scalar: true}},
				}},
			}}},
			wantErr: true,
		},
		{
			name: "nested section rejected",
			day: DayInput{DayLabel: "Day A", Items: []Item{{
				Kind: KindSection,
				Section: &SectionInput{Section: "Outer", Items: []Item{{
					Kind:    KindSection,
					Section: &SectionInput{Section: "Inner", Items: []Item{solo("Squat")}},
				}}},
			}}},
			wantErr: true,
		},
		{
			name: "section with group",
			day: DayInput{DayLabel: "Day A", Items: []Item{{
				Kind: KindSection,
				Section: &SectionInput{Section: "Main", Items: []Item{{
					Kind: KindGroup,
					Group: &GroupInput{GroupType: GroupPaired, Exercises: []SoloInput{
						{Exercise: "Lunge", Sets: 3, Reps: FlexInts{Values: []int{10}, Scalar: true}},
						{Exercise: "Plank", Sets: 3, Reps: FlexInts{Values: []int{30}, Scalar: true}},
					}},
				}}},
			}}},
		},
		{
			name:    "zero sets",
			day:     DayInput{DayLabel: "Day A", Items: []Item{{Kind: KindSolo, Solo: &SoloInput{Exercise: "Squat", Reps: FlexInts{Values: []int{5}, Scalar: true}}}}},
			wantErr: true,
		},
		{
			name:    "zero reps",
			day:     DayInput{DayLabel: "Day A", Items: []Item{{Kind: KindSolo, Solo: &SoloInput{Exercise: "Squat", Sets: 3, Reps: FlexInts{Values: []int{0}, Scalar: true}}}}},
			wantErr: true,
		},
		{
			name:    "per-set reps starting with zero",
			day:     DayInput{DayLabel: "Day A", Items: []Item{{Kind: KindSolo, Solo: &SoloInput{Exercise: "Squat", Sets: 3, Reps: FlexInts{Values: []int{0, 5, 5}}}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.day.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
