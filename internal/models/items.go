package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DayInput is the client-supplied shape for one training day.
type DayInput struct {
	DayLabel string `json:"day_label"`
	Weekdays []int  `json:"weekdays,omitempty"`
	Items    []Item `json:"exercises"`
}

// ItemKind discriminates the day-item union.
type ItemKind string

const (
	KindSolo    ItemKind = "solo"
	KindGroup   ItemKind = "group"
	KindSection ItemKind = "section"
)

// Item is one entry in a day's exercise list: a solo exercise, a
// superset/paired/circuit group, or a named section. The variant is decided
// once, while decoding; downstream code switches on Kind and never re-sniffs
// the shape.
type Item struct {
	Kind    ItemKind
	Solo    *SoloInput
	Group   *GroupInput
	Section *SectionInput
}

// SoloInput is a single exercise with its targets. Reps and Weight accept a
// scalar or a per-set array.
type SoloInput struct {
	Exercise    string     `json:"exercise"`
	Sets        int        `json:"sets"`
	Reps        FlexInts   `json:"reps"`
	Weight      *FlexFloat `json:"weight,omitempty"`
	RPE         *float64   `json:"rpe,omitempty"`
	RestSeconds *int       `json:"rest_seconds,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// GroupInput is a cluster of exercises sharing rest timing.
type GroupInput struct {
	GroupType   string      `json:"group_type"`
	Label       *string     `json:"label,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
	RestSeconds *int        `json:"rest_seconds,omitempty"`
	Exercises   []SoloInput `json:"exercises"`
}

// SectionInput is a labeled sub-block containing solos and groups. Sections
// do not nest.
type SectionInput struct {
	Section string  `json:"section"`
	Notes   *string `json:"notes,omitempty"`
	Items   []Item  `json:"exercises"`
}

// UnmarshalJSON decodes the tagged union by which discriminating key is
// present: "section" wins over "group_type" wins over "exercise".
func (it *Item) UnmarshalJSON(data []byte) error {
	var probe struct {
		Exercise  *string `json:"exercise"`
		GroupType *string `json:"group_type"`
		Section   *string `json:"section"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch {
	case probe.Section != nil:
		it.Kind = KindSection
		it.Section = &SectionInput{}
		return json.Unmarshal(data, it.Section)
	case probe.GroupType != nil:
		it.Kind = KindGroup
		it.Group = &GroupInput{}
		return json.Unmarshal(data, it.Group)
	case probe.Exercise != nil:
		it.Kind = KindSolo
		it.Solo = &SoloInput{}
		return json.Unmarshal(data, it.Solo)
	}
	return fmt.Errorf("day item needs one of %q, %q or %q", "exercise", "group_type", "section")
}

// MarshalJSON re-emits the active variant.
func (it Item) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case KindSolo:
		return json.Marshal(it.Solo)
	case KindGroup:
		return json.Marshal(it.Group)
	case KindSection:
		return json.Marshal(it.Section)
	}
	return nil, fmt.Errorf("day item has no variant set")
}

// FlexInts decodes a JSON number or array of numbers. Scalar reports whether
// the source was a plain number; per-set arrays are stored only when Scalar
// is false.
type FlexInts struct {
	Values []int
	Scalar bool
}

func (f *FlexInts) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		f.Scalar = false
		return json.Unmarshal(data, &f.Values)
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Values = []int{v}
	f.Scalar = true
	return nil
}

func (f FlexInts) MarshalJSON() ([]byte, error) {
	if f.Scalar && len(f.Values) == 1 {
		return json.Marshal(f.Values[0])
	}
	return json.Marshal(f.Values)
}

// First returns the representative value: always the first element.
func (f FlexInts) First() int {
	if len(f.Values) == 0 {
		return 0
	}
	return f.Values[0]
}

// PerSet returns the full array when one was supplied, nil otherwise.
func (f FlexInts) PerSet() []int {
	if f.Scalar {
		return nil
	}
	return f.Values
}

// FlexFloat is FlexInts for float64 values (weights).
type FlexFloat struct {
	Values []float64
	Scalar bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		f.Scalar = false
		return json.Unmarshal(data, &f.Values)
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Values = []float64{v}
	f.Scalar = true
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if f.Scalar && len(f.Values) == 1 {
		return json.Marshal(f.Values[0])
	}
	return json.Marshal(f.Values)
}

// First returns the representative value: always the first element.
func (f FlexFloat) First() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	return f.Values[0]
}

// PerSet returns the full array when one was supplied, nil otherwise.
func (f FlexFloat) PerSet() []float64 {
	if f.Scalar {
		return nil
	}
	return f.Values
}

// Validate checks a day at the decode boundary. Structural problems are
// rejected here, before anything touches the store.
func (d *DayInput) Validate() error {
	if strings.TrimSpace(d.DayLabel) == "" {
		return fmt.Errorf("day_label is required")
	}
	for _, wd := range d.Weekdays {
		if wd < 1 || wd > 7 {
			return fmt.Errorf("day %q: weekday %d out of range 1..7", d.DayLabel, wd)
		}
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("day %q has no exercises", d.DayLabel)
	}
	for i, item := range d.Items {
		if err := item.validate(true); err != nil {
			return fmt.Errorf("day %q item %d: %w", d.DayLabel, i+1, err)
		}
	}
	return nil
}

func (it *Item) validate(allowSection bool) error {
	switch it.Kind {
	case KindSolo:
		return it.Solo.validate()
	case KindGroup:
		return it.Group.validate()
	case KindSection:
		if !allowSection {
			return fmt.Errorf("sections cannot nest")
		}
		return it.Section.validate()
	}
	return fmt.Errorf("unrecognized day item")
}

func (s *SoloInput) validate() error {
	if strings.TrimSpace(s.Exercise) == "" {
		return fmt.Errorf("exercise name is required")
	}
	if s.Sets < 1 {
		return fmt.Errorf("exercise %q: sets must be >= 1", s.Exercise)
	}
	if len(s.Reps.Values) == 0 {
		return fmt.Errorf("exercise %q: reps is required", s.Exercise)
	}
	if s.Reps.First() < 1 {
		return fmt.Errorf("exercise %q: reps must be >= 1", s.Exercise)
	}
	return nil
}

func (g *GroupInput) validate() error {
	if !ValidGroupType(g.GroupType) {
		return fmt.Errorf("unknown group type %q", g.GroupType)
	}
	if len(g.Exercises) < 2 {
		return fmt.Errorf("%s group needs at least 2 exercises, got %d", g.GroupType, len(g.Exercises))
	}
	for i := range g.Exercises {
		if err := g.Exercises[i].validate(); err != nil {
			return fmt.Errorf("group member %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *SectionInput) validate() error {
	if strings.TrimSpace(s.Section) == "" {
		return fmt.Errorf("section label is required")
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("section %q has no exercises", s.Section)
	}
	for i, item := range s.Items {
		if err := item.validate(false); err != nil {
			return fmt.Errorf("section %q item %d: %w", s.Section, i+1, err)
		}
	}
	return nil
}
