package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bench Press", "Bench Press"},
		{"  bench   press  ", "bench press"},
		{"bench\tpress", "bench press"},
		{"bench\npress", "bench press"},
		{"", ""},
		{"   ", ""},
		{"Squat", "Squat"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"bench", "bench"},
		{"100% effort", `100\% effort`},
		{"under_score", `under\_score`},
		{`back\slash`, `back\\slash`},
		{`a%b_c\d`, `a\%b\_c\\d`},
	}

	for _, tt := range tests {
		if got := EscapeLike(tt.input); got != tt.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPickWinners(t *testing.T) {
	owned := Resolved{ID: uuid.New(), Name: "Bench Press"}
	global := Resolved{ID: uuid.New(), Name: "Bench Press"}
	other := Resolved{ID: uuid.New(), Name: "Squat"}

	tests := []struct {
		name    string
		matches []batchMatch
		want    map[string]uuid.UUID
	}{
		{
			name: "owned beats global regardless of order",
			matches: []batchMatch{
				{key: "bench press", owned: false, res: global},
				{key: "bench press", owned: true, res: owned},
			},
			want: map[string]uuid.UUID{"bench press": owned.ID},
		},
		{
			name: "owned kept when it arrives first",
			matches: []batchMatch{
				{key: "bench press", owned: true, res: owned},
				{key: "bench press", owned: false, res: global},
			},
			want: map[string]uuid.UUID{"bench press": owned.ID},
		},
		{
			name: "first global wins among equals",
			matches: []batchMatch{
				{key: "bench press", owned: false, res: global},
				{key: "bench press", owned: false, res: owned},
			},
			want: map[string]uuid.UUID{"bench press": global.ID},
		},
		{
			name: "independent keys",
			matches: []batchMatch{
				{key: "bench press", owned: false, res: global},
				{key: "squat", owned: true, res: other},
			},
			want: map[string]uuid.UUID{"bench press": global.ID, "squat": other.ID},
		},
		{
			name: "global exact name beats owned alias",
			matches: []batchMatch{
				{key: "pull up", kind: 1, owned: true, res: owned},
				{key: "pull up", kind: 0, owned: false, res: global},
			},
			want: map[string]uuid.UUID{"pull up": global.ID},
		},
		{
			name: "owned beats global within alias matches",
			matches: []batchMatch{
				{key: "pull up", kind: 1, owned: false, res: global},
				{key: "pull up", kind: 1, owned: true, res: owned},
			},
			want: map[string]uuid.UUID{"pull up": owned.ID},
		},
		{
			name:    "empty",
			matches: nil,
			want:    map[string]uuid.UUID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickWinners(tt.matches)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d winners, want %d", len(got), len(tt.want))
			}
			for key, wantID := range tt.want {
				if got[key].ID != wantID {
					t.Errorf("winner[%q] = %s, want %s", key, got[key].ID, wantID)
				}
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	if !IsUniqueViolation(unique) {
		t.Error("expected code 23505 to be a unique violation")
	}
	fk := &pgconn.PgError{Code: "23503"}
	if IsUniqueViolation(fk) {
		t.Error("foreign key violation misclassified as unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil misclassified as unique violation")
	}
}
