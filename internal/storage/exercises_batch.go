package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
)

// batchMatch is one candidate row from the batch lookup, tagged with the
// requested name it matched. kind is 0 for an exact-name match and 1 for an
// alias match, mirroring the single resolver's lookup order.
type batchMatch struct {
	key   string
	kind  int
	owned bool
	res   Resolved
}

// ResolveExercises resolves a set of free-text names in at most three
// queries, regardless of how many names are requested:
//
//  1. one union of exact-name and alias matches for every name,
//  2. one bulk conflict-skip insert for the names with no match,
//  3. one re-fetch for names whose insert lost a concurrent creation race.
//
// The returned map is keyed by lowercased normalized name and is equivalent
// to calling ResolveExercise once per name.
func (s *Store) ResolveExercises(ctx context.Context, names []string, userID int) (map[string]Resolved, error) {
	// Dedup on the normalized lowercase key, keeping the first raw spelling
	// to use as the canonical name if the entry has to be created.
	keys := make([]string, 0, len(names))
	rawByKey := make(map[string]string, len(names))
	for _, n := range names {
		norm := NormalizeName(n)
		if norm == "" {
			return nil, ValidationError("exercise name is empty")
		}
		key := strings.ToLower(norm)
		if _, seen := rawByKey[key]; !seen {
			rawByKey[key] = norm
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return map[string]Resolved{}, nil
	}

	result := make(map[string]Resolved, len(keys))
	if err := s.batchLookup(ctx, keys, userID, result); err != nil {
		return nil, err
	}

	var missing []string
	for _, key := range keys {
		if _, ok := result[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	if err := s.batchCreate(ctx, missing, rawByKey, userID, result); err != nil {
		return nil, err
	}

	// Names still unresolved lost their creation race: a concurrent caller
	// inserted them between our lookup and our insert. One more exact fetch
	// returns the winners.
	missing = missing[:0]
	for _, key := range keys {
		if _, ok := result[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		if err := s.batchLookup(ctx, missing, userID, result); err != nil {
			return nil, err
		}
	}
	for _, key := range keys {
		if _, ok := result[key]; !ok {
			return nil, fmt.Errorf("exercise %q unresolved after bulk create", rawByKey[key])
		}
	}
	return result, nil
}

// batchLookup fills result with the best match per requested key: exact-name
// and alias matches unioned, ranked exact before alias and owned before
// global within each kind, the same order the single resolver walks.
func (s *Store) batchLookup(ctx context.Context, keys []string, userID int, result map[string]Resolved) error {
	rows, err := s.q.Query(ctx,
		`SELECT lower(e.name) AS key, 0 AS kind, e.user_id IS NOT NULL AS owned,
		        e.id, e.name, e.display_names, e.category
		 FROM exercises e
		 WHERE lower(e.name) = ANY($1) AND (e.user_id = $2 OR e.user_id IS NULL)
		 UNION ALL
		 SELECT lower(a.alias) AS key, 1 AS kind, e.user_id IS NOT NULL AS owned,
		        e.id, e.name, e.display_names, e.category
		 FROM exercise_aliases a
		 JOIN exercises e ON e.id = a.exercise_id
		 WHERE lower(a.alias) = ANY($1) AND (e.user_id = $2 OR e.user_id IS NULL)`,
		keys, userID)
	if err != nil {
		return fmt.Errorf("batch exercise lookup: %w", err)
	}
	defer rows.Close()

	var matches []batchMatch
	for rows.Next() {
		var m batchMatch
		var displayNames map[string]string
		if err := rows.Scan(&m.key, &m.kind, &m.owned, &m.res.ID, &m.res.Name, &displayNames, &m.res.Category); err != nil {
			return fmt.Errorf("scanning batch match: %w", err)
		}
		m.res.DisplayName = m.res.Name
		if n, ok := displayNames["en"]; ok && n != "" {
			m.res.DisplayName = n
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for key, res := range pickWinners(matches) {
		result[key] = res
	}
	return nil
}

// pickWinners reduces raw matches to one entry per key. An exact-name match
// beats an alias match regardless of ownership; within the same match kind an
// owned entry beats a global one; among equals the first match stands.
func pickWinners(matches []batchMatch) map[string]Resolved {
	best := make(map[string]batchMatch, len(matches))
	for _, m := range matches {
		cur, taken := best[m.key]
		if !taken || m.kind < cur.kind || (m.kind == cur.kind && m.owned && !cur.owned) {
			best[m.key] = m
		}
	}
	winners := make(map[string]Resolved, len(best))
	for key, m := range best {
		winners[key] = m.res
	}
	return winners
}

// batchCreate inserts all missing names as owned entries in one set-oriented
// statement with conflict-skip semantics. Only rows actually inserted come
// back; race losers are left for the caller to re-fetch.
func (s *Store) batchCreate(ctx context.Context, missing []string, rawByKey map[string]string, userID int, result map[string]Resolved) error {
	ids := make([]uuid.UUID, len(missing))
	rawNames := make([]string, len(missing))
	for i, key := range missing {
		ids[i] = uuid.New()
		rawNames[i] = rawByKey[key]
	}

	rows, err := s.q.Query(ctx,
		`INSERT INTO exercises (id, user_id, name, rep_unit, category)
		 SELECT u.id, $2, u.name, $3, $4
		 FROM unnest($1::uuid[], $5::text[]) AS u(id, name)
		 ON CONFLICT DO NOTHING
		 RETURNING lower(name), id, name, category`,
		ids, userID, models.RepUnitReps, models.CategoryStrength, rawNames)
	if err != nil {
		return fmt.Errorf("bulk creating exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var res Resolved
		if err := rows.Scan(&key, &res.ID, &res.Name, &res.Category); err != nil {
			return fmt.Errorf("scanning created exercise: %w", err)
		}
		res.DisplayName = res.Name
		res.Created = true
		result[key] = res
	}
	return rows.Err()
}
