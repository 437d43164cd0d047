// Package projection maintains the denormalized union of every user's
// projects under the projects:all namespace, so the public share link can
// resolve a project by id alone without knowing the owning user. It is a
// derived cache: every rebuild recomputes it wholesale, which makes a stale
// copy self-heal on the next private load or save.
package projection

import (
	"errors"

	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/store"
)

// Rebuild recomputes the global projection from every stored per-user
// projects namespace.
func Rebuild(s *store.Store) error {
	keys, err := s.Keys(store.ProjectsPrefix)
	if err != nil {
		return err
	}

	var all []models.Project
	for _, key := range keys {
		if key == store.GlobalProjects {
			continue
		}
		var projects []models.Project
		if _, err := s.Get(key, &projects); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		all = append(all, projects...)
	}

	_, err = s.Set(store.GlobalProjects, dedupe(all))
	return err
}

// RebuildFor recomputes the global projection right after a user saved their
// collection: every other user's stored data unioned with the just-written
// collection, appended last so it dominates for that user's project ids.
func RebuildFor(s *store.Store, userKey string, projects []models.Project) error {
	keys, err := s.Keys(store.ProjectsPrefix)
	if err != nil {
		return err
	}

	own := store.ProjectsKey(userKey)

	var all []models.Project
	for _, key := range keys {
		if key == store.GlobalProjects || key == own {
			continue
		}
		var other []models.Project
		if _, err := s.Get(key, &other); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		all = append(all, other...)
	}
	all = append(all, projects...)

	_, err = s.Set(store.GlobalProjects, dedupe(all))
	return err
}

// dedupe keeps project ids unique. Ids are user-scoped in practice, but a
// collision is handled: the last occurrence wins, replacing the earlier one
// in place.
func dedupe(projects []models.Project) []models.Project {
	out := make([]models.Project, 0, len(projects))
	index := make(map[string]int, len(projects))

	for _, p := range projects {
		if at, ok := index[p.ID]; ok {
			out[at] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}

	return out
}
