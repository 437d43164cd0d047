// Package migrate upgrades legacy record shapes on load. Old clients wrote
// a single estimate directly on the project and free-text notes; current
// records carry an estimates list and structured notes. Running the
// migration twice produces no further changes.
package migrate

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/prorabapp/prorab-data/internal/models"
)

// MainEstimateName is the name given to the estimate synthesized from the
// deprecated single-estimate project layout.
const MainEstimateName = "Основная смета"

// createdAtWindow bounds the synthetic creation timestamps backfilled for
// records that predate the createdAt field. Exact historical time is
// unrecoverable and only used for sort order.
const createdAtWindow = 30 * 24 * time.Hour

// Projects upgrades every record in place and reports whether anything
// changed, so the caller persists only when necessary.
func Projects(projects []models.Project) bool {
	changed := false

	for i := range projects {
		p := &projects[i]

		// Deprecated single-estimate layout: items, discount and approval
		// lived directly on the project.
		if len(p.Estimates) == 0 && p.LegacyEstimateItems != nil {
			p.Estimates = []models.Estimate{{
				ID:         uuid.NewString(),
				Name:       MainEstimateName,
				Items:      p.LegacyEstimateItems,
				Discount:   p.LegacyDiscount,
				ApprovedOn: p.LegacyApprovedOn,
			}}
			p.LegacyEstimateItems = nil
			p.LegacyDiscount = 0
			p.LegacyApprovedOn = 0
			changed = true
		}

		// Free-text notes become a single structured note. An empty legacy
		// string produces no note at all.
		if p.Notes.Legacy != "" {
			p.Notes = models.NoteList{Notes: []models.Note{{
				ID:        uuid.NewString(),
				Text:      p.Notes.Legacy,
				CreatedAt: models.NowMillis(),
			}}}
			changed = true
		}

		if p.CreatedAt == 0 {
			p.CreatedAt = models.NowMillis() - rand.Int64N(createdAtWindow.Milliseconds())
			changed = true
		}
	}

	return changed
}

// Directory assigns identifiers to directory records that predate them.
func Directory(items []models.DirectoryItem) bool {
	changed := false
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
			changed = true
		}
	}
	return changed
}
