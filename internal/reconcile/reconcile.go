// Package reconcile merges independently edited copies of an estimate back
// into the private collection. The public share view mutates only the global
// projection; the contractor's session mutates only the private collection.
// Each side is authoritative for comments written by its own role, so the
// merge is keyed by author role rather than by whichever copy was written
// last.
package reconcile

import (
	"sort"

	"github.com/prorabapp/prorab-data/internal/models"
)

// MergeComments builds the merged thread for one estimate item: contractor
// comments from the private copy plus client comments from the public copy,
// deduplicated by id and ordered by timestamp ascending. An empty result is
// nil so the comments field is omitted from persisted JSON.
func MergeComments(private, public []models.Comment) []models.Comment {
	merged := make([]models.Comment, 0, len(private)+len(public))
	seen := make(map[string]struct{}, len(private)+len(public))

	appendTrusted := func(comments []models.Comment, trusted models.CommentAuthor) {
		for _, c := range comments {
			if c.Author != trusted {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			merged = append(merged, c)
		}
	}

	appendTrusted(private, models.AuthorContractor)
	appendTrusted(public, models.AuthorClient)

	if len(merged) == 0 {
		return nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt < merged[j].CreatedAt
	})

	return merged
}

// SyncProjects folds public-side edits from the global projection into a
// freshly loaded private collection: comment threads on every estimate item,
// and the approval timestamp set through the public path. Entities with no
// counterpart in the projection pass through unchanged. Returns true when
// the private collection was modified and needs persisting.
func SyncProjects(private, global []models.Project) bool {
	byID := make(map[string]*models.Project, len(global))
	for i := range global {
		byID[global[i].ID] = &global[i]
	}

	changed := false

	for i := range private {
		g, ok := byID[private[i].ID]
		if !ok {
			continue
		}

		for j := range private[i].Estimates {
			est := &private[i].Estimates[j]
			ge := g.FindEstimate(est.ID)
			if ge == nil {
				continue
			}

			// Approval set via the public path reaches the private copy
			// here. Once set it is never cleared.
			if est.ApprovedOn == 0 && ge.ApprovedOn != 0 {
				est.ApprovedOn = ge.ApprovedOn
				changed = true
			}

			for k := range est.Items {
				item := &est.Items[k]
				gi := ge.FindItem(item.ID)
				if gi == nil {
					continue
				}
				merged := MergeComments(item.Comments, gi.Comments)
				if !equalComments(item.Comments, merged) {
					item.Comments = merged
					changed = true
				}
			}
		}
	}

	return changed
}

func equalComments(a, b []models.Comment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
