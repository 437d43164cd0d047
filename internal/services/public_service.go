package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/store"
	"gorm.io/gorm"
)

// PublicProject is the project summary exposed on the share link. Expenses,
// payments and other contractor-side financials never leave the private
// collection.
type PublicProject struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Address string               `json:"address,omitempty"`
	Client  string               `json:"client,omitempty"`
	Status  models.ProjectStatus `json:"status"`
}

// SharedEstimateView is the payload the public share link renders.
type SharedEstimateView struct {
	Project  PublicProject   `json:"project"`
	Estimate models.Estimate `json:"estimate"`
	Subtotal float64         `json:"subtotal"`
	Total    float64         `json:"total"`
}

// ResolveSharedEstimate looks up a (project id, estimate id) pair in the
// global projection. Failure to resolve either id is terminal for the view.
func ResolveSharedEstimate(db *gorm.DB, projectID, estimateID string) (*SharedEstimateView, error) {
	_, estimate, project, err := findSharedEstimate(store.New(db), projectID, estimateID)
	if err != nil {
		return nil, err
	}

	return &SharedEstimateView{
		Project: PublicProject{
			ID:      project.ID,
			Name:    project.Name,
			Address: project.Address,
			Client:  project.ClientName,
			Status:  project.Status,
		},
		Estimate: *estimate,
		Subtotal: estimate.Subtotal(),
		Total:    estimate.Total(),
	}, nil
}

// ApproveEstimate sets the approval timestamp on an estimate in the global
// projection exactly once. Calling it again is a no-op returning the
// original timestamp; approval is never cleared.
func ApproveEstimate(db *gorm.DB, projectID, estimateID string) (int64, error) {
	s := store.New(db)
	all, estimate, _, err := findSharedEstimate(s, projectID, estimateID)
	if err != nil {
		return 0, err
	}

	if estimate.ApprovedOn != 0 {
		return estimate.ApprovedOn, nil
	}

	estimate.ApprovedOn = models.NowMillis()
	if _, err := s.Set(store.GlobalProjects, all); err != nil {
		return 0, err
	}
	return estimate.ApprovedOn, nil
}

// AddClientComment appends a client-authored comment to an estimate item in
// the global projection. The owning contractor picks it up on their next
// private load through the reconciler.
func AddClientComment(db *gorm.DB, projectID, estimateID, itemID, text string) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, fmt.Errorf("%w: comment text is required", ErrValidation)
	}

	s := store.New(db)
	all, estimate, _, err := findSharedEstimate(s, projectID, estimateID)
	if err != nil {
		return models.Comment{}, err
	}

	item := estimate.FindItem(itemID)
	if item == nil {
		return models.Comment{}, store.ErrNotFound
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		Author:    models.AuthorClient,
		Text:      text,
		CreatedAt: models.NowMillis(),
	}
	item.Comments = append(item.Comments, comment)

	if _, err := s.Set(store.GlobalProjects, all); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// findSharedEstimate loads the global projection and returns pointers into
// it, so mutations through them are persisted by writing the slice back.
func findSharedEstimate(s *store.Store, projectID, estimateID string) ([]models.Project, *models.Estimate, *models.Project, error) {
	if projectID == "" || estimateID == "" {
		return nil, nil, nil, store.ErrNotFound
	}

	var all []models.Project
	if _, err := s.Get(store.GlobalProjects, &all); err != nil {
		return nil, nil, nil, err
	}

	for i := range all {
		if all[i].ID != projectID {
			continue
		}
		estimate := all[i].FindEstimate(estimateID)
		if estimate == nil {
			return nil, nil, nil, store.ErrNotFound
		}
		return all, estimate, &all[i], nil
	}

	return nil, nil, nil, store.ErrNotFound
}
