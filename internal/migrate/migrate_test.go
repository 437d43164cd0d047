package migrate

import (
	"testing"

	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectsLegacyEstimate(t *testing.T) {
	projects := []models.Project{{
		ID:        "p1",
		Name:      "Дом на Лесной",
		Status:    models.StatusActive,
		CreatedAt: 1700000000000,
		LegacyEstimateItems: []models.EstimateItem{
			{ID: "i1", Name: "Штукатурка", Kind: "work", Quantity: 40, Price: 500},
		},
		LegacyDiscount:   10,
		LegacyApprovedOn: 1700000001000,
	}}

	changed := Projects(projects)
	require.True(t, changed)

	p := projects[0]
	require.Len(t, p.Estimates, 1)
	est := p.Estimates[0]
	assert.NotEmpty(t, est.ID)
	assert.Equal(t, MainEstimateName, est.Name)
	assert.Equal(t, "i1", est.Items[0].ID)
	assert.Equal(t, 10.0, est.Discount)
	assert.Equal(t, int64(1700000001000), est.ApprovedOn)

	// Legacy fields are cleared so they never serialize again
	assert.Nil(t, p.LegacyEstimateItems)
	assert.Zero(t, p.LegacyDiscount)
	assert.Zero(t, p.LegacyApprovedOn)
}

func TestProjectsLegacyEstimateNotFoldedWhenEstimatesExist(t *testing.T) {
	projects := []models.Project{{
		ID:        "p1",
		Name:      "Дом",
		Status:    models.StatusActive,
		CreatedAt: 1700000000000,
		Estimates: []models.Estimate{{ID: "e1", Name: "Смета"}},
		LegacyEstimateItems: []models.EstimateItem{
			{ID: "i1", Name: "Работа", Quantity: 1, Price: 100},
		},
	}}

	Projects(projects)

	require.Len(t, projects[0].Estimates, 1)
	assert.Equal(t, "e1", projects[0].Estimates[0].ID)
}

func TestProjectsLegacyNotes(t *testing.T) {
	projects := []models.Project{{
		ID:        "p1",
		Name:      "Дом",
		Status:    models.StatusActive,
		CreatedAt: 1700000000000,
		Notes:     models.NoteList{Legacy: "перезвонить заказчику"},
	}}

	changed := Projects(projects)
	require.True(t, changed)

	notes := projects[0].Notes
	assert.Empty(t, notes.Legacy)
	require.Len(t, notes.Notes, 1)
	assert.NotEmpty(t, notes.Notes[0].ID)
	assert.Equal(t, "перезвонить заказчику", notes.Notes[0].Text)
	assert.NotZero(t, notes.Notes[0].CreatedAt)
}

func TestProjectsEmptyLegacyNotesProduceNothing(t *testing.T) {
	projects := []models.Project{{
		ID:        "p1",
		Name:      "Дом",
		Status:    models.StatusActive,
		CreatedAt: 1700000000000,
	}}

	changed := Projects(projects)

	assert.False(t, changed)
	assert.Empty(t, projects[0].Notes.Notes)
}

func TestProjectsCreatedAtBackfill(t *testing.T) {
	projects := []models.Project{{
		ID:     "p1",
		Name:   "Дом",
		Status: models.StatusActive,
	}}

	before := models.NowMillis()
	changed := Projects(projects)
	require.True(t, changed)

	createdAt := projects[0].CreatedAt
	assert.NotZero(t, createdAt)
	assert.LessOrEqual(t, createdAt, models.NowMillis())
	assert.GreaterOrEqual(t, createdAt, before-createdAtWindow.Milliseconds())
}

func TestProjectsIdempotent(t *testing.T) {
	projects := []models.Project{{
		ID:     "p1",
		Name:   "Дом",
		Status: models.StatusActive,
		Notes:  models.NoteList{Legacy: "заметка"},
		LegacyEstimateItems: []models.EstimateItem{
			{ID: "i1", Name: "Работа", Quantity: 1, Price: 100},
		},
	}}

	require.True(t, Projects(projects))
	first := projects[0]

	assert.False(t, Projects(projects))
	assert.Equal(t, first.Estimates, projects[0].Estimates)
	assert.Equal(t, first.Notes, projects[0].Notes)
	assert.Equal(t, first.CreatedAt, projects[0].CreatedAt)
}

func TestDirectoryBackfill(t *testing.T) {
	items := []models.DirectoryItem{
		{Name: "Штукатурка", Kind: "work", Price: 500},
		{ID: "d2", Name: "Грунтовка", Kind: "material", Price: 300},
	}

	changed := Directory(items)
	require.True(t, changed)

	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "d2", items[1].ID)

	assert.False(t, Directory(items))
}
