package models

// DirectoryItem is a per-user price directory entry. The directory is
// auto-populated from estimate lines whose name is not yet present
// (case-insensitive match).
type DirectoryItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Kind  string  `json:"type"`
	Unit  string  `json:"unit,omitempty"`
	Price float64 `json:"price"`
}

// TemplateItem is a line blueprint inside an estimate template: no quantity,
// no comments, just the priced description.
type TemplateItem struct {
	Name  string  `json:"name"`
	Kind  string  `json:"type"`
	Unit  string  `json:"unit,omitempty"`
	Price float64 `json:"price"`
}

// EstimateTemplate is a reusable estimate skeleton. Applying it appends
// fresh-id items at quantity 1.
type EstimateTemplate struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []TemplateItem `json:"items"`
}

// InventoryItem is a tool or material tracked outside any project.
type InventoryItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
	Location string  `json:"location,omitempty"`
}

// Profile is the contractor's company card used on estimates and acts.
type Profile struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Requisites string `json:"requisites,omitempty"`
	LogoURL    string `json:"logoUrl,omitempty"`
}
