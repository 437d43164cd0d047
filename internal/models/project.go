package models

import (
	"encoding/json"
	"time"
)

// ProjectStatus is the lifecycle state of a construction project.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
)

// CommentAuthor is the role that wrote a comment. Each role is authoritative
// for its own comments: contractor comments are trusted from the private
// collection, client comments from the global projection.
type CommentAuthor string

const (
	AuthorClient     CommentAuthor = "client"
	AuthorContractor CommentAuthor = "contractor"
)

// Project is the top-level record of a user's projects collection.
// All timestamps are Unix milliseconds, the shape the web client produces.
type Project struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Address      string         `json:"address,omitempty"`
	Status       ProjectStatus  `json:"status"`
	ClientName   string         `json:"client,omitempty"`
	ClientPhone  string         `json:"clientPhone,omitempty"`
	Estimates    []Estimate     `json:"estimates"`
	Expenses     []Expense      `json:"expenses,omitempty"`
	Payments     []Payment      `json:"payments,omitempty"`
	PhotoReports []PhotoReport  `json:"photoReports,omitempty"`
	Schedule     []ScheduleItem `json:"schedule,omitempty"`
	Documents    []Document     `json:"documents,omitempty"`
	Notes        NoteList       `json:"notes,omitzero"`
	CreatedAt    int64          `json:"createdAt,omitempty"`
	CompletedAt  int64          `json:"completedAt,omitempty"`

	// Deprecated single-estimate layout, still present in old records.
	// The migrator folds these into Estimates and clears them.
	LegacyEstimateItems []EstimateItem `json:"estimate,omitempty"`
	LegacyDiscount      float64        `json:"discount,omitempty"`
	LegacyApprovedOn    int64          `json:"estimateApprovedOn,omitempty"`
}

// Estimate is one named cost estimate inside a project.
type Estimate struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Items      []EstimateItem `json:"items"`
	Discount   float64        `json:"discount,omitempty"`
	ApprovedOn int64          `json:"approvedOn,omitempty"`
}

// EstimateItem is a single labor or material line.
type EstimateItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     string    `json:"type"`
	Unit     string    `json:"unit,omitempty"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	Comments []Comment `json:"comments,omitempty"`
}

// Comment is a thread entry on an estimate item.
type Comment struct {
	ID        string        `json:"id"`
	Author    CommentAuthor `json:"author"`
	Text      string        `json:"text"`
	CreatedAt int64         `json:"createdAt"`
}

// Note is a dated free-text note on a project.
type Note struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

// NoteList unmarshals either the current note-array shape or the deprecated
// free-text string shape. The migrator converts the latter; Legacy is never
// written back out.
type NoteList struct {
	Notes  []Note
	Legacy string
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *NoteList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &n.Legacy)
	}
	return json.Unmarshal(data, &n.Notes)
}

// MarshalJSON implements the json.Marshaler interface.
func (n NoteList) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Notes)
}

// IsZero reports an empty list so `omitzero` drops the field instead of
// persisting "notes": [].
func (n NoteList) IsZero() bool {
	return len(n.Notes) == 0 && n.Legacy == ""
}

// Expense is money spent on a project.
type Expense struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Date   int64   `json:"date,omitempty"`
}

// Payment is money received from the client.
type Payment struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Date   int64   `json:"date,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// PhotoReport is a captioned photo stored as a data URL.
type PhotoReport struct {
	ID        string `json:"id"`
	Caption   string `json:"caption,omitempty"`
	DataURL   string `json:"dataUrl"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// ScheduleItem is one row of a project work schedule.
type ScheduleItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate int64  `json:"startDate,omitempty"`
	EndDate   int64  `json:"endDate,omitempty"`
	Done      bool   `json:"done,omitempty"`
}

// Document is an attached file stored as a data URL.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DataURL   string `json:"dataUrl"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// NowMillis returns the current time as Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Total returns quantity times unit price for one line.
func (i EstimateItem) Total() float64 {
	return i.Quantity * i.Price
}

// Subtotal sums all line totals before discount.
func (e Estimate) Subtotal() float64 {
	var sum float64
	for _, item := range e.Items {
		sum += item.Total()
	}
	return sum
}

// Total applies the percentage discount to the subtotal.
func (e Estimate) Total() float64 {
	return e.Subtotal() * (1 - e.Discount/100)
}

// EstimatesTotal sums every estimate's discounted total.
func (p Project) EstimatesTotal() float64 {
	var sum float64
	for _, e := range p.Estimates {
		sum += e.Total()
	}
	return sum
}

// ExpensesTotal sums all recorded expenses.
func (p Project) ExpensesTotal() float64 {
	var sum float64
	for _, e := range p.Expenses {
		sum += e.Amount
	}
	return sum
}

// PaymentsTotal sums all recorded client payments.
func (p Project) PaymentsTotal() float64 {
	var sum float64
	for _, pay := range p.Payments {
		sum += pay.Amount
	}
	return sum
}

// Profit is the estimate total minus expenses.
func (p Project) Profit() float64 {
	return p.EstimatesTotal() - p.ExpensesTotal()
}

// FindEstimate returns the estimate with the given id, or nil.
func (p *Project) FindEstimate(estimateID string) *Estimate {
	for i := range p.Estimates {
		if p.Estimates[i].ID == estimateID {
			return &p.Estimates[i]
		}
	}
	return nil
}

// FindItem returns the estimate item with the given id, or nil.
func (e *Estimate) FindItem(itemID string) *EstimateItem {
	for i := range e.Items {
		if e.Items[i].ID == itemID {
			return &e.Items[i]
		}
	}
	return nil
}
