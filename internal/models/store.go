package models

import (
	"time"
)

// StoreEntry is one persisted namespace: a JSON blob plus an optimistic
// version counter. All business collections (projects, directory, profile,
// templates, inventory) live in this table, one row per namespace.
type StoreEntry struct {
	EntryID   uint64 `gorm:"primaryKey;autoIncrement"`
	Namespace string `gorm:"uniqueIndex;size:255;not null"`
	Value     JSON   `gorm:"type:json"`
	Version   uint64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name for StoreEntry
func (StoreEntry) TableName() string {
	return "store_entries"
}
