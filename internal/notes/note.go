// Package notes holds the Note entity and its relational store.
package notes

import (
	"context"
	"errors"
)

// ListLimit caps how many notes FindAll returns.
const ListLimit = 100

// Error kinds surfaced by the store and the HTTP layer. Test with errors.Is.
var (
	ErrMalformedRequest    = errors.New("malformed request")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Note is the only persisted entity. ID is assigned by the database.
type Note struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Title   string `json:"title" gorm:"column:title;type:text;not null"`
	Content string `json:"content" gorm:"column:content;type:text;not null"`
}

func (Note) TableName() string {
	return "note"
}

// Store is everything the HTTP layer may do with notes.
type Store interface {
	// FindAll returns up to ListLimit notes, newest (highest ID) first.
	FindAll(ctx context.Context) ([]Note, error)

	// Save inserts n and fills in n.ID.
	Save(ctx context.Context, n *Note) error
}
