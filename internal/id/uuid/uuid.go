// Package uuid generates time-ordered scrape record IDs.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator implements scraper.IDGenerator with UUID v7, so record IDs sort by creation time.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID v7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
