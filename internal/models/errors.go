package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a missing item, recipe or order.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input rejected before any transaction is opened.
	ErrValidation = errors.New("validation failed")

	// ErrMissingRecipe is returned for an explodable item without an active
	// recipe when the strict policy is configured.
	ErrMissingRecipe = errors.New("explodable item has no active recipe")

	// ErrRecipeCycle marks a recipe graph that loops back on itself.
	ErrRecipeCycle = errors.New("recipe cycle")

	// ErrInsufficientStock is returned when a debit would take stock below
	// zero and the stock floor is enforced.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidItemType marks an operation applied to the wrong kind of item.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrRecipeExists marks an attempt to add a second recipe for an item.
	ErrRecipeExists = errors.New("recipe already exists")
)

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFound returns a NotFoundError for entity and id.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidation returns a ValidationError for field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// CycleError carries the item path that closes a recipe loop.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "recipe cycle: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrRecipeCycle
}

// InsufficientStockError reports the item a rejected debit targeted.
type InsufficientStockError struct {
	ItemID    string
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %g", e.ItemID, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
