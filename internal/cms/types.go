// Package cms implements the content operations of the kotwijzer backend:
// koten and vestigingen management with role/scope gating and a complete
// audit trail for every mutation.
package cms

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("cms: not found")
	ErrValidation = errors.New("cms: validation failed")
	ErrForbidden  = errors.New("cms: forbidden")
)

// maxHighlighted caps the number of highlighted, non-archived koten. The check
// is best-effort (count-then-write, no storage constraint); concurrent writers
// can momentarily exceed it.
const maxHighlighted = 3

// Status is the publication lifecycle of a kot.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseStatus rejects unknown status strings at the boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusScheduled, StatusPublished, StatusArchived:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Availability is the rental state of a kot.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityReserved  Availability = "reserved"
	AvailabilityRented    Availability = "rented"
)

// ParseAvailability rejects unknown availability strings at the boundary.
func ParseAvailability(s string) (Availability, error) {
	switch Availability(s) {
	case AvailabilityAvailable, AvailabilityReserved, AvailabilityRented:
		return Availability(s), nil
	}
	return "", fmt.Errorf("%w: unknown availability %q", ErrValidation, s)
}

// Vestiging is one location (building) koten belong to.
type Vestiging struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	Description string     `json:"description"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Kot is one rentable student room.
type Kot struct {
	ID                 string       `json:"id"`
	VestigingID        string       `json:"vestiging_id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	PriceCents         int64        `json:"price_cents"`
	Availability       Availability `json:"availability_status"`
	Status             Status       `json:"status"`
	ScheduledPublishAt *time.Time   `json:"scheduled_publish_at,omitempty"`
	PublishedAt        *time.Time   `json:"published_at,omitempty"`
	ArchivedAt         *time.Time   `json:"archived_at,omitempty"`
	IsHighlighted      bool         `json:"is_highlighted"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// KotFilter narrows a kot listing.
type KotFilter struct {
	VestigingID string
	Status      Status
	Search      string
}
