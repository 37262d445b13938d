package cms

import (
	"context"
	"time"
)

// KotStore is the storage collaborator for koten. Mutations are single
// statements; the service layer does not compose transactions across them.
type KotStore interface {
	Create(ctx context.Context, k *Kot) (*Kot, error)
	Find(ctx context.Context, id string) (*Kot, error)
	// Update writes every mutable field and returns the stored row.
	Update(ctx context.Context, k *Kot) (*Kot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f KotFilter) ([]*Kot, error)

	Publish(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Schedule(ctx context.Context, id string, at time.Time) error

	BulkSetStatus(ctx context.Context, ids []string, status Status) error
	BulkSetAvailability(ctx context.Context, ids []string, availability Availability) error

	// CountHighlighted counts highlighted, non-archived koten, excluding
	// excludeID when non-empty.
	CountHighlighted(ctx context.Context, excludeID string) (int, error)
	// VestigingIDs maps each given kot id to its vestiging id.
	VestigingIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// VestigingStore is the storage collaborator for vestigingen.
type VestigingStore interface {
	Create(ctx context.Context, v *Vestiging) (*Vestiging, error)
	Find(ctx context.Context, id string) (*Vestiging, error)
	Update(ctx context.Context, v *Vestiging) (*Vestiging, error)
	Archive(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Vestiging, error)
}
