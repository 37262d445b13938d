package cms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kotwijzer.be/internal/audit"
	"kotwijzer.be/internal/auth"
	"kotwijzer.be/internal/obs"
)

// Actor is the authenticated caller plus its resolved vestiging scope.
type Actor struct {
	Identity auth.Identity
	Scope    auth.Scope
}

// Auditor is the slice of the audit recorder the service needs.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
	RecordAvailabilityChange(ctx context.Context, c audit.AvailabilityChange) error
}

// Service executes content operations: role and scope checks first, then the
// mutation, then exactly one audit record.
type Service struct {
	koten       KotStore
	vestigingen VestigingStore
	audit       Auditor
}

func NewService(koten KotStore, vestigingen VestigingStore, auditor Auditor) (*Service, error) {
	if koten == nil || vestigingen == nil || auditor == nil {
		return nil, errors.New("cms: koten store, vestigingen store and auditor are required")
	}
	return &Service{koten: koten, vestigingen: vestigingen, audit: auditor}, nil
}

// KotInput carries the mutable fields of a kot. Enum fields are already
// validated at the transport boundary.
type KotInput struct {
	VestigingID        string
	Title              string
	Description        string
	PriceCents         int64
	Availability       Availability
	Status             Status
	ScheduledPublishAt *time.Time
	IsHighlighted      bool
}

func (in *KotInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.VestigingID == "" || in.Title == "" || in.Description == "" {
		return fmt.Errorf("%w: vestiging_id, title and description are required", ErrValidation)
	}
	if in.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if in.Availability == "" {
		in.Availability = AvailabilityAvailable
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	return nil
}

// CreateKot creates a kot and audits it.
func (s *Service) CreateKot(ctx context.Context, actor Actor, in KotInput) (*Kot, error) {
	if !auth.CanEditContent(actor.Identity.Role) {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !auth.Allowed(actor.Identity.Role, actor.Scope, in.VestigingID) {
		return nil, ErrForbidden
	}
	if in.IsHighlighted {
		if err := s.checkHighlightCap(ctx, ""); err != nil {
			return nil, err
		}
	}
	created, err := s.koten.Create(ctx, &Kot{
		VestigingID:        in.VestigingID,
		Title:              in.Title,
		Description:        in.Description,
		PriceCents:         in.PriceCents,
		Availability:       in.Availability,
		Status:             in.Status,
		ScheduledPublishAt: in.ScheduledPublishAt,
		IsHighlighted:      in.IsHighlighted,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     audit.ActionCreate,
		EntityType: "koten",
		EntityID:   created.ID,
		Changes:    created,
	})
	return created, nil
}

// UpdateKot replaces the mutable fields of a kot. The current row is fetched
// before the write so the availability transition can be recorded from the
// true pre-write value.
func (s *Service) UpdateKot(ctx context.Context, actor Actor, id string, in KotInput) (*Kot, error) {
	if !auth.CanEditContent(actor.Identity.Role) {
		return nil, ErrForbidden
	}
	current, err := s.authorizedKot(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.VestigingID == "" {
		in.VestigingID = current.VestigingID
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.VestigingID != current.VestigingID && !auth.Allowed(actor.Identity.Role, actor.Scope, in.VestigingID) {
		return nil, ErrForbidden
	}
	if in.IsHighlighted {
		if err := s.checkHighlightCap(ctx, id); err != nil {
			return nil, err
		}
	}
	updated, err := s.koten.Update(ctx, &Kot{
		ID:                 id,
		VestigingID:        in.VestigingID,
		Title:              in.Title,
		Description:        in.Description,
		PriceCents:         in.PriceCents,
		Availability:       in.Availability,
		Status:             in.Status,
		ScheduledPublishAt: in.ScheduledPublishAt,
		IsHighlighted:      in.IsHighlighted,
	})
	if err != nil {
		return nil, err
	}
	if current.Availability != updated.Availability {
		s.recordAvailability(ctx, audit.AvailabilityChange{
			KotID:     id,
			OldStatus: string(current.Availability),
			NewStatus: string(updated.Availability),
			ChangedBy: actorID(actor),
		})
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     audit.ActionUpdate,
		EntityType: "koten",
		EntityID:   id,
		Changes:    updated,
	})
	return updated, nil
}

// PublishKot transitions a kot to published.
func (s *Service) PublishKot(ctx context.Context, actor Actor, id string) error {
	return s.transitionKot(ctx, actor, id, audit.ActionPublish, func(ctx context.Context) error {
		return s.koten.Publish(ctx, id)
	}, nil)
}

// ArchiveKot transitions a kot to archived. Archived koten no longer count
// toward the highlight cap.
func (s *Service) ArchiveKot(ctx context.Context, actor Actor, id string) error {
	return s.transitionKot(ctx, actor, id, audit.ActionArchive, func(ctx context.Context) error {
		return s.koten.Archive(ctx, id)
	}, nil)
}

// ScheduleKot sets a future publish time.
func (s *Service) ScheduleKot(ctx context.Context, actor Actor, id string, at time.Time) error {
	if at.IsZero() {
		return fmt.Errorf("%w: scheduled_publish_at is required", ErrValidation)
	}
	return s.transitionKot(ctx, actor, id, audit.ActionSchedule, func(ctx context.Context) error {
		return s.koten.Schedule(ctx, id, at)
	}, map[string]any{"scheduled_publish_at": at})
}

// DeleteKot removes a kot permanently. Deletion is destructive, so it is held
// to the location-management capability rather than the content one.
func (s *Service) DeleteKot(ctx context.Context, actor Actor, id string) error {
	if !auth.CanManageVestigingen(actor.Identity.Role) {
		return ErrForbidden
	}
	if _, err := s.authorizedKot(ctx, actor, id); err != nil {
		return err
	}
	if err := s.koten.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     audit.ActionDelete,
		EntityType: "koten",
		EntityID:   id,
	})
	return nil
}

func (s *Service) transitionKot(ctx context.Context, actor Actor, id, action string, apply func(context.Context) error, changes map[string]any) error {
	if !auth.CanEditContent(actor.Identity.Role) {
		return ErrForbidden
	}
	if _, err := s.authorizedKot(ctx, actor, id); err != nil {
		return err
	}
	if err := apply(ctx); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     action,
		EntityType: "koten",
		EntityID:   id,
		Changes:    changes,
	})
	return nil
}

// GetKot returns one kot. Reads require authentication only.
func (s *Service) GetKot(ctx context.Context, id string) (*Kot, error) {
	return s.koten.Find(ctx, id)
}

// ListKoten returns koten matching the filter, highlighted first.
func (s *Service) ListKoten(ctx context.Context, f KotFilter) ([]*Kot, error) {
	return s.koten.List(ctx, f)
}

// BulkPublish publishes a batch of koten. One audit record is written for the
// whole batch: EntityID is the first id and Changes carries the full list.
func (s *Service) BulkPublish(ctx context.Context, actor Actor, ids []string) error {
	return s.bulk(ctx, actor, ids, audit.ActionBulkPublish, map[string]any{"ids": ids},
		func(ctx context.Context) error {
			return s.koten.BulkSetStatus(ctx, ids, StatusPublished)
		})
}

// BulkArchive archives a batch of koten.
func (s *Service) BulkArchive(ctx context.Context, actor Actor, ids []string) error {
	return s.bulk(ctx, actor, ids, audit.ActionBulkArchive, map[string]any{"ids": ids},
		func(ctx context.Context) error {
			return s.koten.BulkSetStatus(ctx, ids, StatusArchived)
		})
}

// BulkAvailability sets the availability of a batch of koten. No history rows
// are written for bulk transitions; the single audit record carries the
// applied status.
func (s *Service) BulkAvailability(ctx context.Context, actor Actor, ids []string, availability Availability) error {
	if availability == "" {
		return fmt.Errorf("%w: availability_status is required", ErrValidation)
	}
	return s.bulk(ctx, actor, ids, audit.ActionBulkAvailability,
		map[string]any{"ids": ids, "availability_status": string(availability)},
		func(ctx context.Context) error {
			return s.koten.BulkSetAvailability(ctx, ids, availability)
		})
}

func (s *Service) bulk(ctx context.Context, actor Actor, ids []string, action string, changes map[string]any, apply func(context.Context) error) error {
	if !auth.CanEditContent(actor.Identity.Role) {
		return ErrForbidden
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids are required", ErrValidation)
	}
	vestigingen, err := s.koten.VestigingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		vid, ok := vestigingen[id]
		if !ok {
			return ErrNotFound
		}
		if !auth.Allowed(actor.Identity.Role, actor.Scope, vid) {
			return ErrForbidden
		}
	}
	if err := apply(ctx); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     action,
		EntityType: "koten",
		EntityID:   ids[0],
		Changes:    changes,
	})
	return nil
}

// CreateVestiging creates a location.
func (s *Service) CreateVestiging(ctx context.Context, actor Actor, in VestigingInput) (*Vestiging, error) {
	if !auth.CanManageVestigingen(actor.Identity.Role) {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	created, err := s.vestigingen.Create(ctx, &Vestiging{
		Name:        in.Name,
		Address:     in.Address,
		City:        in.City,
		PostalCode:  in.PostalCode,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     audit.ActionCreate,
		EntityType: "vestigingen",
		EntityID:   created.ID,
		Changes:    created,
	})
	return created, nil
}

// UpdateVestiging replaces the mutable fields of a location.
func (s *Service) UpdateVestiging(ctx context.Context, actor Actor, id string, in VestigingInput) (*Vestiging, error) {
	if !auth.CanManageVestigingen(actor.Identity.Role) {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	updated, err := s.vestigingen.Update(ctx, &Vestiging{
		ID:          id,
		Name:        in.Name,
		Address:     in.Address,
		City:        in.City,
		PostalCode:  in.PostalCode,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     audit.ActionUpdate,
		EntityType: "vestigingen",
		EntityID:   id,
		Changes:    updated,
	})
	return updated, nil
}

// ArchiveVestiging archives a location.
func (s *Service) ArchiveVestiging(ctx context.Context, actor Actor, id string) error {
	if !auth.CanManageVestigingen(actor.Identity.Role) {
		return ErrForbidden
	}
	if err := s.vestigingen.Archive(ctx, id); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		ActorID:    actorID(actor),
		Action:     audit.ActionArchive,
		EntityType: "vestigingen",
		EntityID:   id,
	})
	return nil
}

// ListVestigingen returns every location.
func (s *Service) ListVestigingen(ctx context.Context) ([]*Vestiging, error) {
	return s.vestigingen.List(ctx)
}

// VestigingInput carries the mutable fields of a vestiging.
type VestigingInput struct {
	Name        string
	Address     string
	City        string
	PostalCode  string
	Description string
}

func (in *VestigingInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	if in.Name == "" || in.City == "" {
		return fmt.Errorf("%w: name and city are required", ErrValidation)
	}
	return nil
}

// authorizedKot loads a kot and verifies the actor's scope covers it.
func (s *Service) authorizedKot(ctx context.Context, actor Actor, id string) (*Kot, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	kot, err := s.koten.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.Allowed(actor.Identity.Role, actor.Scope, kot.VestigingID) {
		return nil, ErrForbidden
	}
	return kot, nil
}

func (s *Service) checkHighlightCap(ctx context.Context, excludeID string) error {
	n, err := s.koten.CountHighlighted(ctx, excludeID)
	if err != nil {
		return err
	}
	if n >= maxHighlighted {
		return fmt.Errorf("%w: maximum %d highlighted koten allowed, unhighlight another kot first",
			ErrValidation, maxHighlighted)
	}
	return nil
}

// record writes the audit entry for a committed mutation. The trail is
// advisory: a failed audit write is logged, never rolled into the business
// outcome.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	recordAudit(ctx, s.audit, e)
}

func recordAudit(ctx context.Context, auditor Auditor, e audit.Entry) {
	if err := auditor.Record(ctx, e); err != nil {
		obs.LogEntry(map[string]any{
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
			"level":  "error",
			"msg":    "audit write failed",
			"action": e.Action,
			"entity": e.EntityType + "/" + e.EntityID,
			"error":  err.Error(),
		})
	}
}

func (s *Service) recordAvailability(ctx context.Context, c audit.AvailabilityChange) {
	if err := s.audit.RecordAvailabilityChange(ctx, c); err != nil {
		obs.LogEntry(map[string]any{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": "error",
			"msg":   "availability history write failed",
			"kot":   c.KotID,
			"error": err.Error(),
		})
	}
}

func actorID(actor Actor) *string {
	if actor.Identity.ID == "" {
		return nil
	}
	id := actor.Identity.ID
	return &id
}
