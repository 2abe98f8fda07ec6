package service

import (
	"context"
	"fmt"
	"log"

	"triviamirror/internal/domain"
	"triviamirror/internal/opentdb"
	"triviamirror/internal/repository"
)

// CategorySource lists the remote categories
type CategorySource interface {
	Categories(ctx context.Context) ([]opentdb.RemoteCategory, error)
}

// KindReport lists the names added and deleted for one reference kind
type KindReport struct {
	Added   []string `json:"added"`
	Deleted []string `json:"deleted"`
}

// Changes returns the number of inserts plus deletes
func (r KindReport) Changes() int {
	return len(r.Added) + len(r.Deleted)
}

// SyncReport summarizes one reference data sync
type SyncReport struct {
	Types        KindReport `json:"types"`
	Difficulties KindReport `json:"difficulties"`
	Categories   KindReport `json:"categories"`
}

// Changes returns the total number of inserts plus deletes
func (r *SyncReport) Changes() int {
	return r.Types.Changes() + r.Difficulties.Changes() + r.Categories.Changes()
}

// ReferenceSync converges the local reference tables to the remote sets.
// Entries are matched by name only, so a remote rename shows up as one
// delete plus one add.
type ReferenceSync struct {
	repo         repository.ReferenceRepository
	source       CategorySource
	types        []string
	difficulties []string
	catalog      *Catalog
	eventBus     *EventBus
}

// NewReferenceSync creates a reference sync. The remote source has no list
// endpoint for types and difficulties, so their authoritative sets are
// passed in.
func NewReferenceSync(repo repository.ReferenceRepository, source CategorySource, types, difficulties []string, eventBus *EventBus) *ReferenceSync {
	return &ReferenceSync{
		repo:         repo,
		source:       source,
		types:        types,
		difficulties: difficulties,
		catalog:      NewCatalog(repo),
		eventBus:     eventBus,
	}
}

// Catalog returns the reference snapshot owned by this sync
func (s *ReferenceSync) Catalog() *Catalog {
	return s.catalog
}

// Sync reconciles types, difficulties and categories in that order, then
// refreshes the catalog
func (s *ReferenceSync) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}

	var err error
	if report.Types, err = s.syncTypes(ctx); err != nil {
		return nil, err
	}
	if report.Difficulties, err = s.syncDifficulties(ctx); err != nil {
		return nil, err
	}
	if report.Categories, err = s.syncCategories(ctx); err != nil {
		return nil, err
	}

	if err := s.catalog.Refresh(ctx); err != nil {
		return nil, err
	}

	log.Printf("Reference data synced: %d changes", report.Changes())
	s.eventBus.Publish(Event{Type: EventReferencesSynced, Payload: report})
	return report, nil
}

func (s *ReferenceSync) syncTypes(ctx context.Context) (KindReport, error) {
	local, err := s.repo.ListTypes(ctx)
	if err != nil {
		return KindReport{}, fmt.Errorf("failed to list types: %w", err)
	}
	names := make([]string, len(local))
	for i, t := range local {
		names[i] = t.Type
	}

	return s.apply(ctx, domain.ReferenceType, s.types, names,
		func(name string) error { return s.repo.DeleteType(ctx, name) },
		func(name string) error { _, err := s.repo.CreateType(ctx, name); return err },
	)
}

func (s *ReferenceSync) syncDifficulties(ctx context.Context) (KindReport, error) {
	local, err := s.repo.ListDifficulties(ctx)
	if err != nil {
		return KindReport{}, fmt.Errorf("failed to list difficulties: %w", err)
	}
	names := make([]string, len(local))
	for i, d := range local {
		names[i] = d.Level
	}

	return s.apply(ctx, domain.ReferenceDifficulty, s.difficulties, names,
		func(name string) error { return s.repo.DeleteDifficulty(ctx, name) },
		func(name string) error { _, err := s.repo.CreateDifficulty(ctx, name); return err },
	)
}

func (s *ReferenceSync) syncCategories(ctx context.Context) (KindReport, error) {
	remote, err := s.source.Categories(ctx)
	if err != nil {
		return KindReport{}, fmt.Errorf("failed to fetch remote categories: %w", err)
	}
	remoteIDs := make(map[string]int, len(remote))
	remoteNames := make([]string, 0, len(remote))
	for _, c := range remote {
		if _, dup := remoteIDs[c.Name]; dup {
			continue
		}
		remoteIDs[c.Name] = c.ID
		remoteNames = append(remoteNames, c.Name)
	}

	local, err := s.repo.ListCategories(ctx)
	if err != nil {
		return KindReport{}, fmt.Errorf("failed to list categories: %w", err)
	}
	names := make([]string, len(local))
	for i, c := range local {
		names[i] = c.Name
	}

	return s.apply(ctx, domain.ReferenceCategory, remoteNames, names,
		func(name string) error { return s.repo.DeleteCategory(ctx, name) },
		func(name string) error { _, err := s.repo.CreateCategory(ctx, name, remoteIDs[name]); return err },
	)
}

// apply deletes local-only names, then adds remote-only names
func (s *ReferenceSync) apply(ctx context.Context, kind domain.ReferenceKind, remote, local []string, del, add func(string) error) (KindReport, error) {
	report := KindReport{
		Added:   difference(remote, local),
		Deleted: difference(local, remote),
	}

	for _, name := range report.Deleted {
		if err := del(name); err != nil {
			return report, fmt.Errorf("failed to delete %s %q: %w", kind, name, err)
		}
		log.Printf("   deleted %s: %s", kind, name)
	}
	for _, name := range report.Added {
		if err := add(name); err != nil {
			return report, fmt.Errorf("failed to add %s %q: %w", kind, name, err)
		}
		log.Printf("   added %s: %s", kind, name)
	}

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

// difference returns the distinct elements of a not present in b, in a's order
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := exclude[s]; ok {
			continue
		}
		exclude[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
