package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"triviamirror/internal/domain"
	"triviamirror/internal/repository"
)

// ReferenceIDs are the resolved foreign keys for one question
type ReferenceIDs struct {
	DifficultyID int64
	CategoryID   int64
	TypeID       int64
}

// Catalog is an in-memory snapshot of the reference tables.
// It reflects the database as of the last Refresh.
type Catalog struct {
	repo repository.ReferenceRepository

	mu           sync.RWMutex
	types        map[string]domain.Type
	difficulties map[string]domain.Difficulty
	categories   map[string]domain.Category
	byRemoteID   map[int]domain.Category
}

// NewCatalog creates an empty catalog; call Refresh to load it
func NewCatalog(repo repository.ReferenceRepository) *Catalog {
	return &Catalog{
		repo:         repo,
		types:        map[string]domain.Type{},
		difficulties: map[string]domain.Difficulty{},
		categories:   map[string]domain.Category{},
		byRemoteID:   map[int]domain.Category{},
	}
}

// Refresh reloads all three reference tables
func (c *Catalog) Refresh(ctx context.Context) error {
	types, err := c.repo.ListTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load types: %w", err)
	}
	difficulties, err := c.repo.ListDifficulties(ctx)
	if err != nil {
		return fmt.Errorf("failed to load difficulties: %w", err)
	}
	categories, err := c.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.types = make(map[string]domain.Type, len(types))
	for _, t := range types {
		c.types[t.Type] = t
	}
	c.difficulties = make(map[string]domain.Difficulty, len(difficulties))
	for _, d := range difficulties {
		c.difficulties[d.Level] = d
	}
	c.categories = make(map[string]domain.Category, len(categories))
	c.byRemoteID = make(map[int]domain.Category, len(categories))
	for _, cat := range categories {
		c.categories[cat.Name] = cat
		c.byRemoteID[cat.RemoteID] = cat
	}
	return nil
}

// Type looks up a question type by name
func (c *Catalog) Type(name string) (domain.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[name]
	return t, ok
}

// Difficulty looks up a difficulty by level
func (c *Catalog) Difficulty(level string) (domain.Difficulty, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.difficulties[level]
	return d, ok
}

// Category looks up a category by name
func (c *Catalog) Category(name string) (domain.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[name]
	return cat, ok
}

// CategoryByRemoteID looks up a category by its remote source id
func (c *Catalog) CategoryByRemoteID(id int) (domain.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.byRemoteID[id]
	return cat, ok
}

// Categories returns all categories ordered by remote id
func (c *Catalog) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemoteID < out[j].RemoteID })
	return out
}

// Resolve maps reference names to ids, failing with *ReferenceLookupError
// on the first unknown name
func (c *Catalog) Resolve(difficulty, category, typ string) (ReferenceIDs, error) {
	d, ok := c.Difficulty(difficulty)
	if !ok {
		return ReferenceIDs{}, &ReferenceLookupError{Kind: domain.ReferenceDifficulty, Name: difficulty}
	}
	cat, ok := c.Category(category)
	if !ok {
		return ReferenceIDs{}, &ReferenceLookupError{Kind: domain.ReferenceCategory, Name: category}
	}
	t, ok := c.Type(typ)
	if !ok {
		return ReferenceIDs{}, &ReferenceLookupError{Kind: domain.ReferenceType, Name: typ}
	}
	return ReferenceIDs{DifficultyID: d.ID, CategoryID: cat.ID, TypeID: t.ID}, nil
}
