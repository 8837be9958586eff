package registry

import (
	"errors"
	"sync"
	"time"

	"giveaway-draw-bot/internal/features/giveaway/models"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("giveaway not found")

// Registry is the in-memory store of active giveaways. State is process-scoped
// and intentionally not persisted: a restart drops in-flight giveaways.
//
// Remove is the sole guard against double finalization — it hands the giveaway
// to exactly one caller.
type Registry struct {
	mu        sync.Mutex
	giveaways map[string]*models.Giveaway
}

func New() *Registry {
	return &Registry{giveaways: make(map[string]*models.Giveaway)}
}

// Create registers the giveaway, assigning a fresh id unless the caller
// already allocated one (the id is embedded in the announcement link, which
// is published before registration).
func (r *Registry) Create(g *models.Giveaway) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Entries == nil {
		g.Entries = make(map[string]models.Candidate)
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	r.giveaways[g.ID] = g
	return g.ID
}

// Get returns a shallow copy of the giveaway with a detached entry map, so
// callers can read it without racing entry registrations.
func (r *Registry) Get(id string) (*models.Giveaway, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return nil, false
	}
	return copyGiveaway(g), true
}

// RecordEntry upserts the candidate keyed by user id and returns the entry
// count. Re-entry overwrites the stored snapshot without growing the count.
func (r *Registry) RecordEntry(id string, c models.Candidate) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return 0, ErrNotFound
	}
	g.Entries[c.UserID] = c
	return len(g.Entries), nil
}

// Snapshot returns the current entries detached from the live map.
func (r *Registry) Snapshot(id string) ([]models.Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return nil, false
	}
	entries := make([]models.Candidate, 0, len(g.Entries))
	for _, c := range g.Entries {
		entries = append(entries, c)
	}
	return entries, true
}

// Remove deletes the giveaway and returns it. Only the first caller gets
// ok=true; later calls see the giveaway as already gone.
func (r *Registry) Remove(id string) (*models.Giveaway, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.giveaways[id]
	if !ok {
		return nil, false
	}
	delete(r.giveaways, id)
	return g, true
}

// Len reports the number of active giveaways.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.giveaways)
}

func copyGiveaway(g *models.Giveaway) *models.Giveaway {
	cp := *g
	cp.Entries = make(map[string]models.Candidate, len(g.Entries))
	for k, v := range g.Entries {
		cp.Entries[k] = v
	}
	return &cp
}
