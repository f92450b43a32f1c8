// Package session tracks connected users: server-assigned IDs and display
// names. Names are not unique; only the auto-generated defaults are
// guaranteed unused at assignment time.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// User is one registered client identity.
type User struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// Registry is the concurrency-safe table of registered users.
type Registry struct {
	mu     sync.Mutex
	users  map[uint32]string
	nextID uint32
	logger zerolog.Logger
}

// NewRegistry creates an empty user registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		users:  make(map[uint32]string),
		logger: logger,
	}
}

// Register allocates the next user ID and an unused default display name
// of the form newuser<N>, with the smallest free N.
func (r *Registry) Register() User {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	u := User{ID: r.nextID, Name: r.freeName()}
	r.users[u.ID] = u.Name

	r.logger.Debug().Uint32("user_id", u.ID).Str("name", u.Name).Msg("user registered")
	return u
}

// freeName returns newuser<N> for the smallest N not currently in use as a
// display name. Must be called while holding mu.
func (r *Registry) freeName() string {
	taken := make(map[string]bool, len(r.users))
	for _, name := range r.users {
		taken[name] = true
	}
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("newuser%d", n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Rename sets the display name for id. Renames always succeed for a
// registered user; the new name does not have to be unique. Returns false
// only if id is not registered.
func (r *Registry) Rename(id uint32, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false
	}
	r.users[id] = name
	r.logger.Debug().Uint32("user_id", id).Str("name", name).Msg("user renamed")
	return true
}

// Remove deletes the user from the registry. Removing an unknown id is a
// no-op.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return
	}
	delete(r.users, id)
	r.logger.Debug().Uint32("user_id", id).Msg("user removed")
}

// Name returns the display name for id.
func (r *Registry) Name(id uint32) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.users[id]
	return name, ok
}

// Names returns every display name in registration order (ascending ID),
// the order list messages are sent in.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint32, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.users[id]
	}
	return names
}

// NamesOf maps the given user IDs to display names in ascending ID order,
// skipping IDs that are no longer registered.
func (r *Registry) NamesOf(ids []uint32) []string {
	sorted := make([]uint32, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if name, ok := r.users[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Users returns a snapshot of all registered users in ascending ID order.
func (r *Registry) Users() []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]User, 0, len(r.users))
	for id, name := range r.users {
		users = append(users, User{ID: id, Name: name})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
