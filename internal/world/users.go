// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package world

import (
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User is a connected participant. Location is nil while the user has not
// yet entered a world; BoundTo is the interactable the user is currently
// interacting with, empty if none.
type User struct {
	ID       ulid.ULID
	Name     string
	Location *Location
	BoundTo  ContextID
}

// copyUser returns a defensive copy so callers cannot mutate registry state.
func copyUser(u *User) *User {
	c := *u
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	return &c
}

// Registry tracks connected users.
type Registry struct {
	mu    sync.RWMutex
	users map[ulid.ULID]*User
}

// NewRegistry creates an empty user registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[ulid.ULID]*User)}
}

// Add registers a user. The ID is generated if zero. Returns a copy.
func (r *Registry) Add(name string) *User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := &User{ID: ulid.Make(), Name: name}
	r.users[u.ID] = u
	return copyUser(u)
}

// Get returns a copy of the user, or ErrUserNotFound.
func (r *Registry) Get(id ulid.ULID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, oops.With("user_id", id.String()).Wrap(ErrUserNotFound)
	}
	return copyUser(u), nil
}

// Remove deletes the user from the registry.
func (r *Registry) Remove(id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return oops.With("user_id", id.String()).Wrap(ErrUserNotFound)
	}
	delete(r.users, id)
	return nil
}

// SetLocation updates the user's location. A nil location means the user
// left all worlds.
func (r *Registry) SetLocation(id ulid.ULID, loc *Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return oops.With("user_id", id.String()).Wrap(ErrUserNotFound)
	}
	if loc == nil {
		u.Location = nil
		return nil
	}
	l := *loc
	u.Location = &l
	return nil
}

// SetBound records the interactable the user is bound to; empty unbinds.
func (r *Registry) SetBound(id ulid.ULID, target ContextID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return oops.With("user_id", id.String()).Wrap(ErrUserNotFound)
	}
	u.BoundTo = target
	return nil
}

// List returns copies of all registered users.
func (r *Registry) List() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, copyUser(u))
	}
	return out
}
