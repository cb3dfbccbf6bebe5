// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package access

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Locator provides the spatial chain permission resolution walks. It
// mirrors the world package's surface to avoid coupling access to it.
type Locator interface {
	// AreaOf returns the ID of the innermost context the user occupies.
	// An error means the user has no resolvable location; resolution then
	// treats the chain as empty and every check fails closed.
	AreaOf(userID ulid.ULID) (string, error)

	// Ancestors returns the chain from the context up through the root,
	// self-inclusive.
	Ancestors(contextID string) ([]string, error)
}

// compiledPermission holds a permission pattern and its compiled glob.
type compiledPermission struct {
	pattern string
	glob    glob.Glob
}

// Control resolves roles and permissions over the context chain.
//
// Thread-safety: roles is immutable after construction; assignments is
// guarded by mu.
type Control struct {
	roles       map[Role][]compiledPermission
	assignments map[ulid.ULID]map[string][]Role // userID → contextID → roles
	locator     Locator
	mu          sync.RWMutex
}

// NewControl creates a Control with the default role definitions.
//
// Panics if the default definitions contain an invalid pattern
// (configuration bug, fail fast).
func NewControl(locator Locator) *Control {
	c, err := NewControlWithRoles(DefaultRoles(), locator)
	if err != nil {
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return c
}

// NewControlWithRoles creates a Control with custom role definitions.
// Returns an error if any permission pattern fails to compile.
func NewControlWithRoles(roles map[Role][]string, locator Locator) (*Control, error) {
	compiled := make(map[Role][]compiledPermission, len(roles))
	for role, perms := range roles {
		set := make([]compiledPermission, 0, len(perms))
		for _, p := range perms {
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role.String()).
					With("pattern", p).
					Wrap(err)
			}
			set = append(set, compiledPermission{pattern: p, glob: g})
		}
		compiled[role] = set
	}

	return &Control{
		roles:       compiled,
		assignments: make(map[ulid.ULID]map[string][]Role),
		locator:     locator,
	}, nil
}

// Assign grants the user a role in the given context. Assigning a role the
// user already holds there is a no-op.
func (c *Control) Assign(userID ulid.ULID, contextID string, role Role) error {
	if _, known := c.roles[role]; !known {
		return oops.In("access").Code("UNKNOWN_ROLE").With("role", role.String()).Errorf("unknown role")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	byContext, ok := c.assignments[userID]
	if !ok {
		byContext = make(map[string][]Role)
		c.assignments[userID] = byContext
	}
	for _, held := range byContext[contextID] {
		if held == role {
			return nil
		}
	}
	byContext[contextID] = append(byContext[contextID], role)
	return nil
}

// Withdraw removes a role the user holds in the given context. Withdrawing
// a role not held is a no-op.
func (c *Control) Withdraw(userID ulid.ULID, contextID string, role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byContext, ok := c.assignments[userID]
	if !ok {
		return
	}
	held := byContext[contextID]
	for i, r := range held {
		if r == role {
			byContext[contextID] = append(held[:i], held[i+1:]...)
			break
		}
	}
	if len(byContext[contextID]) == 0 {
		delete(byContext, contextID)
	}
	if len(byContext) == 0 {
		delete(c.assignments, userID)
	}
}

// RolesAt returns the roles the user holds directly in the context.
func (c *Control) RolesAt(userID ulid.ULID, contextID string) []Role {
	c.mu.RLock()
	defer c.mu.RUnlock()

	held := c.assignments[userID][contextID]
	out := make([]Role, len(held))
	copy(out, held)
	return out
}

// Snapshot returns every (context, role) assignment per user. Used by the
// persistence collaborator at snapshot boundaries.
func (c *Control) Snapshot() map[ulid.ULID]map[string][]Role {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[ulid.ULID]map[string][]Role, len(c.assignments))
	for user, byContext := range c.assignments {
		m := make(map[string][]Role, len(byContext))
		for ctx, held := range byContext {
			roles := make([]Role, len(held))
			copy(roles, held)
			m[ctx] = roles
		}
		out[user] = m
	}
	return out
}

// HasPermission reports whether any role on the user's context chain
// (current area up to Global) grants the permission. Never an error: users
// without a location simply have no permissions.
func (c *Control) HasPermission(userID ulid.ULID, permission string) bool {
	return c.hasOnChain(userID, c.chain(userID), func(r Role) bool {
		return c.roleGrants(r, permission)
	})
}

// HasPermissionAt is HasPermission with the walk anchored at an explicit
// context instead of the user's current area. Used for preconditions that
// name a context (room invites, area management).
func (c *Control) HasPermissionAt(userID ulid.ULID, contextID string, permission string) bool {
	chain, err := c.locator.Ancestors(contextID)
	if err != nil {
		return false
	}
	return c.hasOnChain(userID, chain, func(r Role) bool {
		return c.roleGrants(r, permission)
	})
}

// HasRole reports whether the user holds the role anywhere on their context
// chain. Used for role-specific preconditions.
func (c *Control) HasRole(userID ulid.ULID, role Role) bool {
	return c.hasOnChain(userID, c.chain(userID), func(r Role) bool {
		return r == role
	})
}

// HighestRole collects every role on the user's context chain and returns
// the one earliest in display priority, or RoleNone.
func (c *Control) HighestRole(userID ulid.ULID) Role {
	found := make(map[Role]struct{})
	c.hasOnChain(userID, c.chain(userID), func(r Role) bool {
		found[r] = struct{}{}
		return false // keep walking, collect everything
	})
	for _, r := range displayPriority {
		if _, ok := found[r]; ok {
			return r
		}
	}
	return RoleNone
}

// chain resolves the user's current ancestor chain, empty on any failure
// (fail-closed).
func (c *Control) chain(userID ulid.ULID) []string {
	areaID, err := c.locator.AreaOf(userID)
	if err != nil {
		return nil
	}
	chain, err := c.locator.Ancestors(areaID)
	if err != nil {
		return nil
	}
	return chain
}

// hasOnChain walks every context on the chain and applies pred to each role
// the user holds there. All roles within one context are visible to the
// walk simultaneously.
func (c *Control) hasOnChain(userID ulid.ULID, chain []string, pred func(Role) bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byContext := c.assignments[userID]
	if byContext == nil {
		return false
	}
	for _, contextID := range chain {
		for _, role := range byContext[contextID] {
			if pred(role) {
				return true
			}
		}
	}
	return false
}

// roleGrants reports whether the role's compiled permission set matches the
// permission.
func (c *Control) roleGrants(role Role, permission string) bool {
	for _, perm := range c.roles[role] {
		if perm.glob.Match(permission) {
			return true
		}
	}
	return false
}
