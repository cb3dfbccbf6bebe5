// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package world

import (
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/atriumworld/atrium/internal/geometry"
)

// Tree is the arena of context nodes. All structural mutation goes through
// Tree methods; nodes are addressed by ID, so detaching a subtree can never
// create a cycle.
//
// Thread-safety: the arena map and membership sets are guarded by mu.
// Payload mutation on resolved nodes is serialized by the engine's
// per-world lock.
type Tree struct {
	mu    sync.RWMutex
	nodes map[ContextID]*Context
}

// NewTree creates a tree holding only the Global root.
func NewTree() *Tree {
	root := &Context{
		ID:        GlobalID,
		Name:      "Global",
		Kind:      KindGlobal,
		contained: make(map[ulid.ULID]struct{}),
	}
	return &Tree{nodes: map[ContextID]*Context{GlobalID: root}}
}

// Resolve returns the context with the given ID.
// Returns ErrContextNotFound for unknown IDs; the caller decides fallback.
func (t *Tree) Resolve(id ContextID) (*Context, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolveLocked(id)
}

func (t *Tree) resolveLocked(id ContextID) (*Context, error) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, oops.With("context_id", id.String()).Wrap(ErrContextNotFound)
	}
	return node, nil
}

// Has reports whether the ID exists in the tree.
func (t *Tree) Has(id ContextID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// AddChild attaches a new context under parentID. The child's ID and
// ParentID are derived here; the caller supplies name, kind and payloads.
// If the child carries an expanse and the parent does too, the child's
// expanse must be fully contained (ErrExpanseOutOfBounds).
func (t *Tree) AddChild(parentID ContextID, child *Context) (*Context, error) {
	if err := child.Kind.Validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent, err := t.resolveLocked(parentID)
	if err != nil {
		return nil, err
	}

	child.ID = parentID.Child(child.Name)
	child.ParentID = parentID
	if _, exists := t.nodes[child.ID]; exists {
		return nil, oops.With("context_id", child.ID.String()).Wrap(ErrDuplicateContext)
	}

	if child.Area != nil && child.Area.Expanse != nil &&
		parent.Area != nil && parent.Area.Expanse != nil &&
		!parent.Area.Expanse.ContainsExpanse(*child.Area.Expanse) {
		return nil, oops.
			With("context_id", child.ID.String()).
			With("parent_id", parentID.String()).
			Wrap(ErrExpanseOutOfBounds)
	}

	if child.contained == nil {
		child.contained = make(map[ulid.ULID]struct{})
	}

	t.nodes[child.ID] = child
	parent.Children = append(parent.Children, child.ID)
	return child, nil
}

// RemoveChild detaches the context and destroys its whole subtree.
// The Global root cannot be removed.
func (t *Tree) RemoveChild(id ContextID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, err := t.resolveLocked(id)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return oops.Hint("cannot remove the Global root").Wrap(ErrIllegalState)
	}

	parent := t.nodes[node.ParentID]
	for i, cid := range parent.Children {
		if cid == id {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	t.destroyLocked(node)
	return nil
}

func (t *Tree) destroyLocked(node *Context) {
	for _, cid := range node.Children {
		if child, ok := t.nodes[cid]; ok {
			t.destroyLocked(child)
		}
	}
	delete(t.nodes, node.ID)
}

// AreaContaining returns the most deeply nested descendant of id whose
// expanse contains p, or the context itself if no child matches. The result
// is always a descendant-or-self of id.
func (t *Tree) AreaContaining(id ContextID, p geometry.Point) (*Context, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, err := t.resolveLocked(id)
	if err != nil {
		return nil, err
	}
	return t.descendLocked(node, p), nil
}

func (t *Tree) descendLocked(node *Context, p geometry.Point) *Context {
	for _, cid := range node.Children {
		child, ok := t.nodes[cid]
		if !ok || child.Area == nil || child.Area.Expanse == nil {
			continue
		}
		if child.Area.Expanse.ContainsPoint(p) {
			// First matching child wins; recurse into it.
			return t.descendLocked(child, p)
		}
	}
	return node
}

// Ancestors returns the chain from the context up through Global,
// self-inclusive. The slice is freshly allocated on every call, so the walk
// is restartable.
func (t *Tree) Ancestors(id ContextID) ([]ContextID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, err := t.resolveLocked(id)
	if err != nil {
		return nil, err
	}

	var chain []ContextID
	for {
		chain = append(chain, node.ID)
		if node.IsRoot() {
			return chain, nil
		}
		node = t.nodes[node.ParentID]
	}
}

// WorldOf returns the enclosing world context of id, or ErrContextNotFound
// if id is unknown, or ErrIllegalState if the chain holds no world (e.g.
// the Global root itself).
func (t *Tree) WorldOf(id ContextID) (*Context, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, err := t.resolveLocked(id)
	if err != nil {
		return nil, err
	}
	for {
		if node.Kind == KindWorld {
			return node, nil
		}
		if node.IsRoot() {
			return nil, oops.With("context_id", id.String()).Hint("no world in ancestor chain").Wrap(ErrIllegalState)
		}
		node = t.nodes[node.ParentID]
	}
}

// Contained returns the users present at or below the context. Unknown IDs
// report empty.
func (t *Tree) Contained(id ContextID) []ulid.ULID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]ulid.ULID, 0, len(node.contained))
	for userID := range node.contained {
		out = append(out, userID)
	}
	return out
}

// Contains reports whether the user is present at or below the context.
func (t *Tree) Contains(id ContextID, userID ulid.ULID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok {
		return false
	}
	_, ok = node.contained[userID]
	return ok
}

// AreaMusic returns the track playing in the context, empty if none.
func (t *Tree) AreaMusic(id ContextID) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[id]
	if !ok || node.Area == nil {
		return ""
	}
	return node.Area.Music
}

// SetAreaMusic records the track playing in the context. An empty track
// clears it.
func (t *Tree) SetAreaMusic(id ContextID, track string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[id]
	if !ok {
		return oops.With("context_id", id.String()).Wrap(ErrContextNotFound)
	}
	if node.Area == nil {
		return oops.With("context_id", id.String()).Hint("context has no spatial payload").Wrap(ErrIllegalState)
	}
	node.Area.Music = track
	return nil
}

// IsBanned reports whether the user is in the world's ban set.
func (t *Tree) IsBanned(worldID ContextID, userID ulid.ULID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, ok := t.nodes[worldID]
	if !ok || node.World == nil {
		return false
	}
	_, banned := node.World.Banned[userID]
	return banned
}

// SetBanned adds or removes the user in the world's ban set, reporting
// whether the set changed.
func (t *Tree) SetBanned(worldID ContextID, userID ulid.ULID, banned bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[worldID]
	if !ok {
		return false, oops.With("context_id", worldID.String()).Wrap(ErrContextNotFound)
	}
	if node.World == nil {
		return false, oops.With("context_id", worldID.String()).Hint("not a world").Wrap(ErrIllegalState)
	}
	_, has := node.World.Banned[userID]
	if banned {
		if has {
			return false, nil
		}
		if node.World.Banned == nil {
			node.World.Banned = make(map[ulid.ULID]struct{})
		}
		node.World.Banned[userID] = struct{}{}
		return true, nil
	}
	if !has {
		return false, nil
	}
	delete(node.World.Banned, userID)
	return true, nil
}

// setMembership adjusts the contained sets along oldChain and newChain,
// reporting the IDs the user actually left and entered (in leaf-to-root
// order). Chains may be nil.
func (t *Tree) setMembership(userID ulid.ULID, oldChain, newChain []ContextID) (left, entered []ContextID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inNew := make(map[ContextID]struct{}, len(newChain))
	for _, id := range newChain {
		inNew[id] = struct{}{}
	}
	inOld := make(map[ContextID]struct{}, len(oldChain))
	for _, id := range oldChain {
		inOld[id] = struct{}{}
	}

	for _, id := range oldChain {
		if _, keep := inNew[id]; keep {
			continue
		}
		if node, ok := t.nodes[id]; ok {
			delete(node.contained, userID)
			left = append(left, id)
		}
	}
	for _, id := range newChain {
		if _, had := inOld[id]; had {
			continue
		}
		if node, ok := t.nodes[id]; ok {
			node.contained[userID] = struct{}{}
			entered = append(entered, id)
		}
	}
	return left, entered
}
