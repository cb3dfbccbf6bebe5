// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// pairKey is an order-normalized user pair for symmetric relations.
type pairKey struct {
	lo, hi ulid.ULID
}

func newPairKey(a, b ulid.ULID) pairKey {
	if b.Compare(a) < 0 {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Relations holds the relational state between users: the symmetric friend
// set, pending friend invites, directed ignore flags, and per-context mute
// and report flags. These are not roles; they gate whether actions are even
// offered, independent of permission.
//
// Compound mutations (ignore removing a friendship, invite clearing an
// ignore) happen under a single lock acquisition so no action observes
// half-updated state.
type Relations struct {
	mu      sync.RWMutex
	friends map[pairKey]struct{}
	invites map[ulid.ULID]map[ulid.ULID]struct{} // inviter → invitees
	ignores map[ulid.ULID]map[ulid.ULID]struct{} // ignorer → ignored
	mutes   map[string]map[ulid.ULID]struct{}    // contextID → muted users
	reports map[string]map[ulid.ULID]map[ulid.ULID]struct{} // contextID → target → reporters
}

// NewRelations creates empty relation state.
func NewRelations() *Relations {
	return &Relations{
		friends: make(map[pairKey]struct{}),
		invites: make(map[ulid.ULID]map[ulid.ULID]struct{}),
		ignores: make(map[ulid.ULID]map[ulid.ULID]struct{}),
		mutes:   make(map[string]map[ulid.ULID]struct{}),
		reports: make(map[string]map[ulid.ULID]map[ulid.ULID]struct{}),
	}
}

// AreFriends reports whether a and b are friends.
func (r *Relations) AreFriends(a, b ulid.ULID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.friends[newPairKey(a, b)]
	return ok
}

// Befriend records a friendship and clears any pending invites between the
// pair, in either direction.
func (r *Relations) Befriend(a, b ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.friends[newPairKey(a, b)] = struct{}{}
	deleteNested(r.invites, a, b)
	deleteNested(r.invites, b, a)
}

// Unfriend removes a friendship (mutual by construction).
func (r *Relations) Unfriend(a, b ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.friends, newPairKey(a, b))
}

// InviteFriend records a pending invite from inviter to invitee, clearing
// any ignore the inviter held against the invitee as a side effect of the
// successful send.
func (r *Relations) InviteFriend(inviter, invitee ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addNested(r.invites, inviter, invitee)
	deleteNested(r.ignores, inviter, invitee)
}

// HasInvite reports whether a pending invite from inviter to invitee exists.
func (r *Relations) HasInvite(inviter, invitee ulid.ULID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.invites[inviter][invitee]
	return ok
}

// ClearInvite removes a pending invite.
func (r *Relations) ClearInvite(inviter, invitee ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleteNested(r.invites, inviter, invitee)
}

// Ignore sets the directed ignore flag and severs any friendship between
// the pair as a side effect.
func (r *Relations) Ignore(ignorer, ignored ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addNested(r.ignores, ignorer, ignored)
	delete(r.friends, newPairKey(ignorer, ignored))
}

// Unignore clears the directed ignore flag. Friendships severed by Ignore
// are not resurrected.
func (r *Relations) Unignore(ignorer, ignored ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleteNested(r.ignores, ignorer, ignored)
}

// Ignores reports whether ignorer has ignored ignored.
func (r *Relations) Ignores(ignorer, ignored ulid.ULID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ignores[ignorer][ignored]
	return ok
}

// Mute flags the user as muted in the context.
func (r *Relations) Mute(contextID string, userID ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutes[contextID] == nil {
		r.mutes[contextID] = make(map[ulid.ULID]struct{})
	}
	r.mutes[contextID][userID] = struct{}{}
}

// Unmute clears the user's mute flag in the context.
func (r *Relations) Unmute(contextID string, userID ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mutes[contextID], userID)
}

// IsMuted reports whether the user is muted in the context.
func (r *Relations) IsMuted(contextID string, userID ulid.ULID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.mutes[contextID][userID]
	return ok
}

// Report records that reporter reported target in the context.
func (r *Relations) Report(contextID string, reporter, target ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reports[contextID] == nil {
		r.reports[contextID] = make(map[ulid.ULID]map[ulid.ULID]struct{})
	}
	if r.reports[contextID][target] == nil {
		r.reports[contextID][target] = make(map[ulid.ULID]struct{})
	}
	r.reports[contextID][target][reporter] = struct{}{}
}

// ReportersOf returns who reported the target in the context.
func (r *Relations) ReportersOf(contextID string, target ulid.ULID) []ulid.ULID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reporters := r.reports[contextID][target]
	out := make([]ulid.ULID, 0, len(reporters))
	for id := range reporters {
		out = append(out, id)
	}
	return out
}

// ClearReports drops all reports against the target in the context. Called
// when a warning is issued against the target.
func (r *Relations) ClearReports(contextID string, target ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reports[contextID], target)
}

// Blocked implements comm.RelationFilter: a pair is blocked when either has
// the other ignored or either is muted in the context. Banned users never
// appear in a context's contained set, so bans need no check here.
func (r *Relations) Blocked(contextID string, a, b ulid.ULID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.ignores[a][b]; ok {
		return true
	}
	if _, ok := r.ignores[b][a]; ok {
		return true
	}
	if _, ok := r.mutes[contextID][a]; ok {
		return true
	}
	if _, ok := r.mutes[contextID][b]; ok {
		return true
	}
	return false
}

// SnapshotFriends returns every friend pair in lo/hi order, suitable for
// persistence.
func (r *Relations) SnapshotFriends() [][2]ulid.ULID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][2]ulid.ULID, 0, len(r.friends))
	for key := range r.friends {
		out = append(out, [2]ulid.ULID{key.lo, key.hi})
	}
	return out
}

// SnapshotIgnores returns every directed ignore as [ignorer, ignored].
func (r *Relations) SnapshotIgnores() [][2]ulid.ULID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out [][2]ulid.ULID
	for ignorer, ignored := range r.ignores {
		for target := range ignored {
			out = append(out, [2]ulid.ULID{ignorer, target})
		}
	}
	return out
}

func addNested(m map[ulid.ULID]map[ulid.ULID]struct{}, outer, inner ulid.ULID) {
	if m[outer] == nil {
		m[outer] = make(map[ulid.ULID]struct{})
	}
	m[outer][inner] = struct{}{}
}

func deleteNested(m map[ulid.ULID]map[ulid.ULID]struct{}, outer, inner ulid.ULID) {
	delete(m[outer], inner)
	if len(m[outer]) == 0 {
		delete(m, outer)
	}
}
