// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package admin_test

import (
	"context"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/atriumworld/atrium/internal/admin"
)

// flakySink fails the first failures deliveries, then succeeds.
type flakySink struct {
	mu       sync.Mutex
	failures int
	got      []admin.Notification
}

func (s *flakySink) Notify(_ context.Context, n admin.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return oops.Code("SINK_UNAVAILABLE").Errorf("transient delivery failure")
	}
	s.got = append(s.got, n)
	return nil
}

func (s *flakySink) delivered() []admin.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]admin.Notification, len(s.got))
	copy(out, s.got)
	return out
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &flakySink{}
	d := admin.NewDispatcher(sink)

	target := ulid.Make()
	for _, key := range []string{"first", "second", "third"} {
		require.NoError(t, d.Notify(context.Background(), admin.Notification{TargetID: target, TemplateKey: key}))
	}
	d.Close()

	got := sink.delivered()
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].TemplateKey)
	assert.Equal(t, "second", got[1].TemplateKey)
	assert.Equal(t, "third", got[2].TemplateKey)
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &flakySink{failures: 2}
	d := admin.NewDispatcher(sink)

	require.NoError(t, d.Notify(context.Background(), admin.Notification{TemplateKey: "eventually"}))
	d.Close()

	got := sink.delivered()
	require.Len(t, got, 1)
	assert.Equal(t, "eventually", got[0].TemplateKey)
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := admin.NewDispatcher(&flakySink{})
	d.Close()
	d.Close()
}
