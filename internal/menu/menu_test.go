// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package menu_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atriumworld/atrium/internal/menu"
)

const jukeboxScript = `
option{label = "Browse catalogue", action = "music_browse"}
option{label = "Play a track", action = "music_play", when = 'role == "area_manager" || role == "room_owner"'}
option{label = "Stop the music", action = "music_stop", when = 'role == "area_manager" || role == "room_owner"'}
option{label = "Hum along", action = "music_hum", when = 'medium != "voice"'}
`

func TestHost_Render_FiltersByEnvironment(t *testing.T) {
	h := menu.NewHost()
	defer h.Close()
	require.NoError(t, h.Load(context.Background(), "jukebox", jukeboxScript))

	guest, err := h.Render(context.Background(), "jukebox", menu.Env{"role": "", "medium": "text"})
	require.NoError(t, err)
	require.Len(t, guest, 2)
	assert.Equal(t, "music_browse", guest[0].Action)
	assert.Equal(t, "music_hum", guest[1].Action)

	manager, err := h.Render(context.Background(), "jukebox", menu.Env{"role": "area_manager", "medium": "voice"})
	require.NoError(t, err)
	require.Len(t, manager, 3)
	assert.Equal(t, "music_browse", manager[0].Action)
	assert.Equal(t, "music_play", manager[1].Action)
	assert.Equal(t, "music_stop", manager[2].Action)
}

func TestHost_Render_PreservesRegistrationOrder(t *testing.T) {
	h := menu.NewHost()
	defer h.Close()
	require.NoError(t, h.Load(context.Background(), "jukebox", jukeboxScript))

	opts, err := h.Render(context.Background(), "jukebox", menu.Env{"role": "room_owner", "medium": "text"})
	require.NoError(t, err)
	actions := make([]string, len(opts))
	for i, o := range opts {
		actions[i] = o.Action
	}
	assert.Equal(t, []string{"music_browse", "music_play", "music_stop", "music_hum"}, actions)
}

func TestHost_Render_ScriptsMayComputeOptions(t *testing.T) {
	h := menu.NewHost()
	defer h.Close()

	script := `
for i = 1, 3 do
  option{label = "Slot " .. i, action = "slot_" .. i}
end
`
	require.NoError(t, h.Load(context.Background(), "slots", script))
	opts, err := h.Render(context.Background(), "slots", nil)
	require.NoError(t, err)
	require.Len(t, opts, 3)
	assert.Equal(t, "Slot 2", opts[1].Label)
}

func TestHost_Load_Errors(t *testing.T) {
	h := menu.NewHost()
	defer h.Close()

	tests := []struct {
		name   string
		script string
	}{
		{"syntax error", `option{label = `},
		{"missing action", `option{label = "Play"}`},
		{"missing label", `option{action = "music_play"}`},
		{"bad condition", `option{label = "Play", action = "music_play", when = "role =="}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, h.Load(context.Background(), "bad", tt.script))
		})
	}

	_, err := h.Render(context.Background(), "bad", nil)
	assert.Error(t, err, "failed loads register nothing")
}

func TestHost_Render_UnknownMenu(t *testing.T) {
	h := menu.NewHost()
	defer h.Close()

	_, err := h.Render(context.Background(), "ghost", nil)
	assert.Error(t, err)
}

func TestHost_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jukebox.lua"), []byte(jukeboxScript), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a script"), 0o600))

	h := menu.NewHost()
	defer h.Close()
	require.NoError(t, h.LoadDir(context.Background(), dir))
	assert.Equal(t, []string{"jukebox"}, h.Menus())
}

func TestHost_SandboxBlocksFilesystem(t *testing.T) {
	h := menu.NewHost()
	defer h.Close()

	tests := []struct {
		name   string
		script string
	}{
		{"io library", `io.open("/etc/passwd")`},
		{"os library", `os.getenv("HOME")`},
		{"dofile", `dofile("/etc/passwd")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, h.Load(context.Background(), "escape", tt.script))
		})
	}
}

func TestHost_ClosedHostRejectsOperations(t *testing.T) {
	h := menu.NewHost()
	require.NoError(t, h.Load(context.Background(), "jukebox", jukeboxScript))
	h.Close()

	assert.Error(t, h.Load(context.Background(), "another", jukeboxScript))
	_, err := h.Render(context.Background(), "jukebox", nil)
	assert.Error(t, err)
}
