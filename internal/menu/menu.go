// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package menu loads interactable menu definitions. A definition is a Lua
// script that registers options; each option carries an action tag and an
// optional availability condition in a small comparison language.
package menu

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// Option is one selectable menu entry.
type Option struct {
	Label  string
	Action string
	When   *Condition // nil means always visible
}

// script holds validated Lua source for one menu.
type script struct {
	name string
	code string
}

// Host manages menu scripts. Scripts run in fresh sandboxed states per
// render, so a buggy script cannot poison later renders.
type Host struct {
	factory *stateFactory
	mu      sync.RWMutex
	scripts map[string]*script
	closed  bool
}

// NewHost creates a menu host.
func NewHost() *Host {
	return &Host{
		factory: newStateFactory(),
		scripts: make(map[string]*script),
	}
}

// Load validates and registers a menu script under name. Validation runs
// the script in a throwaway state and parses every registered option's
// condition, so bad scripts fail at load time rather than at first use.
func (h *Host) Load(ctx context.Context, name, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return oops.In("menu").With("menu", name).With("operation", "load").New("host is closed")
	}

	if _, err := h.run(ctx, name, source); err != nil {
		return err
	}

	h.scripts[name] = &script{name: name, code: source}
	return nil
}

// LoadDir loads every .lua file in dir; the menu name is the file name
// without extension.
func (h *Host) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return oops.In("menu").With("dir", dir).Hint("failed to read menu directory").Wrap(err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		code, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return oops.In("menu").With("path", path).Hint("failed to read menu script").Wrap(err)
		}
		name := strings.TrimSuffix(entry.Name(), ".lua")
		if err := h.Load(ctx, name, string(code)); err != nil {
			return err
		}
	}
	return nil
}

// Menus returns the names of loaded menus.
func (h *Host) Menus() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.scripts))
	for name := range h.scripts {
		names = append(names, name)
	}
	return names
}

// Render executes the named menu script and returns the options visible
// under env, in registration order.
func (h *Host) Render(ctx context.Context, name string, env Env) ([]Option, error) {
	h.mu.RLock()
	s, ok := h.scripts[name]
	var code string
	if ok {
		code = s.code
	}
	closed := h.closed
	h.mu.RUnlock()

	if closed {
		return nil, oops.In("menu").With("menu", name).With("operation", "render").New("host is closed")
	}
	if !ok {
		return nil, oops.In("menu").With("menu", name).With("operation", "render").New("menu not loaded")
	}

	options, err := h.run(ctx, name, code)
	if err != nil {
		return nil, err
	}

	visible := make([]Option, 0, len(options))
	for _, opt := range options {
		if opt.When == nil || opt.When.Eval(env) {
			visible = append(visible, opt)
		}
	}
	return visible, nil
}

// Close shuts down the host.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.scripts = nil
}

// run executes source in a fresh state with the option() collector
// registered and returns every option it registered.
func (h *Host) run(ctx context.Context, name, source string) ([]Option, error) {
	L, err := h.factory.newState(ctx)
	if err != nil {
		return nil, oops.In("menu").With("menu", name).Hint("failed to create state").Wrap(err)
	}
	defer L.Close()
	L.SetContext(ctx)

	var (
		options  []Option
		parseErr error
	)
	L.SetGlobal("option", L.NewFunction(func(l *lua.LState) int {
		tbl := l.CheckTable(1)
		opt := Option{
			Label:  lua.LVAsString(tbl.RawGetString("label")),
			Action: lua.LVAsString(tbl.RawGetString("action")),
		}
		if opt.Label == "" || opt.Action == "" {
			parseErr = oops.In("menu").
				With("menu", name).
				Code("INVALID_OPTION").
				New("option requires label and action")
			l.RaiseError("option requires label and action")
			return 0
		}
		if when := tbl.RawGetString("when"); when != lua.LNil {
			cond, err := ParseCondition(lua.LVAsString(when))
			if err != nil {
				parseErr = err
				l.RaiseError("invalid condition: %s", err.Error())
				return 0
			}
			opt.When = cond
		}
		options = append(options, opt)
		return 0
	}))

	if err := L.DoString(source); err != nil {
		if parseErr != nil {
			return nil, parseErr
		}
		return nil, oops.In("menu").With("menu", name).Hint("script error").Wrap(err)
	}
	return options, nil
}
