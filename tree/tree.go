// Package tree turns a flat list of media file paths into the view-model a
// browser needs to render a collapsible nested folder tree: one paragraph
// per file, one div per folder, one toggle button per non-root folder.
package tree

import (
	"strings"
	"time"
)

// BaseParent is the sentinel parent id assigned to the shared root's div.
// The root itself never gets a button.
const BaseParent = "base"

// Item is a single playable file plus an optional watched timestamp.
type Item struct {
	Path    string
	Watched *time.Time
}

// Para is a leaf entry rendered inside its parent folder's div.
type Para struct {
	Parent  string `json:"parent"`
	Display string `json:"display"`
	Watched string `json:"watched,omitempty"`
}

// Div is one collapsible folder container.
type Div struct {
	ID     string `json:"id"`
	Parent string `json:"parent"`
}

// Button toggles the visibility of its sibling div.
type Button struct {
	ID      string `json:"id"`
	Parent  string `json:"parent"`
	Sibling string `json:"sibling"`
	Display string `json:"display"`
}

// Model is the complete view-model for one library. Buttons and Divs are
// keyed by folder path, Paras by item path. The maps carry enough structure
// that a client can render the tree without any further path analysis;
// rendering order is the client's concern.
type Model struct {
	Buttons map[string]Button `json:"buttons"`
	Divs    map[string]Div    `json:"divs"`
	Paras   map[string]Para   `json:"paras"`
}

// splitLast splits a path at its final '/' separator. Callers guarantee the
// separator exists; the persistence layer only hands out well-formed paths.
func splitLast(p string) (dir, leaf string) {
	i := strings.LastIndex(p, "/")
	return p[:i], p[i+1:]
}

// Build groups items living under sharedRoot into the three collections.
// Every item path must be '/'-separated and sit strictly below sharedRoot;
// this is a precondition, not a runtime-checked contract.
func Build(sharedRoot string, items []Item) Model {
	m := Model{
		Buttons: make(map[string]Button),
		Divs:    make(map[string]Div),
		Paras:   make(map[string]Para, len(items)),
	}

	// The Divs map doubles as the visited set: first registration wins, and
	// each newly seen folder is queued for the upward ancestor walk.
	var pending []string
	register := func(folder string) {
		if _, ok := m.Divs[folder]; !ok {
			m.Divs[folder] = Div{ID: Sanitize(folder)}
			pending = append(pending, folder)
		}
	}

	register(sharedRoot)

	for _, it := range items {
		dir, leaf := splitLast(it.Path)
		p := Para{Parent: Sanitize(dir), Display: leaf}
		if it.Watched != nil {
			p.Watched = it.Watched.Format("2006-01-02")
		}
		m.Paras[it.Path] = p
		register(dir)
	}

	// Iterative walk instead of recursion: deep trees must not grow the
	// stack. Each folder is processed exactly once.
	for len(pending) > 0 {
		folder := pending[0]
		pending = pending[1:]

		d := m.Divs[folder]
		if folder == sharedRoot {
			d.Parent = BaseParent
			m.Divs[folder] = d
			continue
		}

		parent, leaf := splitLast(folder)
		d.Parent = Sanitize(parent)
		m.Divs[folder] = d
		m.Buttons[folder] = Button{
			ID:      d.ID + "_button",
			Parent:  d.Parent,
			Sibling: d.ID,
			Display: leaf,
		}
		register(parent)
	}

	return m
}
