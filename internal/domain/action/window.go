// Package action holds window action descriptors returned to UI clients.
// A descriptor tells the client which model to open and in which view.
package action

import (
	"encoding/json"
	"maps"
)

// Targets.
const (
	TargetCurrent = "current"
	TargetNew     = "new"
)

// View modes.
const (
	ViewTree = "tree"
	ViewForm = "form"
)

// View is one (view id, mode) pair; a nil ID means the default view.
type View struct {
	ID   *string
	Mode string
}

// MarshalJSON renders the view as a [id, mode] pair.
func (v View) MarshalJSON() ([]byte, error) {
	var id any = false
	if v.ID != nil {
		id = *v.ID
	}
	return json.Marshal([]any{id, v.Mode})
}

// Window opens a model in the client.
type Window struct {
	Name     string         `json:"name"`
	ResModel string         `json:"res_model"`
	Context  map[string]any `json:"context"`
	ResID    *string        `json:"res_id,omitempty"`
	Target   string         `json:"target"`
	ViewMode string         `json:"view_mode"`
	Views    []View         `json:"views,omitempty"`
}

// Clone returns a deep enough copy to be mutated per request.
func (w Window) Clone() Window {
	out := w
	out.Context = maps.Clone(w.Context)
	if w.Views != nil {
		out.Views = append([]View(nil), w.Views...)
	}
	if w.ResID != nil {
		rid := *w.ResID
		out.ResID = &rid
	}
	return out
}

// OpenRecord switches the descriptor to the form of a single record.
func (w *Window) OpenRecord(recordID string) {
	w.ResID = &recordID
	w.Target = TargetCurrent
	w.ViewMode = ViewForm
	w.Views = nil
}
