package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseWindow() Window {
	return Window{
		Name:     "Treatments",
		ResModel: "partner.treatment",
		Context:  map[string]any{},
		Target:   TargetCurrent,
		ViewMode: "tree,form",
		Views:    []View{{Mode: ViewTree}, {Mode: ViewForm}},
	}
}

func TestWindow_JSONListMode(t *testing.T) {
	raw, err := json.Marshal(baseWindow())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.NotContains(t, m, "res_id")
	assert.Equal(t, []any{[]any{false, "tree"}, []any{false, "form"}}, m["views"])
}

func TestWindow_OpenRecordDropsViews(t *testing.T) {
	w := baseWindow()
	w.OpenRecord("abc")

	raw, err := json.Marshal(w)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "abc", m["res_id"])
	assert.Equal(t, "form", m["view_mode"])
	assert.Equal(t, "current", m["target"])
	assert.NotContains(t, m, "views")
}

func TestWindow_CloneIsIndependent(t *testing.T) {
	base := baseWindow()
	c := base.Clone()
	c.Context["search_default_partner_id"] = "p1"
	c.OpenRecord("t1")

	assert.Empty(t, base.Context)
	assert.Len(t, base.Views, 2)
	assert.Nil(t, base.ResID)
}
