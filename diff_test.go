package activitylog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mickamy/activitylog"
)

func TestReduce(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name      string
		attrs     *activitylog.Snapshot
		staged    *activitylog.Snapshot
		onlyDirty bool
		withOld   bool
		wantAttrs []string
		wantOld   []string
	}{
		{
			name:      "no old values",
			attrs:     activitylog.SnapshotOf("a", 1, "b", 2),
			staged:    activitylog.SnapshotOf("a", 1),
			onlyDirty: true,
			wantAttrs: []string{"a", "b"},
		},
		{
			name:      "old defaults to nil and overlays staged",
			attrs:     activitylog.SnapshotOf("a", 1, "b", 2),
			staged:    activitylog.SnapshotOf("a", 0, "gone", 9),
			withOld:   true,
			wantAttrs: []string{"a", "b"},
			wantOld:   []string{"a", "b", "gone"},
		},
		{
			name:      "dirty scalars",
			attrs:     activitylog.SnapshotOf("a", 1, "b", 2, "c", nil),
			staged:    activitylog.SnapshotOf("a", 1, "b", 3, "c", nil),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{"b"},
			wantOld:   []string{"b"},
		},
		{
			name:      "new key counts as dirty against nil",
			attrs:     activitylog.SnapshotOf("a", 1),
			staged:    activitylog.SnapshotOf(),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{"a"},
			wantOld:   []string{"a"},
		},
		{
			name:      "relation projection compared as a set",
			attrs:     activitylog.SnapshotOf("tags.label", []any{"b", "a", "a"}),
			staged:    activitylog.SnapshotOf("tags.label", []any{"a", "b"}),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{},
			wantOld:   []string{},
		},
		{
			name:      "removed relation member is dirty",
			attrs:     activitylog.SnapshotOf("tags.label", []any{"a"}),
			staged:    activitylog.SnapshotOf("tags.label", []any{"a", "b"}),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{"tags.label"},
			wantOld:   []string{"tags.label"},
		},
		{
			name:      "empty projection against missing old is clean",
			attrs:     activitylog.SnapshotOf("tags.label", []any{}),
			staged:    activitylog.SnapshotOf(),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{},
			wantOld:   []string{},
		},
		{
			name:      "plain sequences are never pruned",
			attrs:     activitylog.SnapshotOf("roles", []any{"a"}, "meta", map[string]any{"k": "v"}),
			staged:    activitylog.SnapshotOf("roles", []any{"a"}, "meta", map[string]any{"k": "v"}),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{"roles", "meta"},
			wantOld:   []string{"roles", "meta"},
		},
		{
			name:      "byte slices compare as scalars",
			attrs:     activitylog.SnapshotOf("blob", []byte("x")),
			staged:    activitylog.SnapshotOf("blob", []byte("x")),
			onlyDirty: true,
			withOld:   true,
			wantAttrs: []string{},
			wantOld:   []string{},
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			staged := activitylog.NewStaged(activitylog.EventUpdated, tc.staged)
			p := activitylog.Reduce(tc.attrs, staged, tc.onlyDirty, tc.withOld)

			assert.ElementsMatch(t, tc.wantAttrs, p.Attributes.Keys())
			assert.Equal(t, len(tc.wantAttrs), p.Attributes.Len())
			if tc.wantOld == nil {
				assert.Nil(t, p.Old)
				return
			}
			assert.Equal(t, len(tc.wantOld), p.Old.Len())
			for i, k := range p.Old.Keys() {
				assert.Equal(t, tc.wantOld[i], k)
			}
			assert.Nil(t, staged.Old(), "staged snapshot is consumed")
		})
	}
}

func TestReduce_DirtyInvariant(t *testing.T) {
	t.Parallel()

	attrs := activitylog.SnapshotOf("a", 1, "b", "x", "c", 3.5, "d.e", []any{1, 2})
	old := activitylog.SnapshotOf("a", 2, "b", "x", "c", 3.5, "d.e", []any{2})
	p := activitylog.Reduce(attrs, activitylog.NewStaged(activitylog.EventUpdated, old), true, true)

	for _, k := range p.Attributes.Keys() {
		assert.NotEqual(t, old.Value(k), p.Attributes.Value(k), k)
		assert.Equal(t, old.Value(k), p.Old.Value(k), k)
	}
	for _, k := range attrs.Keys() {
		if !p.Attributes.Has(k) {
			assert.Equal(t, old.Value(k), attrs.Value(k), k)
		}
	}
	assert.Equal(t, []string{"a", "d.e"}, p.Attributes.Keys())
}
