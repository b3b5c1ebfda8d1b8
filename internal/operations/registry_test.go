package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newFakeStep("a")))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 1, r.Count())

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newFakeStep("")))
	assert.Error(t, r.Register(newFakeStep("a")), "duplicate IDs are rejected")
	assert.Equal(t, []string{"a"}, r.ListIDs())
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("a")))

	step, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", step.ID())

	_, err = r.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepNotFound))
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))
}

func TestRegistry_GetDependencyOrder(t *testing.T) {
	tests := []struct {
		name    string
		steps   []*fakeStep
		want    []string
		wantErr string
	}{
		{
			name:  "survey pipeline",
			steps: []*fakeStep{newFakeStep("ingest"), newFakeStep("match", "ingest"), newFakeStep("classify", "match"), newFakeStep("statistics", "classify"), newFakeStep("rank", "statistics"), newFakeStep("render", "rank")},
			want:  []string{"ingest", "match", "classify", "statistics", "rank", "render"},
		},
		{
			name:  "registered out of order",
			steps: []*fakeStep{newFakeStep("c", "b"), newFakeStep("b", "a"), newFakeStep("a")},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "ties keep registration order",
			steps: []*fakeStep{newFakeStep("root"), newFakeStep("z", "root"), newFakeStep("y", "root"), newFakeStep("x")},
			want:  []string{"root", "x", "z", "y"},
		},
		{
			name:    "missing dependency",
			steps:   []*fakeStep{newFakeStep("a", "ghost")},
			wantErr: "non-existent",
		},
		{
			name:    "cycle",
			steps:   []*fakeStep{newFakeStep("a", "b"), newFakeStep("b", "a")},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}

			ordered, err := r.GetDependencyOrder()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepIDs(ordered))
		})
	}
}

func TestRegistry_GetDependents(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("a")))
	require.NoError(t, r.Register(newFakeStep("b", "a")))
	require.NoError(t, r.Register(newFakeStep("c", "a", "b")))
	require.NoError(t, r.Register(newFakeStep("d", "c")))

	assert.Equal(t, []string{"b", "c"}, stepIDs(r.GetDependents("a")))
	assert.Equal(t, []string{"d"}, stepIDs(r.GetDependents("c")))
	assert.Empty(t, r.GetDependents("d"))
}
