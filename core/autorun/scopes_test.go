package autorun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyTargets(t *testing.T) {
	registered := []NotifyKey{
		{Institution: "central", Grade: "grade1"},
		{Institution: "central", Grade: "grade2"},
		{Institution: "north", Grade: "grade1"},
	}

	t.Run("all reaches every registered group", func(t *testing.T) {
		targets := NotifyTargets([]string{"ALL"}, registered)
		assert.ElementsMatch(t, registered, targets)
	})

	t.Run("institution filters registered groups", func(t *testing.T) {
		targets := NotifyTargets([]string{"central"}, registered)
		assert.ElementsMatch(t, registered[:2], targets)
	})

	t.Run("grade scope targets its group even when offline", func(t *testing.T) {
		targets := NotifyTargets([]string{"south/grade5"}, registered)
		assert.Equal(t, []NotifyKey{{Institution: "south", Grade: "grade5"}}, targets)
	})

	t.Run("class scope collapses to its grade group", func(t *testing.T) {
		targets := NotifyTargets([]string{"central/grade1/class1", "central/grade1/class2"}, registered)
		assert.Equal(t, []NotifyKey{{Institution: "central", Grade: "grade1"}}, targets)
	})
}

func TestExpandScope(t *testing.T) {
	cfg := newTestStore(t)
	ctx := context.Background()

	paths, err := expandScope(ctx, cfg, []string{"central/grade1/class9"})
	require.NoError(t, err)
	assert.Equal(t, []classPath{{"central", "grade1", "class9"}}, paths)

	paths, err = expandScope(ctx, cfg, []string{"central/grade1"})
	require.NoError(t, err)
	assert.Equal(t, []classPath{{"central", "grade1", "class1"}}, paths)

	paths, err = expandScope(ctx, cfg, []string{"ALL"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []classPath{{"central", "grade1", "class1"}}, paths)

	paths, err = expandScope(ctx, cfg, []string{"central/grade1/class1", "central/grade1"})
	require.NoError(t, err)
	assert.Len(t, paths, 1, "duplicate paths collapse")
}
