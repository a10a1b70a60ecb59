package project

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	t.Run("creates project in planning status", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "Tenaga Sdn Bhd")
		require.NoError(t, err)
		require.NotNil(t, p)

		assert.Equal(t, "PRJ-ALPHA", p.ProjectCode)
		assert.Equal(t, StatusPlanning, p.Status)
		assert.Nil(t, p.ActivatedAt)
		assert.Nil(t, p.CompletedAt)
		assert.False(t, p.IsCompleted())
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewProject("", "Substation upgrade", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Project code cannot be empty")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProject("PRJ-ALPHA", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Project name cannot be empty")
	})
}

func TestActivate(t *testing.T) {
	t.Run("promotes planning project to ongoing", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)

		hours := decimal.NewFromInt(480)
		assert.True(t, p.Activate(&hours))
		assert.Equal(t, StatusOngoing, p.Status)
		assert.NotNil(t, p.ActivatedAt)
		require.NotNil(t, p.PlannedHours)
		assert.True(t, p.PlannedHours.Equal(hours))

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProjectActivated, events[0].EventType())
	})

	t.Run("no-op past planning", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)
		require.True(t, p.Activate(nil))
		p.ClearDomainEvents()

		assert.False(t, p.Activate(nil))
		assert.Empty(t, p.GetDomainEvents())
	})
}

func TestRevertToPlanning(t *testing.T) {
	t.Run("reverts ongoing project and clears activation", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)
		require.True(t, p.Activate(nil))

		require.NoError(t, p.RevertToPlanning())
		assert.Equal(t, StatusPlanning, p.Status)
		assert.Nil(t, p.ActivatedAt)
	})

	t.Run("rejects revert from planning", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)
		require.Error(t, p.RevertToPlanning())
	})

	t.Run("rejects revert from completed", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)
		require.True(t, p.Activate(nil))
		require.True(t, p.Complete())
		require.Error(t, p.RevertToPlanning())
	})
}

func TestComplete(t *testing.T) {
	t.Run("marks project completed", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)
		require.True(t, p.Activate(nil))

		assert.True(t, p.Complete())
		assert.Equal(t, StatusCompleted, p.Status)
		assert.True(t, p.IsCompleted())
		assert.NotNil(t, p.CompletedAt)
	})

	t.Run("completing again is a no-op", func(t *testing.T) {
		p, err := NewProject("PRJ-ALPHA", "Substation upgrade", "")
		require.NoError(t, err)
		require.True(t, p.Activate(nil))
		require.True(t, p.Complete())

		versionBefore := p.GetVersion()
		assert.False(t, p.Complete())
		assert.Equal(t, versionBefore, p.GetVersion())
	})
}
