package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strengthSkill struct{}

func (strengthSkill) Slug() string { return "strength" }

type focusSkill struct{}

func (focusSkill) Slug() string { return "focus" }

func TestRegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register("strength", func() Skill { return strengthSkill{} }))
	require.True(t, registry.Contains("strength"))

	factory, err := registry.Get("strength")
	require.NoError(t, err)
	assert.Equal(t, "strength", factory().Slug())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register("strength", func() Skill { return strengthSkill{} }))
	err := registry.Register("strength", func() Skill { return focusSkill{} })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterValidatesInput(t *testing.T) {
	registry := NewRegistry()

	assert.Error(t, registry.Register("", func() Skill { return strengthSkill{} }))
	assert.Error(t, registry.Register("strength", nil))
}

func TestGetUnknownSkill(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("levitation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestNamesAreSorted(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("strength", func() Skill { return strengthSkill{} })
	registry.MustRegister("focus", func() Skill { return focusSkill{} })

	assert.Equal(t, []string{"focus", "strength"}, registry.Names())
	assert.Equal(t, 2, registry.Len())
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("strength", func() Skill { return strengthSkill{} })

	assert.Panics(t, func() {
		registry.MustRegister("strength", func() Skill { return focusSkill{} })
	})
}
