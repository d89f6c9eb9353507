package omap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_Order(t *testing.T) {
	var m Map[string, int]
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("c", 3)
	m.Set("b", 4)

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
	assert.Equal(t, []int{4, 2, 3}, m.Values())

	assert.False(t, m.SetIfAbsent("a", 9))
	assert.True(t, m.SetIfAbsent("d", 5))

	m.Delete("a")
	assert.Equal(t, []string{"b", "c", "d"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestMap_CloneIsIndependent(t *testing.T) {
	var m Map[string, int]
	m.Set("a", 1)

	c := m.Clone()
	c.Set("b", 2)
	c.Update(func(_ string, v int) int { return v * 10 })

	assert.Equal(t, []string{"a"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, 1, v)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)
}
