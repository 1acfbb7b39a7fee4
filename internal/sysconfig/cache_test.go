package sysconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"walletbot/internal/domain"
)

func TestEmptyCache(t *testing.T) {
	c := New()

	_, ok := c.Load()
	assert.False(t, ok)
	assert.Empty(t, c.Channel())
	assert.Nil(t, c.Admins())
}

func TestStoreAndLoadSnapshot(t *testing.T) {
	c := New()
	c.Store(domain.SystemConfig{Channel: "@mychannel", Admins: []string{"@admin1"}})

	got, ok := c.Load()
	assert.True(t, ok)
	assert.Equal(t, "@mychannel", got.Channel)
	assert.Equal(t, "@mychannel", c.Channel())
	assert.Equal(t, []string{"@admin1"}, []string(c.Admins()))
}

func TestStoreReplacesSnapshot(t *testing.T) {
	c := New()
	c.Store(domain.SystemConfig{Channel: "@old"})
	c.Store(domain.SystemConfig{Channel: "@new"})

	assert.Equal(t, "@new", c.Channel())
}
