package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternExpand(t *testing.T) {
	vars := Vars{Name: `index`, ID: `3`, Hash: `0123456789abcdef`, Ext: `js`}
	assert.Equal(t, `index.js`, Pattern(`[name].js`).Expand(vars))
	assert.Equal(t, `0123456789abcdef.3.js`, Pattern(`[chunkhash].[id].js`).Expand(vars))
	assert.Equal(t, `index-01234567.js`, Pattern(`[name]-[contenthash:8].[ext]`).Expand(vars))
	assert.Equal(t, `[dir]/index.js`, Pattern(`[dir]/[name].js`).Expand(vars))
}

func TestPatternValidate(t *testing.T) {
	assert.NoError(t, Pattern(`[name].js`).Validate())
	assert.NoError(t, Pattern(`[name].[hash:12].js`).Validate())
	assert.Error(t, Pattern(``).Validate())
	assert.Error(t, Pattern(`[dir]/[name].js`).Validate())
	assert.Error(t, Pattern(`[name:4].js`).Validate())
	assert.Error(t, Pattern(`[hash:x].js`).Validate())
	assert.Error(t, Pattern(`[name.js`).Validate())
}

func TestPatternUnique(t *testing.T) {
	names := []string{`admin`, `index`, `vendor`}
	for _, pattern := range []Pattern{`[name].js`, `[id].[hash].js`, `app.[contenthash].js`, `[chunkhash:8].js`} {
		_, _, ok := pattern.Unique(names)
		assert.True(t, ok, pattern)
	}

	a, b, ok := Pattern(`app.[hash].js`).Unique(names)
	assert.False(t, ok)
	assert.Equal(t, `admin`, a)
	assert.Equal(t, `index`, b)

	_, _, ok = Pattern(`app.js`).Unique(names)
	assert.False(t, ok)
}

func TestPatternDistinguishes(t *testing.T) {
	assert.True(t, Pattern(`[chunkhash].[id].js`).Distinguishes())
	assert.True(t, Pattern(`[id].js`).Distinguishes())
	assert.True(t, Pattern(`chunk-[hash:8].js`).Distinguishes())
	assert.False(t, Pattern(`[name].js`).Distinguishes())
}
