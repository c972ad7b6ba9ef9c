package pack

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherFirstRuleWins(t *testing.T) {
	root := fixture(t)
	p := DefaultProject()
	p.Rules = append([]Rule{{
		Test: `\.js$`,
		Use:  []Transform{{Loader: `file-loader`}},
	}}, p.Rules...)

	cfg, err := Resolve(Production, Root(root), WithProject(p))
	require.NoError(t, err)
	m, err := cfg.Matcher()
	require.NoError(t, err)

	rule, ok := m.Rule(filepath.Join(root, `src`, `index.js`))
	require.True(t, ok)
	assert.Equal(t, `file-loader`, rule.Use[0].Loader)

	rule, ok = m.Rule(filepath.Join(root, `src`, `app.jsx`))
	require.True(t, ok)
	assert.Equal(t, `babel-loader`, rule.Use[0].Loader)
}

func TestMatcherInclude(t *testing.T) {
	root := fixture(t)
	cfg, err := Resolve(Production, Root(root))
	require.NoError(t, err)
	m, err := cfg.Matcher()
	require.NoError(t, err)

	_, ok := m.Rule(filepath.Join(root, `node_modules`, `x`, `index.js`))
	assert.False(t, ok)
	_, ok = m.Rule(filepath.Join(root, `test`, `index.test.js`))
	assert.True(t, ok)
	_, ok = m.Rule(filepath.Join(root, `srcx`, `index.js`))
	assert.False(t, ok)

	rule, ok := m.Rule(filepath.Join(root, `node_modules`, `x`, `logo.png?inline`))
	require.True(t, ok)
	limit, ok := rule.Use[0].Int(`limit`)
	assert.True(t, ok)
	assert.Equal(t, 10000, limit)
}

func TestMatcherNoParse(t *testing.T) {
	root := fixture(t)
	cfg, err := Resolve(Production, Root(root))
	require.NoError(t, err)
	m, err := cfg.Matcher()
	require.NoError(t, err)

	assert.True(t, m.NoParse(filepath.Join(root, `node_modules`, `react`, `dist`, `react.min.js`)))
	assert.False(t, m.NoParse(filepath.Join(root, `src`, `index.js`)))
}

func TestTransformOptions(t *testing.T) {
	tr := Transform{Loader: `url-loader`, Options: map[string]any{`limit`: float64(8192), `minimize`: true}}
	limit, ok := tr.Int(`limit`)
	assert.True(t, ok)
	assert.Equal(t, 8192, limit)
	assert.True(t, tr.Bool(`minimize`))
	assert.False(t, tr.Bool(`missing`))
	_, ok = tr.Int(`missing`)
	assert.False(t, ok)
}
