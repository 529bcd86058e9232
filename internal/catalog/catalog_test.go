package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbeddedCatalog(t *testing.T) {
	cats := Default()
	require.Len(t, cats, 8)
	assert.Equal(t, "web-development", cats[0].ID)
	assert.Equal(t, "Web Development", cats[0].Name)
	assert.Equal(t, "🌐", cats[0].Icon)
	assert.Equal(t, "security-blockchain", cats[7].ID)
}

func TestParse_DefaultIcon(t *testing.T) {
	cats, err := Parse([]byte("categories:\n  - id: misc\n    name: Misc\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultIcon, cats[0].Icon)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"not yaml":     "categories: [unclosed",
		"empty":        "categories: []",
		"missing name": "categories:\n  - id: a\n",
		"duplicate id": "categories:\n  - id: a\n    name: A\n  - id: a\n    name: B\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
