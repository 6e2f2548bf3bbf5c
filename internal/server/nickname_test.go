package server

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNickname(t *testing.T) {
	t.Parallel()

	for range 50 {
		name := GenerateNickname()

		idx := slices.IndexFunc(adjectives, func(adj string) bool { return strings.HasPrefix(name, adj) })
		if assert.GreaterOrEqual(t, idx, 0, "nickname %q has no known adjective", name) {
			assert.Contains(t, nouns, strings.TrimPrefix(name, adjectives[idx]))
		}
	}
}
