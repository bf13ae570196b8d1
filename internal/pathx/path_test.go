package pathx

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoragePath_IsValidAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p := NewStoragePath()
		require.NoError(t, Validate(p, "alice@example.com", "Alice Smith", "tax-return.pdf"))
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
}

func TestValidate_RejectsIdentifyingPaths(t *testing.T) {
	good := NewStoragePath()
	parts := strings.Split(good, "/")

	tests := []struct {
		name        string
		path        string
		identifying []string
	}{
		{name: "date based path", path: "users/2025/1/2/" + parts[2]},
		{name: "email in path", path: "assets/alice@example.com/" + parts[2]},
		{name: "file name suffix", path: good + "/passport.jpg"},
		{name: "same id twice", path: "assets/" + parts[2] + "/" + parts[2]},
		{name: "upper case uuid", path: strings.ToUpper(good)},
		{name: "embeds vault id", path: good, identifying: []string{parts[1]}},
		{name: "empty", path: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.path, tt.identifying...)
			assert.ErrorIs(t, err, common.ErrInvalidStoragePath)
		})
	}
}

func TestValidate_IgnoresShortIdentifiers(t *testing.T) {
	p := NewStoragePath()
	assert.NoError(t, Validate(p, "a", "", "  ", p[7:10], "ada"))
}
