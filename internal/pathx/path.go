// Package pathx builds and checks object-storage keys for encrypted assets.
// A key is made of two random identifiers and nothing else, so that a
// listing of the bucket reveals neither owners nor file names.
package pathx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/google/uuid"
)

const (
	prefix         = "assets"
	minIdentifying = 8
)

var layout = regexp.MustCompile(`^assets/([0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12})/([0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12})$`)

// NewStoragePath returns "assets/<bucket-id>/<file-id>" with two fresh v4 UUIDs.
func NewStoragePath() string {
	return fmt.Sprintf("%s/%s/%s", prefix, uuid.New(), uuid.New())
}

// Validate rejects keys that do not follow the opaque layout or that contain
// any of the identifying strings (emails, names, vault ids, file names).
// Values shorter than minIdentifying characters are ignored: the layout
// only admits hex, so short words like "ada" would match random ids.
func Validate(path string, identifying ...string) error {
	m := layout.FindStringSubmatch(path)
	if m == nil {
		return fmt.Errorf("%q does not match the opaque layout: %w", path, common.ErrInvalidStoragePath)
	}
	if m[1] == m[2] {
		return fmt.Errorf("repeated identifier: %w", common.ErrInvalidStoragePath)
	}

	lower := strings.ToLower(path)
	for _, s := range identifying {
		s = strings.ToLower(strings.TrimSpace(s))
		if len(s) < minIdentifying {
			continue
		}
		if strings.Contains(lower, s) {
			return fmt.Errorf("storage path embeds identifying data: %w", common.ErrInvalidStoragePath)
		}
	}
	return nil
}
