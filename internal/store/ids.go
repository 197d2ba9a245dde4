package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random (v4) uuid string. Tasks, activities and sessions share the id space.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether s parses as a uuid. Imported bundles may carry non-uuid ids;
// this only drives display shortening.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ShortID returns the first 8 chars of a uuid for compact display.
func ShortID(id string) string {
	if IsValidID(id) && len(id) >= 8 {
		return id[:8]
	}
	return id
}

// ResolveTaskID accepts a full id or a unique prefix of one.
func (db *DB) ResolveTaskID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("missing task id")
	}
	if _, ok := db.Tasks[ref]; ok {
		return ref, nil
	}
	var matches []string
	for id := range db.Tasks {
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("task not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("ambiguous task id %q: %s", ref, strings.Join(matches, ", "))
	}
}
