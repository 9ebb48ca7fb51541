package sweep

import (
	"fmt"
	"sort"
	"strings"

	"VelSweeper/internal/s3"
)

// NoMatchError is returned when no object key contains the configured name
// filter. A run that matches nothing cannot compute a retention set, so it
// aborts instead of quietly deleting nothing.
type NoMatchError struct {
	Filter string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no objects found matching name filter %q", e.Filter)
}

// SelectForDeletion returns the matching objects that fall outside the
// retention window: every object whose key contains nameFilter, minus the
// keepCount entries with the newest LastModified. The result is ordered
// oldest first. Objects with equal timestamps keep their listing order.
// A negative keepCount keeps everything. The input slice is not modified.
func SelectForDeletion(objects []s3.ObjectInfo, nameFilter string, keepCount int) ([]s3.ObjectInfo, error) {
	var matched []s3.ObjectInfo
	for _, obj := range objects {
		if strings.Contains(obj.Key, nameFilter) {
			matched = append(matched, obj)
		}
	}
	if len(matched) == 0 {
		return nil, &NoMatchError{Filter: nameFilter}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].LastModified.Before(matched[j].LastModified)
	})

	if keepCount < 0 || keepCount >= len(matched) {
		return nil, nil
	}
	return matched[:len(matched)-keepCount], nil
}
