package apihelper

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSegment reports an empty path segment or one containing "/".
	ErrInvalidSegment = errors.New("apihelper: invalid path segment")
	// ErrInvalidBasePath reports a base path that does not start and end with "/".
	ErrInvalidBasePath = errors.New("apihelper: invalid base path")
)

// BuildPath joins segments with "/" after base. Segments are not escaped;
// callers pass entity type names and opaque identifiers.
func BuildPath(base string, segments ...string) (string, error) {
	if !strings.HasPrefix(base, "/") || !strings.HasSuffix(base, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidBasePath, base)
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: no segments", ErrInvalidSegment)
	}
	for i, seg := range segments {
		if seg == "" || strings.Contains(seg, "/") {
			return "", fmt.Errorf("%w: segment %d %q", ErrInvalidSegment, i, seg)
		}
	}
	return base + strings.Join(segments, "/"), nil
}
