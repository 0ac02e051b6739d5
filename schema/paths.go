package schema

import (
	"fmt"
	"strings"
)

// DefaultPath returns the extraction path used when a field declares none.
func DefaultPath(name string, array bool) []string {
	if array {
		return []string{"$." + name + "[*]", Element}
	}
	return []string{"$." + name}
}

// ValidatePath checks that an extraction path is well formed.
//
// Every segment must be the ascend marker, the element marker or start with
// "$.". The ascend marker may only lead the path and must be followed by
// exactly one segment (plus the element marker for arrays). Array paths must
// contain an array segment and end with the element marker; scalar paths must
// not contain the element marker at all.
func ValidatePath(path []string, array bool) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for i, seg := range path {
		switch {
		case seg == Ascend:
			if i != 0 {
				return fmt.Errorf("%w: %q may only start a path: %s",
					ErrInvalidPath, Ascend, formatPath(path))
			}
		case seg == Element:
			if !array || i != len(path)-1 {
				return fmt.Errorf("%w: %q may only end an array path: %s",
					ErrInvalidPath, Element, formatPath(path))
			}
		case strings.HasPrefix(seg, "$.") && len(seg) > 2:
		default:
			return fmt.Errorf("%w: segment %q must start with $ or be %q: %s",
				ErrInvalidPath, seg, Ascend, formatPath(path))
		}
	}

	if array {
		if path[len(path)-1] != Element {
			return fmt.Errorf("%w: array path must end with %q: %s",
				ErrInvalidPath, Element, formatPath(path))
		}
		if !hasArraySegment(path) {
			return fmt.Errorf("%w: array path needs a [*] segment: %s",
				ErrInvalidPath, formatPath(path))
		}
	}

	if path[0] == Ascend {
		rest := len(path) - 1
		if array {
			rest--
		}
		if rest != 1 {
			return fmt.Errorf("%w: %q must be followed by exactly one segment: %s",
				ErrInvalidPath, Ascend, formatPath(path))
		}
	}
	return nil
}

// Segments returns the path without the ascend and element markers.
func Segments(path []string) []string {
	out := make([]string, 0, len(path))
	for _, p := range path {
		if p == Ascend || p == Element {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasArraySegment(path []string) bool {
	for _, p := range path {
		if strings.Contains(p, "[*]") {
			return true
		}
	}
	return false
}

func formatPath(path []string) string {
	return "(" + strings.Join(path, ", ") + ")"
}
