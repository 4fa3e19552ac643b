// Package pathcodec encodes a comment's position in the reply tree as a
// materialized path: the ordered ids of its ancestors, root first.
package pathcodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a stored path cannot be decoded.
// Seeing it means the data is corrupt, not that the caller did something wrong.
var ErrMalformed = errors.New("malformed comment path")

// Path is an immutable materialized path. The zero value is Top.
type Path struct {
	segs []int64
}

// Top is the path of every top-level comment.
var Top = Path{}

// FromSegments builds a path from ancestor ids, root first.
func FromSegments(segs []int64) (Path, error) {
	if len(segs) == 0 {
		return Top, nil
	}
	out := make([]int64, len(segs))
	for i, s := range segs {
		if s <= 0 {
			return Top, fmt.Errorf("%w: segment %d is %d", ErrMalformed, i, s)
		}
		out[i] = s
	}
	return Path{segs: out}, nil
}

// MustFromSegments is FromSegments for literals in tests and fixtures.
func MustFromSegments(segs ...int64) Path {
	p, err := FromSegments(segs)
	if err != nil {
		panic(err)
	}
	return p
}

// Append returns the path of a reply to the comment identified by parentID
// whose own path is p.
func (p Path) Append(parentID int64) Path {
	out := make([]int64, len(p.segs)+1)
	copy(out, p.segs)
	out[len(p.segs)] = parentID
	return Path{segs: out}
}

// IsTopLevel reports whether p is the Top sentinel.
func (p Path) IsTopLevel() bool { return len(p.segs) == 0 }

// Level is the number of ancestors.
func (p Path) Level() int { return len(p.segs) }

// Parent returns the id of the direct parent. ok is false for Top.
func (p Path) Parent() (id int64, ok bool) {
	if len(p.segs) == 0 {
		return 0, false
	}
	return p.segs[len(p.segs)-1], true
}

// Segment returns the ancestor id at position i (0 is the root ancestor).
func (p Path) Segment(i int) (int64, bool) {
	if i < 0 || i >= len(p.segs) {
		return 0, false
	}
	return p.segs[i], true
}

// HasPrefix reports whether prefix is p or one of p's leading sub-paths.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segs) > len(p.segs) {
		return false
	}
	for i, s := range prefix.segs {
		if p.segs[i] != s {
			return false
		}
	}
	return true
}

// IsDescendantOf reports whether p is ancestor with one or more segments appended.
func (p Path) IsDescendantOf(ancestor Path) bool {
	return len(p.segs) > len(ancestor.segs) && p.HasPrefix(ancestor)
}

// IsChildOf reports whether p is ancestor with exactly one segment appended.
func (p Path) IsChildOf(ancestor Path) bool {
	return len(p.segs) == len(ancestor.segs)+1 && p.HasPrefix(ancestor)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(o Path) bool {
	return len(p.segs) == len(o.segs) && p.HasPrefix(o)
}

// Segments returns a copy of the ancestor ids, root first. Top yields an
// empty, non-nil slice so it can be bound as an empty array.
func (p Path) Segments() []int64 {
	out := make([]int64, len(p.segs))
	copy(out, p.segs)
	return out
}

// MarshalJSON encodes the path as an array of ids.
func (p Path) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range p.segs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(s, 10))
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes an array of ids. Non-positive ids are ErrMalformed.
func (p *Path) UnmarshalJSON(b []byte) error {
	var segs []int64
	if err := json.Unmarshal(b, &segs); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out, err := FromSegments(segs)
	if err != nil {
		return err
	}
	*p = out
	return nil
}
