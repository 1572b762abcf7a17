// Package matcher provides composable boolean predicates over type graph
// nodes. Matchers select which types a plugin hook applies to and drive
// deep containment search over a node's transitive structure.
package matcher

import (
	"strings"

	"github.com/syssam/forge/typegraph"
)

// Matcher is a predicate over a single type graph node. Describe returns a
// stable, human-readable form used in diagnostics and plugin error messages.
type Matcher interface {
	Match(t *typegraph.TypeInfo) bool
	Describe() string
}

type matchFunc struct {
	fn   func(*typegraph.TypeInfo) bool
	desc string
}

func (m matchFunc) Match(t *typegraph.TypeInfo) bool { return m.fn(t) }
func (m matchFunc) Describe() string                 { return m.desc }

// Func wraps a plain predicate function into a Matcher.
func Func(desc string, fn func(*typegraph.TypeInfo) bool) Matcher {
	return matchFunc{fn: fn, desc: desc}
}

// Kind matches nodes of the given kind.
func Kind(k typegraph.Kind) Matcher {
	return matchFunc{
		fn:   func(t *typegraph.TypeInfo) bool { return t != nil && t.Kind == k },
		desc: "kind(" + string(k) + ")",
	}
}

// Primitive matches primitive nodes, optionally constrained to a set of
// primitive names.
func Primitive(names ...string) Matcher {
	desc := "primitive"
	if len(names) > 0 {
		desc += "(" + strings.Join(names, "|") + ")"
	}
	return matchFunc{
		fn:   func(t *typegraph.TypeInfo) bool { return t.IsPrimitive(names...) },
		desc: desc,
	}
}

// Object matches object nodes. With a name it matches only the named object.
func Object(name ...string) Matcher {
	if len(name) == 0 {
		return matchFunc{
			fn:   func(t *typegraph.TypeInfo) bool { return t.IsObject() },
			desc: "object",
		}
	}
	want := name[0]
	return matchFunc{
		fn:   func(t *typegraph.TypeInfo) bool { return t.IsObject() && t.Name == want },
		desc: "object(" + want + ")",
	}
}

// Array matches array nodes. With an element matcher it also constrains the
// element type.
func Array(elem ...Matcher) Matcher {
	if len(elem) == 0 {
		return Kind(typegraph.KindArray)
	}
	m := elem[0]
	return matchFunc{
		fn: func(t *typegraph.TypeInfo) bool {
			return t != nil && t.Kind == typegraph.KindArray && m.Match(t.Elem)
		},
		desc: "array(" + m.Describe() + ")",
	}
}

// Union matches union nodes.
func Union() Matcher { return Kind(typegraph.KindUnion) }

// Intersection matches intersection nodes.
func Intersection() Matcher { return Kind(typegraph.KindIntersection) }

// Reference matches reference nodes. With a name it matches only references
// to the named type.
func Reference(name ...string) Matcher {
	if len(name) == 0 {
		return Kind(typegraph.KindReference)
	}
	want := name[0]
	return matchFunc{
		fn: func(t *typegraph.TypeInfo) bool {
			return t != nil && t.Kind == typegraph.KindReference && t.Name == want
		},
		desc: "reference(" + want + ")",
	}
}

// And matches when every given matcher matches.
func And(ms ...Matcher) Matcher {
	return matchFunc{
		fn: func(t *typegraph.TypeInfo) bool {
			for _, m := range ms {
				if !m.Match(t) {
					return false
				}
			}
			return true
		},
		desc: "and(" + describeAll(ms) + ")",
	}
}

// Or matches when any given matcher matches.
func Or(ms ...Matcher) Matcher {
	return matchFunc{
		fn: func(t *typegraph.TypeInfo) bool {
			for _, m := range ms {
				if m.Match(t) {
					return true
				}
			}
			return false
		},
		desc: "or(" + describeAll(ms) + ")",
	}
}

// Not negates a matcher.
func Not(m Matcher) Matcher {
	return matchFunc{
		fn:   func(t *typegraph.TypeInfo) bool { return !m.Match(t) },
		desc: "not(" + m.Describe() + ")",
	}
}

func describeAll(ms []Matcher) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.Describe()
	}
	return strings.Join(parts, ", ")
}

// ContainsDeep reports whether any node in root's transitive structure
// satisfies the matcher. The traversal recurses through array elements,
// object property types, union and intersection members, and tuple elements.
// Every other kind is a leaf: references in particular are not followed, so
// the search is bounded even on cyclic graphs.
func ContainsDeep(root *typegraph.TypeInfo, m Matcher) bool {
	found := false
	walkDeep(root, func(t *typegraph.TypeInfo) {
		if m.Match(t) {
			found = true
		}
	})
	return found
}

// FindDeep collects every node in root's transitive structure satisfying the
// matcher, in pre-order, including the root itself. Matches are not
// de-duplicated: a type appearing under two properties is reported twice.
func FindDeep(root *typegraph.TypeInfo, m Matcher) []*typegraph.TypeInfo {
	var out []*typegraph.TypeInfo
	walkDeep(root, func(t *typegraph.TypeInfo) {
		if m.Match(t) {
			out = append(out, t)
		}
	})
	return out
}

func walkDeep(t *typegraph.TypeInfo, visit func(*typegraph.TypeInfo)) {
	if t == nil {
		return
	}
	visit(t)
	switch t.Kind {
	case typegraph.KindArray:
		walkDeep(t.Elem, visit)
	case typegraph.KindObject:
		for i := range t.Properties {
			walkDeep(t.Properties[i].Type, visit)
		}
	case typegraph.KindUnion, typegraph.KindIntersection:
		for _, m := range t.Members {
			walkDeep(m, visit)
		}
	case typegraph.KindTuple:
		for _, e := range t.Elements {
			walkDeep(e, visit)
		}
	}
}
