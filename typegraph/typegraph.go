package typegraph

import (
	"fmt"
	"strings"
)

// Kind identifies the primary classification of a type graph node.
type Kind string

const (
	KindPrimitive    Kind = "primitive"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindTuple        Kind = "tuple"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
	KindReference    Kind = "reference"
	KindGeneric      Kind = "generic"
	KindLiteral      Kind = "literal"
	KindFunction     Kind = "function"
	KindEnum         Kind = "enum"
	KindUnknown      Kind = "unknown"
)

// TypeInfo is one node of the type graph. The Kind tag is fixed at
// construction and shape-specific fields are populated only for the kinds
// that declare them. Nodes are never mutated after construction, which makes
// them safe to share across closure entries and cache hits.
type TypeInfo struct {
	// Kind is the node's classification tag.
	Kind Kind `json:"kind" msgpack:"kind"`
	// Name holds the primitive name, object name, reference target or
	// generic parameter name, depending on Kind.
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	// Properties holds the ordered property list of an object node.
	// Order is significant: it drives generated setter order.
	Properties []PropertyInfo `json:"properties,omitempty" msgpack:"properties,omitempty"`
	// GenericParams holds the declared type parameters of an object node.
	GenericParams []GenericParam `json:"genericParams,omitempty" msgpack:"generic_params,omitempty"`
	// Elem holds the element type of an array node.
	Elem *TypeInfo `json:"elem,omitempty" msgpack:"elem,omitempty"`
	// Elements holds the ordered element types of a tuple node.
	Elements []*TypeInfo `json:"elements,omitempty" msgpack:"elements,omitempty"`
	// Members holds the ordered member types of a union or intersection node.
	Members []*TypeInfo `json:"members,omitempty" msgpack:"members,omitempty"`
	// TypeArguments holds the supplied arguments of a reference node.
	TypeArguments []*TypeInfo `json:"typeArguments,omitempty" msgpack:"type_arguments,omitempty"`
	// Constraint and Default describe a generic parameter node.
	Constraint *TypeInfo `json:"constraint,omitempty" msgpack:"constraint,omitempty"`
	Default    *TypeInfo `json:"default,omitempty" msgpack:"default,omitempty"`
	// Value holds the literal value of a literal node.
	Value any `json:"value,omitempty" msgpack:"value,omitempty"`
	// Params and Return describe a function node.
	Params []*TypeInfo `json:"params,omitempty" msgpack:"params,omitempty"`
	Return *TypeInfo   `json:"return,omitempty" msgpack:"return,omitempty"`
	// EnumMembers holds the members of an enum node.
	EnumMembers []EnumMember `json:"enumMembers,omitempty" msgpack:"enum_members,omitempty"`
}

// PropertyInfo describes one property of an object node.
type PropertyInfo struct {
	Name     string    `json:"name" msgpack:"name"`
	Type     *TypeInfo `json:"type" msgpack:"type"`
	Optional bool      `json:"optional,omitempty" msgpack:"optional,omitempty"`
	Readonly bool      `json:"readonly,omitempty" msgpack:"readonly,omitempty"`
	Doc      string    `json:"doc,omitempty" msgpack:"doc,omitempty"`
}

// GenericParam describes one declared type parameter of an object node.
type GenericParam struct {
	Name       string    `json:"name" msgpack:"name"`
	Constraint *TypeInfo `json:"constraint,omitempty" msgpack:"constraint,omitempty"`
	Default    *TypeInfo `json:"default,omitempty" msgpack:"default,omitempty"`
}

// EnumMember is a single named enum value.
type EnumMember struct {
	Name  string `json:"name" msgpack:"name"`
	Value any    `json:"value" msgpack:"value"`
}

// Primitive returns a primitive node for the given type name.
func Primitive(name string) *TypeInfo {
	return &TypeInfo{Kind: KindPrimitive, Name: name}
}

// Object returns an object node with the given ordered properties.
func Object(name string, props ...PropertyInfo) *TypeInfo {
	return &TypeInfo{Kind: KindObject, Name: name, Properties: props}
}

// ArrayOf returns an array node over the given element type.
func ArrayOf(elem *TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindArray, Elem: elem}
}

// TupleOf returns a tuple node over the given ordered elements.
func TupleOf(elems ...*TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindTuple, Elements: elems}
}

// UnionOf returns a union node over the given ordered members.
func UnionOf(members ...*TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindUnion, Members: members}
}

// IntersectionOf returns an intersection node over the given ordered members.
func IntersectionOf(members ...*TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindIntersection, Members: members}
}

// Reference returns a reference node pointing at a named type. The referenced
// node is never embedded; it is resolved by closure lookup, which is what
// allows self-referential and mutually-recursive types to be represented.
func Reference(name string, args ...*TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindReference, Name: name, TypeArguments: args}
}

// Generic returns an unresolved generic parameter node.
func Generic(name string, constraint, def *TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindGeneric, Name: name, Constraint: constraint, Default: def}
}

// Literal returns a literal node holding the given value.
func Literal(value any) *TypeInfo {
	return &TypeInfo{Kind: KindLiteral, Value: value}
}

// Function returns a function node with the given parameter and return types.
func Function(params []*TypeInfo, ret *TypeInfo) *TypeInfo {
	return &TypeInfo{Kind: KindFunction, Params: params, Return: ret}
}

// Enum returns an enum node with the given members.
func Enum(name string, members ...EnumMember) *TypeInfo {
	return &TypeInfo{Kind: KindEnum, Name: name, EnumMembers: members}
}

// Unknown returns the fallback node used when a declaration shape has no
// defined mapping.
func Unknown() *TypeInfo {
	return &TypeInfo{Kind: KindUnknown}
}

// IsObject reports whether the node is object-shaped.
func (t *TypeInfo) IsObject() bool { return t != nil && t.Kind == KindObject }

// IsPrimitive reports whether the node is a primitive, optionally constrained
// to a set of primitive names.
func (t *TypeInfo) IsPrimitive(names ...string) bool {
	if t == nil || t.Kind != KindPrimitive {
		return false
	}
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if t.Name == n {
			return true
		}
	}
	return false
}

// IsComposite reports whether the node aggregates other nodes in a way the
// deep-search operations recurse through: arrays, objects, unions,
// intersections and tuples. Every other kind is a leaf for deep search.
func (t *TypeInfo) IsComposite() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindArray, KindObject, KindUnion, KindIntersection, KindTuple:
		return true
	}
	return false
}

// Property returns the named property of an object node, or nil.
func (t *TypeInfo) Property(name string) *PropertyInfo {
	if t == nil || t.Kind != KindObject {
		return nil
	}
	for i := range t.Properties {
		if t.Properties[i].Name == name {
			return &t.Properties[i]
		}
	}
	return nil
}

// String renders a compact, human-readable form of the node. It is used for
// diagnostics and for instance naming, so the rendering must be stable.
func (t *TypeInfo) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive, KindGeneric:
		return t.Name
	case KindObject:
		if t.Name != "" {
			return t.Name
		}
		return "{...}"
	case KindArray:
		return t.Elem.String() + "[]"
	case KindTuple:
		return "[" + joinTypes(t.Elements, ", ") + "]"
	case KindUnion:
		return joinTypes(t.Members, " | ")
	case KindIntersection:
		return joinTypes(t.Members, " & ")
	case KindReference:
		return InstanceName(t.Name, t.TypeArguments)
	case KindLiteral:
		return fmt.Sprintf("%#v", t.Value)
	case KindFunction:
		return "func(" + joinTypes(t.Params, ", ") + ")"
	case KindEnum:
		return t.Name
	default:
		return string(t.Kind)
	}
}

func joinTypes(ts []*TypeInfo, sep string) string {
	parts := make([]string, len(ts))
	for i, m := range ts {
		parts[i] = m.String()
	}
	return strings.Join(parts, sep)
}

// InstanceName renders the closure key of a named type instantiated with the
// given type arguments, e.g. "Box<string>". Both the resolver (when recording
// closure entries) and the generator (when following references) derive keys
// through this function, so it must stay deterministic.
func InstanceName(name string, args []*TypeInfo) string {
	if len(args) == 0 {
		return name
	}
	return name + "<" + joinTypes(args, ", ") + ">"
}

// ResolvedType is the result of one resolution request: the primary node plus
// the dependency closure of every distinct named type touched during the
// walk. Closure entries are keyed by instance name and looked up when a
// Reference node is followed.
type ResolvedType struct {
	// Root is the primary resolved node.
	Root *TypeInfo `json:"root" msgpack:"root"`
	// Closure maps instance names to their resolved nodes.
	Closure map[string]*TypeInfo `json:"closure" msgpack:"closure"`
	// Order records first-touch order of closure entries. Iterating Order
	// instead of Closure keeps downstream generation deterministic.
	Order []string `json:"order" msgpack:"order"`
}

// NewResolvedType returns an empty resolution result.
func NewResolvedType() *ResolvedType {
	return &ResolvedType{Closure: make(map[string]*TypeInfo)}
}

// Add records a closure entry, preserving first-touch order. Re-adding an
// existing key replaces the node but keeps its original position.
func (r *ResolvedType) Add(name string, t *TypeInfo) {
	if _, ok := r.Closure[name]; !ok {
		r.Order = append(r.Order, name)
	}
	r.Closure[name] = t
}

// Lookup returns the closure entry for the given instance name.
func (r *ResolvedType) Lookup(name string) (*TypeInfo, bool) {
	t, ok := r.Closure[name]
	return t, ok
}

// Deref follows a reference node into the closure. Non-reference nodes are
// returned unchanged.
func (r *ResolvedType) Deref(t *TypeInfo) *TypeInfo {
	if t == nil || t.Kind != KindReference {
		return t
	}
	if target, ok := r.Closure[InstanceName(t.Name, t.TypeArguments)]; ok {
		return target
	}
	return t
}
