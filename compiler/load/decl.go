// Package load supplies raw type declarations to the resolver. A Source is
// the boundary to the parser/checker that produced the declarations: the
// resolver consumes its output read-only and never re-serializes it.
package load

import "errors"

// ErrNotFound is returned by a Source when no declaration exists for the
// requested (file, type name) pair.
var ErrNotFound = errors.New("forge: declaration not found")

// DeclKind classifies a raw declaration.
type DeclKind string

const (
	// DeclInterface is an object-shaped declaration with named members.
	DeclInterface DeclKind = "interface"
	// DeclAlias names an arbitrary type expression.
	DeclAlias DeclKind = "alias"
	// DeclEnum declares a closed set of named values.
	DeclEnum DeclKind = "enum"
)

// Declaration is one raw type declaration as produced by a Source.
type Declaration struct {
	Name        string       `json:"name"`
	File        string       `json:"file,omitempty"`
	Kind        DeclKind     `json:"kind"`
	Doc         string       `json:"doc,omitempty"`
	TypeParams  []TypeParam  `json:"params,omitempty"`
	Members     []Member     `json:"members,omitempty"`
	Aliased     *TypeExpr    `json:"aliased,omitempty"`
	EnumMembers []EnumMember `json:"enumMembers,omitempty"`
}

// TypeParam is a declared generic parameter with an optional constraint and
// default.
type TypeParam struct {
	Name       string    `json:"name"`
	Constraint *TypeExpr `json:"constraint,omitempty"`
	Default    *TypeExpr `json:"default,omitempty"`
}

// Member is one named member of an object-shaped declaration. Member order
// is preserved exactly as declared.
type Member struct {
	Name     string    `json:"name"`
	Type     *TypeExpr `json:"type"`
	Optional bool      `json:"optional,omitempty"`
	Readonly bool      `json:"readonly,omitempty"`
	Doc      string    `json:"doc,omitempty"`
}

// EnumMember is one named enum value.
type EnumMember struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ExprKind classifies a syntactic type expression before resolution.
type ExprKind string

const (
	// ExprNamed references a named type or primitive, optionally with
	// type arguments.
	ExprNamed ExprKind = "named"
	ExprArray ExprKind = "array"
	ExprTuple ExprKind = "tuple"
	ExprUnion ExprKind = "union"
	// ExprIntersection composes members whose properties merge.
	ExprIntersection ExprKind = "intersection"
	ExprLiteral      ExprKind = "literal"
	ExprFunction     ExprKind = "function"
	// ExprObject is an inline (anonymous) object shape.
	ExprObject ExprKind = "object"
	// ExprMapped and ExprConditional are recognized but have no resolved
	// mapping; the resolver degrades them to unknown nodes.
	ExprMapped      ExprKind = "mapped"
	ExprConditional ExprKind = "conditional"
)

// TypeExpr is a syntactic type expression. Shape-specific fields follow the
// same iff-kind discipline as the resolved graph.
type TypeExpr struct {
	Kind    ExprKind    `json:"kind"`
	Name    string      `json:"name,omitempty"`
	Args    []*TypeExpr `json:"args,omitempty"`
	Elem    *TypeExpr   `json:"elem,omitempty"`
	Members []*TypeExpr `json:"members,omitempty"`
	Props   []Member    `json:"props,omitempty"`
	Value   any         `json:"value,omitempty"`
	Params  []*TypeExpr `json:"params,omitempty"`
	Return  *TypeExpr   `json:"return,omitempty"`
}

// Named returns a named type expression.
func Named(name string, args ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: ExprNamed, Name: name, Args: args}
}

// Source resolves raw declarations by (file, type name). Implementations
// must be safe for concurrent readers: batch resolution fans out requests
// that share one Source.
type Source interface {
	// Declaration returns the named declaration from the given file, or an
	// error wrapping ErrNotFound when it does not exist.
	Declaration(file, name string) (*Declaration, error)
}
