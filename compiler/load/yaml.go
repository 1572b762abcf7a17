package load

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLSource serves declarations parsed from YAML schema documents. It is
// the schema-first declaration source: every expression shape the resolver
// understands (tuples and literal types included) can be written directly.
//
// A document holds a list of type declarations:
//
//	types:
//	  - name: User
//	    kind: interface
//	    members:
//	      - name: id
//	        type: string
//	      - name: tags
//	        type: {array: string}
type YAMLSource struct {
	mu    sync.RWMutex
	files map[string]map[string]*Declaration
}

// NewYAMLSource returns an empty YAML-backed source.
func NewYAMLSource() *YAMLSource {
	return &YAMLSource{files: make(map[string]map[string]*Declaration)}
}

// AddFile parses a YAML schema document and registers its declarations under
// the given file key. Re-adding a file replaces its declarations.
func (s *YAMLSource) AddFile(file string, data []byte) error {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("forge: parse schema %s: %w", file, err)
	}
	decls := make(map[string]*Declaration, len(doc.Types))
	for _, yd := range doc.Types {
		decl, err := yd.toDeclaration(file)
		if err != nil {
			return fmt.Errorf("forge: schema %s: %w", file, err)
		}
		if _, dup := decls[decl.Name]; dup {
			return fmt.Errorf("forge: schema %s: duplicate declaration %q", file, decl.Name)
		}
		decls[decl.Name] = decl
	}
	s.mu.Lock()
	s.files[file] = decls
	s.mu.Unlock()
	return nil
}

// Declaration implements Source.
func (s *YAMLSource) Declaration(file, name string) (*Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decls, ok := s.files[file]
	if !ok {
		return nil, fmt.Errorf("no schema file %q: %w", file, ErrNotFound)
	}
	decl, ok := decls[name]
	if !ok {
		return nil, fmt.Errorf("no declaration %q in %s: %w", name, file, ErrNotFound)
	}
	return decl, nil
}

type yamlDocument struct {
	Types []yamlDecl `yaml:"types"`
}

type yamlDecl struct {
	Name    string       `yaml:"name"`
	Kind    string       `yaml:"kind"`
	Doc     string       `yaml:"doc"`
	Params  []yamlParam  `yaml:"params"`
	Members []yamlMember `yaml:"members"`
	Type    *TypeExpr    `yaml:"type"`
	Values  []EnumMember `yaml:"values"`
}

type yamlParam struct {
	Name       string    `yaml:"name"`
	Constraint *TypeExpr `yaml:"constraint"`
	Default    *TypeExpr `yaml:"default"`
}

type yamlMember struct {
	Name     string    `yaml:"name"`
	Type     *TypeExpr `yaml:"type"`
	Optional bool      `yaml:"optional"`
	Readonly bool      `yaml:"readonly"`
	Doc      string    `yaml:"doc"`
}

func (yd yamlDecl) toDeclaration(file string) (*Declaration, error) {
	if yd.Name == "" {
		return nil, fmt.Errorf("declaration without a name")
	}
	decl := &Declaration{
		Name: yd.Name,
		File: file,
		Doc:  yd.Doc,
	}
	for _, p := range yd.Params {
		decl.TypeParams = append(decl.TypeParams, TypeParam{
			Name:       p.Name,
			Constraint: p.Constraint,
			Default:    p.Default,
		})
	}
	switch yd.Kind {
	case "", "interface":
		decl.Kind = DeclInterface
		for _, m := range yd.Members {
			if m.Type == nil {
				return nil, fmt.Errorf("member %s.%s has no type", yd.Name, m.Name)
			}
			decl.Members = append(decl.Members, Member{
				Name:     m.Name,
				Type:     m.Type,
				Optional: m.Optional,
				Readonly: m.Readonly,
				Doc:      m.Doc,
			})
		}
	case "alias":
		if yd.Type == nil {
			return nil, fmt.Errorf("alias %s has no type", yd.Name)
		}
		decl.Kind = DeclAlias
		decl.Aliased = yd.Type
	case "enum":
		decl.Kind = DeclEnum
		decl.EnumMembers = yd.Values
	default:
		return nil, fmt.Errorf("declaration %s has unknown kind %q", yd.Name, yd.Kind)
	}
	return decl, nil
}

// UnmarshalYAML accepts either the scalar shorthand ("string", "User") or a
// single-key mapping selecting the expression shape:
//
//	{named: Box, args: [string]}
//	{array: string}
//	{tuple: [string, int]}
//	{union: [...]}  {intersection: [...]}
//	{literal: "on"}
//	{object: [{name: x, type: string}]}
//	{function: {params: [string], return: bool}}
func (e *TypeExpr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*e = TypeExpr{Kind: ExprNamed, Name: name}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("type expression must be a scalar or mapping (line %d)", node.Line)
	}

	var raw struct {
		Named        string       `yaml:"named"`
		Args         []*TypeExpr  `yaml:"args"`
		Array        *TypeExpr    `yaml:"array"`
		Tuple        []*TypeExpr  `yaml:"tuple"`
		Union        []*TypeExpr  `yaml:"union"`
		Intersection []*TypeExpr  `yaml:"intersection"`
		Literal      yaml.Node    `yaml:"literal"`
		Object       []yamlMember `yaml:"object"`
		Function     *struct {
			Params []*TypeExpr `yaml:"params"`
			Return *TypeExpr   `yaml:"return"`
		} `yaml:"function"`
		Mapped      yaml.Node `yaml:"mapped"`
		Conditional yaml.Node `yaml:"conditional"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	switch {
	case raw.Named != "":
		*e = TypeExpr{Kind: ExprNamed, Name: raw.Named, Args: raw.Args}
	case raw.Array != nil:
		*e = TypeExpr{Kind: ExprArray, Elem: raw.Array}
	case raw.Tuple != nil:
		*e = TypeExpr{Kind: ExprTuple, Members: raw.Tuple}
	case raw.Union != nil:
		*e = TypeExpr{Kind: ExprUnion, Members: raw.Union}
	case raw.Intersection != nil:
		*e = TypeExpr{Kind: ExprIntersection, Members: raw.Intersection}
	case !raw.Literal.IsZero():
		var v any
		if err := raw.Literal.Decode(&v); err != nil {
			return err
		}
		*e = TypeExpr{Kind: ExprLiteral, Value: v}
	case raw.Object != nil:
		props := make([]Member, 0, len(raw.Object))
		for _, m := range raw.Object {
			props = append(props, Member{
				Name:     m.Name,
				Type:     m.Type,
				Optional: m.Optional,
				Readonly: m.Readonly,
				Doc:      m.Doc,
			})
		}
		*e = TypeExpr{Kind: ExprObject, Props: props}
	case raw.Function != nil:
		*e = TypeExpr{Kind: ExprFunction, Params: raw.Function.Params, Return: raw.Function.Return}
	case !raw.Mapped.IsZero():
		*e = TypeExpr{Kind: ExprMapped}
	case !raw.Conditional.IsZero():
		*e = TypeExpr{Kind: ExprConditional}
	default:
		return fmt.Errorf("type expression mapping selects no shape (line %d)", node.Line)
	}
	return nil
}
