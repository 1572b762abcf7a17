package resolve

import (
	"fmt"

	"github.com/syssam/forge/compiler/load"
	"github.com/syssam/forge/plugin"
	"github.com/syssam/forge/typegraph"
)

// primitiveNames is the closed set of names resolved directly to primitive
// nodes instead of declaration lookups.
var primitiveNames = map[string]bool{
	"string": true, "bool": true, "boolean": true, "number": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "byte": true, "rune": true,
	"bigint": true, "any": true, "null": true, "undefined": true,
}

// IsPrimitiveName reports whether the name resolves directly to a primitive
// node rather than a declaration lookup.
func IsPrimitiveName(name string) bool { return primitiveNames[name] }

// Resolver walks raw declarations into resolved type graphs. A Resolver is
// stateless between requests apart from the optional shared cache, so one
// Resolver may serve concurrent batch targets.
type Resolver struct {
	source   load.Source
	pipeline *plugin.Pipeline
	cache    *Cache
	strict   bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPipeline installs the plugin pipeline consulted while finalizing nodes.
func WithPipeline(p *plugin.Pipeline) Option {
	return func(r *Resolver) { r.pipeline = p }
}

// WithCache installs a shared per-batch resolution cache.
func WithCache(c *Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithStrictShapes makes unsupported declaration shapes fail resolution
// instead of degrading to unknown nodes.
func WithStrictShapes() Option {
	return func(r *Resolver) { r.strict = true }
}

// New creates a Resolver over the given declaration source.
func New(source load.Source, opts ...Option) *Resolver {
	r := &Resolver{source: source}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the named declaration into a resolved graph. Supplied type
// arguments instantiate the declaration's generic parameters. The result is
// immutable; repeated calls for the same key yield structurally equal graphs.
func (r *Resolver) Resolve(file, name string, args ...*typegraph.TypeInfo) (*typegraph.ResolvedType, error) {
	key := Key(file, name, args)
	if r.cache != nil {
		if rt, ok := r.cache.Get(key); ok {
			return rt, nil
		}
	}
	w := &walk{
		r:          r,
		file:       file,
		result:     typegraph.NewResolvedType(),
		inProgress: make(map[string]bool),
	}
	root, err := w.resolveDecl(name, args)
	if err != nil {
		return nil, err
	}
	w.result.Root = root
	if r.cache != nil {
		r.cache.Put(key, w.result)
	}
	return w.result, nil
}

// walk carries the state of one resolution request. The in-progress set maps
// instance keys to whether the declaration is anchorable, i.e. object-shaped
// enough that re-entering it can return a reference node instead of recursing.
type walk struct {
	r          *Resolver
	file       string
	result     *typegraph.ResolvedType
	inProgress map[string]bool
	path       []string
}

// resolveDecl resolves one named declaration instance and records it in the
// closure. Re-entering an anchorable in-progress key returns (nil, nil); the
// caller holds a reference node and the closure entry appears once the outer
// call finishes.
func (w *walk) resolveDecl(name string, args []*typegraph.TypeInfo) (*typegraph.TypeInfo, error) {
	decl, err := w.r.source.Declaration(w.file, name)
	if err != nil {
		return nil, NewNotFoundError(w.file, name, err)
	}
	if len(args) > len(decl.TypeParams) {
		return nil, &GenericArgumentError{
			Type:    name,
			Message: fmt.Sprintf("got %d arguments, declaration takes %d", len(args), len(decl.TypeParams)),
		}
	}

	key := typegraph.InstanceName(name, args)
	if node, ok := w.result.Lookup(key); ok {
		return node, nil
	}
	if anchorable, ok := w.inProgress[key]; ok {
		if anchorable {
			return nil, nil
		}
		return nil, &CircularError{Path: append(append([]string{}, w.path...), key)}
	}

	w.inProgress[key] = anchorable(decl)
	w.path = append(w.path, key)
	defer func() {
		delete(w.inProgress, key)
		w.path = w.path[:len(w.path)-1]
	}()

	env, err := w.buildEnv(decl, args)
	if err != nil {
		return nil, err
	}

	var node *typegraph.TypeInfo
	switch decl.Kind {
	case load.DeclInterface:
		node, err = w.objectNode(decl, args, env)
	case load.DeclAlias:
		node, err = w.resolveExpr(decl.Aliased, env)
		if err == nil && node.IsObject() && node.Name == "" {
			named := *node
			named.Name = decl.Name
			node = &named
		}
	case load.DeclEnum:
		node = typegraph.Enum(decl.Name, toEnumMembers(decl.EnumMembers)...)
	default:
		if w.r.strict {
			return nil, &UnsupportedShapeError{Type: name, Shape: string(decl.Kind)}
		}
		node = typegraph.Unknown()
	}
	if err != nil {
		return nil, err
	}

	if override, perr := w.r.pipeline.ApplyResolve(decl, node); perr != nil {
		return nil, perr
	} else if override != nil {
		node = override
	}

	w.result.Add(key, node)
	return node, nil
}

func (w *walk) objectNode(decl *load.Declaration, args []*typegraph.TypeInfo, env map[string]*typegraph.TypeInfo) (*typegraph.TypeInfo, error) {
	props := make([]typegraph.PropertyInfo, 0, len(decl.Members))
	for _, m := range decl.Members {
		pt, err := w.resolveExpr(m.Type, env)
		if err != nil {
			return nil, err
		}
		props = append(props, typegraph.PropertyInfo{
			Name:     m.Name,
			Type:     pt,
			Optional: m.Optional,
			Readonly: m.Readonly,
			Doc:      m.Doc,
		})
	}
	node := typegraph.Object(decl.Name, props...)
	// An uninstantiated declaration keeps its parameter list so downstream
	// consumers can tell an open generic from a concrete type.
	if len(args) == 0 {
		for _, p := range decl.TypeParams {
			gp := typegraph.GenericParam{Name: p.Name}
			if p.Constraint != nil {
				c, err := w.resolveExpr(p.Constraint, env)
				if err != nil {
					return nil, err
				}
				gp.Constraint = c
			}
			if p.Default != nil {
				d, err := w.resolveExpr(p.Default, env)
				if err != nil {
					return nil, err
				}
				gp.Default = d
			}
			node.GenericParams = append(node.GenericParams, gp)
		}
	}
	return node, nil
}

// buildEnv maps generic parameter names to their substitutions: the supplied
// argument, the declared default, or an unresolved generic node.
func (w *walk) buildEnv(decl *load.Declaration, args []*typegraph.TypeInfo) (map[string]*typegraph.TypeInfo, error) {
	if len(decl.TypeParams) == 0 {
		return nil, nil
	}
	env := make(map[string]*typegraph.TypeInfo, len(decl.TypeParams))
	for i, p := range decl.TypeParams {
		var constraint *typegraph.TypeInfo
		if p.Constraint != nil {
			c, err := w.resolveExpr(p.Constraint, env)
			if err != nil {
				return nil, err
			}
			constraint = c
		}
		if i < len(args) {
			if err := checkConstraint(decl.Name, p.Name, args[i], constraint); err != nil {
				return nil, err
			}
			env[p.Name] = args[i]
			continue
		}
		if p.Default != nil {
			d, err := w.resolveExpr(p.Default, env)
			if err != nil {
				return nil, err
			}
			env[p.Name] = d
			continue
		}
		env[p.Name] = typegraph.Generic(p.Name, constraint, nil)
	}
	return env, nil
}

// checkConstraint verifies a supplied argument against a resolved constraint.
// Only union and primitive constraints are enforced; anything richer is the
// type checker's job, not ours.
func checkConstraint(typeName, param string, arg, constraint *typegraph.TypeInfo) error {
	if constraint == nil {
		return nil
	}
	switch constraint.Kind {
	case typegraph.KindUnion:
		for _, m := range constraint.Members {
			if m.String() == arg.String() {
				return nil
			}
		}
	case typegraph.KindPrimitive:
		if constraint.String() == arg.String() {
			return nil
		}
	default:
		return nil
	}
	return &GenericArgumentError{
		Type:    typeName,
		Param:   param,
		Message: fmt.Sprintf("%s does not satisfy %s", arg, constraint),
	}
}

func (w *walk) resolveExpr(e *load.TypeExpr, env map[string]*typegraph.TypeInfo) (*typegraph.TypeInfo, error) {
	if e == nil {
		return typegraph.Unknown(), nil
	}
	switch e.Kind {
	case load.ExprNamed:
		if sub, ok := env[e.Name]; ok {
			return sub, nil
		}
		if primitiveNames[e.Name] {
			return typegraph.Primitive(e.Name), nil
		}
		args := make([]*typegraph.TypeInfo, 0, len(e.Args))
		for _, a := range e.Args {
			ra, err := w.resolveExpr(a, env)
			if err != nil {
				return nil, err
			}
			args = append(args, ra)
		}
		if _, err := w.resolveDecl(e.Name, args); err != nil {
			return nil, err
		}
		return typegraph.Reference(e.Name, args...), nil
	case load.ExprArray:
		elem, err := w.resolveExpr(e.Elem, env)
		if err != nil {
			return nil, err
		}
		return typegraph.ArrayOf(elem), nil
	case load.ExprTuple:
		elems, err := w.resolveAll(e.Members, env)
		if err != nil {
			return nil, err
		}
		return typegraph.TupleOf(elems...), nil
	case load.ExprUnion:
		members, err := w.resolveAll(e.Members, env)
		if err != nil {
			return nil, err
		}
		return typegraph.UnionOf(members...), nil
	case load.ExprIntersection:
		members, err := w.resolveAll(e.Members, env)
		if err != nil {
			return nil, err
		}
		return typegraph.IntersectionOf(members...), nil
	case load.ExprLiteral:
		return typegraph.Literal(e.Value), nil
	case load.ExprFunction:
		params, err := w.resolveAll(e.Params, env)
		if err != nil {
			return nil, err
		}
		var ret *typegraph.TypeInfo
		if e.Return != nil {
			ret, err = w.resolveExpr(e.Return, env)
			if err != nil {
				return nil, err
			}
		}
		return typegraph.Function(params, ret), nil
	case load.ExprObject:
		props := make([]typegraph.PropertyInfo, 0, len(e.Props))
		for _, m := range e.Props {
			pt, err := w.resolveExpr(m.Type, env)
			if err != nil {
				return nil, err
			}
			props = append(props, typegraph.PropertyInfo{
				Name:     m.Name,
				Type:     pt,
				Optional: m.Optional,
				Readonly: m.Readonly,
				Doc:      m.Doc,
			})
		}
		return typegraph.Object("", props...), nil
	default:
		// Mapped, conditional and any future shapes degrade to unknown so
		// one unsupported nested type does not block the rest of the graph.
		if w.r.strict {
			return nil, &UnsupportedShapeError{Type: w.currentType(), Shape: string(e.Kind)}
		}
		return typegraph.Unknown(), nil
	}
}

func (w *walk) resolveAll(exprs []*load.TypeExpr, env map[string]*typegraph.TypeInfo) ([]*typegraph.TypeInfo, error) {
	out := make([]*typegraph.TypeInfo, 0, len(exprs))
	for _, e := range exprs {
		n, err := w.resolveExpr(e, env)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (w *walk) currentType() string {
	if len(w.path) == 0 {
		return ""
	}
	return w.path[len(w.path)-1]
}

// anchorable reports whether re-entering the declaration during resolution
// can safely return a reference node. Object-shaped and enum declarations
// anchor cycles; a pure alias to a non-object composite cannot, because
// generation would have to expand it infinitely.
func anchorable(decl *load.Declaration) bool {
	switch decl.Kind {
	case load.DeclInterface, load.DeclEnum:
		return true
	case load.DeclAlias:
		return decl.Aliased != nil && decl.Aliased.Kind == load.ExprObject
	}
	return false
}

func toEnumMembers(ms []load.EnumMember) []typegraph.EnumMember {
	out := make([]typegraph.EnumMember, 0, len(ms))
	for _, m := range ms {
		out = append(out, typegraph.EnumMember{Name: m.Name, Value: m.Value})
	}
	return out
}
