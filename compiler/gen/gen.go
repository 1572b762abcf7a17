package gen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/syssam/forge/typegraph"
)

// Import is one entry of the import manifest handed to the file-writing
// collaborator: a symbol and the path it comes from.
type Import struct {
	Symbol   string
	FromPath string
}

// Output is the result of one generation unit: the rendered source, the
// ordered import manifest, and the name of the primary builder.
type Output struct {
	SourceText  string
	Imports     []Import
	BuilderName string
}

// Generate synthesizes builder code for every buildable node in the resolved
// graph's dependency closure. Object nodes get a chainable builder with one
// setter per property in declared order; unions get tagging builders;
// intersections are flattened (failing on property conflicts); enums and
// aliases are emitted as supporting declarations. Output is deterministic:
// identical input and options produce byte-identical text.
func Generate(rt *typegraph.ResolvedType, cfg *Config) (*Output, error) {
	return generate(rt, cfg, nil)
}

// generate is Generate with a skip set: closure keys already emitted by a
// sibling file of the same multi-target batch. Skipped entries stay
// referenceable because every batch file shares one package.
func generate(rt *typegraph.ResolvedType, cfg *Config, skip map[string]bool) (*Output, error) {
	if rt == nil || rt.Root == nil {
		return nil, NewConfigError("ResolvedType", nil, "nothing to generate")
	}
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(); err != nil {
			return nil, err
		}
	}
	if cfg.Package == "" {
		return nil, NewConfigError("Package", nil, "package cannot be empty")
	}

	g := &generator{cfg: cfg, rt: rt, seen: make(map[Import]bool)}
	g.f = jen.NewFile(cfg.Package)
	if cfg.Header != "" {
		g.f.HeaderComment(cfg.Header)
	}

	builders := 0
	for _, key := range rt.Order {
		if skip[key] {
			continue
		}
		// Externally provided types are referenced through their import
		// path, never re-declared here.
		if _, external := cfg.Imports[baseName(key)]; external {
			continue
		}
		node := rt.Closure[key]
		switch node.Kind {
		case typegraph.KindObject:
			if err := g.emitObject(key, node.Properties); err != nil {
				return nil, err
			}
			builders++
		case typegraph.KindUnion:
			g.emitUnion(key, node)
			builders++
		case typegraph.KindIntersection:
			props, err := g.flatten(key, node)
			if err != nil {
				return nil, err
			}
			if err := g.emitObject(key, props); err != nil {
				return nil, err
			}
			builders++
		case typegraph.KindEnum:
			g.emitEnum(key, node)
		default:
			g.emitAlias(key, node)
		}
	}
	if builders > 0 {
		g.record(Import{Symbol: "fluent", FromPath: RuntimePkg})
	}

	var buf bytes.Buffer
	if err := g.f.Render(&buf); err != nil {
		return nil, NewGenerationError(g.rootKey(), "render", err)
	}
	return &Output{
		SourceText:  buf.String(),
		Imports:     g.imports,
		BuilderName: g.rootBuilderName(),
	}, nil
}

type generator struct {
	cfg     *Config
	rt      *typegraph.ResolvedType
	f       *jen.File
	imports []Import
	seen    map[Import]bool
}

// rootKey locates the closure key of the primary node. Closure entries are
// recorded in completion order, so the root is normally the last entry.
func (g *generator) rootKey() string {
	for _, key := range g.rt.Order {
		if g.rt.Closure[key] == g.rt.Root {
			return key
		}
	}
	if n := len(g.rt.Order); n > 0 {
		return g.rt.Order[n-1]
	}
	return ""
}

func (g *generator) rootBuilderName() string {
	key := g.rootKey()
	if key == "" {
		return ""
	}
	switch g.rt.Closure[key].Kind {
	case typegraph.KindObject, typegraph.KindUnion, typegraph.KindIntersection:
		return g.builderName(key)
	}
	return ""
}

func (g *generator) record(imp Import) {
	if g.seen[imp] {
		return
	}
	g.seen[imp] = true
	g.imports = append(g.imports, imp)
}

// typeName sanitizes a closure key into a Go identifier. Instance keys of
// generics fold their arguments into the name: "Box<string>" -> "BoxString".
func typeName(key string) string {
	clean := strings.NewReplacer("[]", " array", "<", " ", ">", " ", ",", " ").Replace(key)
	fields := strings.FieldsFunc(clean, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(inflect.Camelize(f))
	}
	if b.Len() == 0 {
		return "Anonymous"
	}
	return b.String()
}

func (g *generator) builderName(key string) string {
	return typeName(key) + g.cfg.BuilderSuffix
}

// baseName strips the type-argument part of an instance key.
func baseName(key string) string {
	if i := strings.IndexByte(key, '<'); i >= 0 {
		return key[:i]
	}
	return key
}

func exported(name string) string { return inflect.Camelize(name) }

func fieldVar(name string) string { return inflect.CamelizeDownFirst(name) }

// emitObject renders the value struct and fluent builder for one
// object-shaped closure entry.
func (g *generator) emitObject(key string, props []typegraph.PropertyInfo) error {
	vname := typeName(key)
	bname := g.builderName(key)

	if g.cfg.EmitValueTypes {
		fields := make([]jen.Code, 0, len(props))
		for _, p := range props {
			field := jen.Id(exported(p.Name)).Add(g.goType(p.Type))
			if g.cfg.AddComments && p.Doc != "" {
				field = jen.Comment(p.Doc).Line().Add(field)
			}
			fields = append(fields, field)
		}
		if g.cfg.AddComments {
			g.f.Commentf("%s is the value assembled by %s.", vname, bname)
		}
		g.f.Type().Id(vname).Struct(fields...)
	}

	// Builder struct: the target value, the set-tracking map, and one
	// deferred-build slot per nested builderable property.
	builderFields := []jen.Code{
		jen.Id("target").Id(vname),
		jen.Id("set").Map(jen.String()).Bool(),
	}
	for _, p := range props {
		if elemKey, ok := g.nestedKey(p.Type); ok {
			builderFields = append(builderFields,
				jen.Id(fieldVar(p.Name)+"Fn").Qual(RuntimePkg, "BuildFunc").Index(jen.Id(typeName(elemKey))))
		}
		if elemKey, ok := g.elementKey(p.Type); ok {
			builderFields = append(builderFields,
				jen.Id(fieldVar(p.Name)+"Fns").Index().Qual(RuntimePkg, "BuildFunc").Index(jen.Id(typeName(elemKey))))
		}
	}
	if g.cfg.AddComments {
		g.f.Commentf("%s assembles a %s value property by property.", bname, vname)
	}
	g.f.Type().Id(bname).Struct(builderFields...)

	if g.cfg.AddComments {
		g.f.Commentf("New%s creates an empty %s.", bname, bname)
	}
	g.f.Func().Id("New" + bname).Params().Op("*").Id(bname).Block(
		jen.Return(jen.Op("&").Id(bname).Values(jen.Dict{
			jen.Id("set"): jen.Make(jen.Map(jen.String()).Bool()),
		})),
	)

	for _, p := range props {
		g.emitSetters(bname, p)
	}
	return g.emitBuild(vname, bname, props)
}

// emitSetters renders the plain setter and, for nested builderable
// properties, the deferred-builder variants.
func (g *generator) emitSetters(bname string, p typegraph.PropertyInfo) {
	prop := exported(p.Name)
	setter := g.cfg.SetterPrefix + prop

	if g.cfg.AddComments {
		doc := p.Doc
		if doc == "" {
			doc = fmt.Sprintf("%s sets the %q property.", setter, p.Name)
		}
		g.f.Comment(doc)
	}
	g.f.Func().Params(jen.Id("b").Op("*").Id(bname)).Id(setter).
		Params(jen.Id("v").Add(g.goType(p.Type))).Op("*").Id(bname).Block(
		jen.Id("b").Dot("target").Dot(prop).Op("=").Id("v"),
		jen.Id("b").Dot("set").Index(jen.Lit(p.Name)).Op("=").True(),
		jen.Return(jen.Id("b")),
	)

	if elemKey, ok := g.nestedKey(p.Type); ok {
		eb := g.builderName(elemKey)
		if g.cfg.AddComments {
			g.f.Commentf("With%s configures the %q property through its own builder.", prop, p.Name)
		}
		g.f.Func().Params(jen.Id("b").Op("*").Id(bname)).Id("With"+prop).
			Params(jen.Id("fn").Func().Params(jen.Op("*").Id(eb))).Op("*").Id(bname).Block(
			jen.Id("nb").Op(":=").Id("New"+eb).Call(),
			jen.Id("fn").Call(jen.Id("nb")),
			jen.Id("b").Dot(fieldVar(p.Name)+"Fn").Op("=").Id("nb").Dot("Build"),
			jen.Return(jen.Id("b")),
		)
	}

	if elemKey, ok := g.elementKey(p.Type); ok {
		eb := g.builderName(elemKey)
		add := "Add" + inflect.Singularize(prop)
		if g.cfg.AddComments {
			g.f.Commentf("%s appends one %q element built through its own builder.", add, p.Name)
		}
		g.f.Func().Params(jen.Id("b").Op("*").Id(bname)).Id(add).
			Params(jen.Id("fn").Func().Params(jen.Op("*").Id(eb))).Op("*").Id(bname).Block(
			jen.Id("nb").Op(":=").Id("New"+eb).Call(),
			jen.Id("fn").Call(jen.Id("nb")),
			jen.Id("b").Dot(fieldVar(p.Name)+"Fns").Op("=").
				Append(jen.Id("b").Dot(fieldVar(p.Name)+"Fns"), jen.Id("nb").Dot("Build")),
			jen.Return(jen.Id("b")),
		)
	}
}

// emitBuild renders the terminal build operation: nested builds first, then
// defaults, then the required-property check.
func (g *generator) emitBuild(vname, bname string, props []typegraph.PropertyInfo) error {
	zero := jen.Id(vname).Values()
	var stmts []jen.Code

	for _, p := range props {
		prop := exported(p.Name)
		if _, ok := g.nestedKey(p.Type); ok {
			fld := fieldVar(p.Name) + "Fn"
			stmts = append(stmts, jen.If(jen.Id("b").Dot(fld).Op("!=").Nil()).Block(
				jen.List(jen.Id("v"), jen.Err()).Op(":=").Id("b").Dot(fld).Call(),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zero.Clone(), jen.Err())),
				jen.Id("b").Dot("target").Dot(prop).Op("=").Id("v"),
				jen.Id("b").Dot("set").Index(jen.Lit(p.Name)).Op("=").True(),
			))
		}
		if _, ok := g.elementKey(p.Type); ok {
			fld := fieldVar(p.Name) + "Fns"
			stmts = append(stmts, jen.If(jen.Len(jen.Id("b").Dot(fld)).Op(">").Lit(0)).Block(
				jen.List(jen.Id("vs"), jen.Err()).Op(":=").Qual(RuntimePkg, "BuildAll").Call(jen.Id("b").Dot(fld)),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(zero.Clone(), jen.Err())),
				jen.Id("b").Dot("target").Dot(prop).Op("=").
					Append(jen.Id("b").Dot("target").Dot(prop), jen.Id("vs").Op("...")),
				jen.Id("b").Dot("set").Index(jen.Lit(p.Name)).Op("=").True(),
			))
		}
	}

	defaulted := make(map[string]bool, len(props))
	for _, p := range props {
		expr, ok, err := g.defaultExpr(p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		defaulted[p.Name] = true
		stmts = append(stmts, jen.If(jen.Op("!").Id("b").Dot("set").Index(jen.Lit(p.Name))).Block(
			jen.Id("b").Dot("target").Dot(exported(p.Name)).Op("=").Add(expr),
		))
	}

	var required []typegraph.PropertyInfo
	for _, p := range props {
		if !p.Optional && !defaulted[p.Name] {
			required = append(required, p)
		}
	}
	if len(required) > 0 {
		stmts = append(stmts, jen.Var().Id("missing").Index().String())
		for _, p := range required {
			stmts = append(stmts, jen.If(jen.Op("!").Id("b").Dot("set").Index(jen.Lit(p.Name))).Block(
				jen.Id("missing").Op("=").Append(jen.Id("missing"), jen.Lit(p.Name)),
			))
		}
		stmts = append(stmts, jen.If(jen.Len(jen.Id("missing")).Op(">").Lit(0)).Block(
			jen.Return(zero.Clone(), jen.Qual(RuntimePkg, "NewIncompleteBuild").
				Call(jen.Lit(vname), jen.Id("missing").Op("..."))),
		))
	}
	stmts = append(stmts, jen.Return(jen.Id("b").Dot("target"), jen.Nil()))

	if g.cfg.AddComments {
		g.f.Commentf("Build assembles the final %s value.", vname)
	}
	g.f.Func().Params(jen.Id("b").Op("*").Id(bname)).Id("Build").
		Params().Params(jen.Id(vname), jen.Error()).Block(stmts...)
	return nil
}

// defaultExpr decides the default value assigned to an unset property at
// build time. Generation hooks are consulted first and override everything;
// otherwise optional properties receive a placeholder default when the
// UseDefaults policy is on.
func (g *generator) defaultExpr(p typegraph.PropertyInfo) (jen.Code, bool, error) {
	if g.cfg.Pipeline != nil {
		code, err := g.cfg.Pipeline.ApplyValue(p.Type)
		if err != nil {
			return nil, false, err
		}
		if code != "" {
			return jen.Id(code), true, nil
		}
	}
	if !g.cfg.UseDefaults || !p.Optional {
		return nil, false, nil
	}
	return placeholderDefault(p.Type)
}

func placeholderDefault(t *typegraph.TypeInfo) (jen.Code, bool, error) {
	if t == nil {
		return nil, false, nil
	}
	switch t.Kind {
	case typegraph.KindPrimitive:
		switch t.Name {
		case "string":
			return jen.Lit(""), true, nil
		case "bool", "boolean":
			return jen.False(), true, nil
		case "int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64",
			"byte", "rune", "bigint", "number", "float32", "float64":
			return jen.Lit(0), true, nil
		}
	case typegraph.KindLiteral:
		if code, ok := litCode(t.Value); ok {
			return code, true, nil
		}
	case typegraph.KindArray:
		return jen.Nil(), true, nil
	}
	return nil, false, nil
}

func litCode(v any) (jen.Code, bool) {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return jen.Lit(v), true
	}
	return nil, false
}

// nestedKey returns the closure key of a property type that builds through
// its own builder: a reference to an object, union or intersection entry.
func (g *generator) nestedKey(t *typegraph.TypeInfo) (string, bool) {
	if t == nil || t.Kind != typegraph.KindReference {
		return "", false
	}
	if _, external := g.cfg.Imports[t.Name]; external {
		return "", false
	}
	key := typegraph.InstanceName(t.Name, t.TypeArguments)
	node, ok := g.rt.Lookup(key)
	if !ok {
		return "", false
	}
	switch node.Kind {
	case typegraph.KindObject, typegraph.KindUnion, typegraph.KindIntersection:
		return key, true
	}
	return "", false
}

// elementKey is nestedKey for the element type of an array property.
func (g *generator) elementKey(t *typegraph.TypeInfo) (string, bool) {
	if t == nil || t.Kind != typegraph.KindArray {
		return "", false
	}
	return g.nestedKey(t.Elem)
}

// flatten merges the properties of every object-shaped constituent of an
// intersection, in constituent order. Two constituents declaring the same
// property with different rendered types is a conflict; an identical
// re-declaration is kept once, required winning over optional.
func (g *generator) flatten(key string, node *typegraph.TypeInfo) ([]typegraph.PropertyInfo, error) {
	var merged []typegraph.PropertyInfo
	index := make(map[string]int)
	for _, m := range node.Members {
		obj := g.rt.Deref(m)
		if obj.Kind == typegraph.KindIntersection {
			inner, err := g.flatten(key, obj)
			if err != nil {
				return nil, err
			}
			obj = typegraph.Object(obj.Name, inner...)
		}
		if !obj.IsObject() {
			continue
		}
		for _, p := range obj.Properties {
			if i, ok := index[p.Name]; ok {
				if merged[i].Type.String() != p.Type.String() {
					return nil, NewPropertyConflictError(key, p.Name, merged[i].Type.String(), p.Type.String())
				}
				if !p.Optional {
					merged[i].Optional = false
				}
				continue
			}
			index[p.Name] = len(merged)
			merged = append(merged, p)
		}
	}
	return merged, nil
}

// emitUnion renders a tagging builder: the value carries the constituent tag
// and the configured value, and the builder exposes one As method per
// constituent shape.
func (g *generator) emitUnion(key string, node *typegraph.TypeInfo) {
	vname := typeName(key)
	bname := g.builderName(key)

	if g.cfg.EmitValueTypes {
		if g.cfg.AddComments {
			g.f.Commentf("%s is a tagged value holding one constituent of the %s union.", vname, key)
		}
		g.f.Type().Id(vname).Struct(
			jen.Id("Kind").String(),
			jen.Id("Value").Any(),
		)
	}

	if g.cfg.AddComments {
		g.f.Commentf("%s assembles a %s value from any constituent shape.", bname, vname)
	}
	g.f.Type().Id(bname).Struct(
		jen.Id("value").Id(vname),
		jen.Id("set").Bool(),
	)
	g.f.Func().Id("New" + bname).Params().Op("*").Id(bname).Block(
		jen.Return(jen.Op("&").Id(bname).Values()),
	)

	labels := make(map[string]int)
	for _, m := range node.Members {
		tag := m.String()
		label := memberLabel(tag)
		if n := labels[label]; n > 0 {
			label = fmt.Sprintf("%s%d", label, n+1)
		}
		labels[memberLabel(tag)]++
		if g.cfg.AddComments {
			g.f.Commentf("As%s configures the union with a %s value.", label, tag)
		}
		g.f.Func().Params(jen.Id("b").Op("*").Id(bname)).Id("As"+label).
			Params(jen.Id("v").Add(g.goType(m))).Op("*").Id(bname).Block(
			jen.Id("b").Dot("value").Op("=").Id(vname).Values(jen.Dict{
				jen.Id("Kind"):  jen.Lit(tag),
				jen.Id("Value"): jen.Id("v"),
			}),
			jen.Id("b").Dot("set").Op("=").True(),
			jen.Return(jen.Id("b")),
		)
	}

	g.f.Func().Params(jen.Id("b").Op("*").Id(bname)).Id("Build").
		Params().Params(jen.Id(vname), jen.Error()).Block(
		jen.If(jen.Op("!").Id("b").Dot("set")).Block(
			jen.Return(jen.Id(vname).Values(), jen.Qual(RuntimePkg, "NewIncompleteBuild").
				Call(jen.Lit(vname), jen.Lit("value"))),
		),
		jen.Return(jen.Id("b").Dot("value"), jen.Nil()),
	)
}

func memberLabel(tag string) string {
	return typeName(tag)
}

// emitEnum renders the enum's named type and its value constants.
func (g *generator) emitEnum(key string, node *typegraph.TypeInfo) {
	vname := typeName(key)
	underlying := jen.String()
	if len(node.EnumMembers) > 0 {
		switch node.EnumMembers[0].Value.(type) {
		case int, int64:
			underlying = jen.Int()
		case float64:
			underlying = jen.Float64()
		}
	}
	if g.cfg.AddComments {
		g.f.Commentf("%s enumerates the values of %s.", vname, key)
	}
	g.f.Type().Id(vname).Add(underlying)
	if len(node.EnumMembers) == 0 {
		return
	}
	g.f.Const().DefsFunc(func(d *jen.Group) {
		for _, m := range node.EnumMembers {
			def := d.Id(vname + exported(m.Name)).Id(vname)
			if code, ok := litCode(m.Value); ok {
				def.Op("=").Add(code)
			} else {
				def.Op("=").Lit(fmt.Sprintf("%v", m.Value))
			}
		}
	})
}

// emitAlias renders closure entries that are neither buildable nor enums as
// plain type aliases so generated code stays self-contained.
func (g *generator) emitAlias(key string, node *typegraph.TypeInfo) {
	g.f.Type().Id(typeName(key)).Op("=").Add(g.goType(node))
}

// goType renders a graph node as the Go type of a value-struct field or
// setter parameter, recording external imports in the manifest.
func (g *generator) goType(t *typegraph.TypeInfo) jen.Code {
	if t == nil {
		return jen.Any()
	}
	switch t.Kind {
	case typegraph.KindPrimitive:
		return primType(t.Name)
	case typegraph.KindReference:
		if path, ok := g.cfg.Imports[t.Name]; ok {
			g.record(Import{Symbol: t.Name, FromPath: path})
			return jen.Qual(path, t.Name)
		}
		return jen.Id(typeName(typegraph.InstanceName(t.Name, t.TypeArguments)))
	case typegraph.KindArray:
		return jen.Index().Add(g.goType(t.Elem))
	case typegraph.KindTuple:
		elems := t.Elements
		return jen.StructFunc(func(s *jen.Group) {
			for i, e := range elems {
				s.Id(fmt.Sprintf("E%d", i)).Add(g.goType(e))
			}
		})
	case typegraph.KindObject:
		props := t.Properties
		return jen.StructFunc(func(s *jen.Group) {
			for _, p := range props {
				s.Id(exported(p.Name)).Add(g.goType(p.Type))
			}
		})
	case typegraph.KindLiteral:
		switch t.Value.(type) {
		case string:
			return jen.String()
		case bool:
			return jen.Bool()
		case int, int64:
			return jen.Int64()
		case float64:
			return jen.Float64()
		}
		return jen.Any()
	case typegraph.KindFunction:
		params := make([]jen.Code, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, g.goType(p))
		}
		fn := jen.Func().Params(params...)
		if t.Return != nil {
			fn = fn.Add(g.goType(t.Return))
		}
		return fn
	case typegraph.KindEnum:
		return jen.Id(typeName(t.Name))
	default:
		// Unions, intersections, generics and unknowns without a named
		// closure entry have no precise Go rendering.
		return jen.Any()
	}
}

func primType(name string) jen.Code {
	switch name {
	case "string":
		return jen.String()
	case "bool", "boolean":
		return jen.Bool()
	case "int":
		return jen.Int()
	case "int8":
		return jen.Int8()
	case "int16":
		return jen.Int16()
	case "int32":
		return jen.Int32()
	case "int64", "bigint":
		return jen.Int64()
	case "uint":
		return jen.Uint()
	case "uint8":
		return jen.Uint8()
	case "uint16":
		return jen.Uint16()
	case "uint32":
		return jen.Uint32()
	case "uint64":
		return jen.Uint64()
	case "float32":
		return jen.Float32()
	case "float64", "number":
		return jen.Float64()
	case "byte":
		return jen.Byte()
	case "rune":
		return jen.Rune()
	default:
		return jen.Any()
	}
}
