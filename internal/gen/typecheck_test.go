package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"mirror-generator/internal/analyze"
	"mirror-generator/internal/classify"
	"mirror-generator/internal/common"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/internal/schema"
)

// foreignStub backs the default foreign bindings with the constructors
// and accessors their templates call.
const foreignStub = `
type Span struct{}

type Ident struct{ name string }

func NewIdent(name string) Ident { return Ident{name: name} }

func (i Ident) String() string { return i.name }

type TokenStream struct{ text string }

func ParseTokenStream(text string) (TokenStream, error) { return TokenStream{text: text}, nil }

func (s TokenStream) String() string { return s.text }

type Literal struct{ text string }

func ParseLiteral(text string) (Literal, error) {
	if text == "" {
		return Literal{}, &parseError{}
	}

	return Literal{text: text}, nil
}

func (l Literal) String() string { return l.text }

type parseError struct{}

func (*parseError) Error() string { return "empty literal" }
`

// stubSources renders stand-ins for the original AST and token packages
// that p converts. Every field and payload is spelled the way the
// generated conversions expect it.
func stubSources(p *plan.Plan, cfg Config) (astSrc, tokenSrc string) {
	strip := strings.NewReplacer(classify.AliasAST+".", "")
	tokens := make(map[string]bool)
	refs := make(map[string]bool)

	for name := range p.Defs.Tokens {
		tokens[name] = true
	}

	collect := func(ft *schema.FieldType) {
		ft.Walk(func(t *schema.FieldType) {
			switch t.Kind {
			case schema.KindToken, schema.KindGroup:
				tokens[t.Name] = true
			case schema.KindDelimited:
				tokens[t.Punct] = true
			case schema.KindNodeRef:
				refs[t.Name] = true
			default:
			}
		})
	}

	var body strings.Builder

	body.WriteString(foreignStub)

	for _, n := range p.Defs.Sorted() {
		delete(refs, n.Name)

		switch n.Shape {
		case schema.ShapeStruct:
			fmt.Fprintf(&body, "\ntype %s struct {\n", n.Name)

			for _, f := range n.Fields {
				collect(f.Type)
				fmt.Fprintf(&body, "\t%s %s\n", common.CamelCase(f.Name), strip.Replace(p.Classifier.OrigType(f.Type)))
			}

			body.WriteString("}\n")

		case schema.ShapeEnum:
			fmt.Fprintf(&body, "\ntype %sKind int\n\nconst (\n", n.Name)

			for i, v := range n.Variants {
				if i == 0 {
					fmt.Fprintf(&body, "\t%s %sKind = iota\n", kindConst(n.Name, v.Name), n.Name)
				} else {
					fmt.Fprintf(&body, "\t%s\n", kindConst(n.Name, v.Name))
				}
			}

			fmt.Fprintf(&body, ")\n\ntype %s struct {\n\tKind %sKind\n", n.Name, n.Name)

			for _, v := range n.Variants {
				for _, ft := range v.Payload {
					collect(ft)
				}

				if len(v.Payload) == 1 {
					fmt.Fprintf(&body, "\t%s %s\n", v.Name, strip.Replace(p.Classifier.PayloadType(v.Payload[0])))
				}
			}

			body.WriteString("}\n")

		default:
			fmt.Fprintf(&body, "\ntype %s struct{}\n", n.Name)
		}
	}

	// Names the schema leaves unresolved still need a type.
	for _, name := range common.SortedKeys(refs) {
		fmt.Fprintf(&body, "\ntype %s struct{}\n", name)
	}

	var imports []string

	if strings.Contains(body.String(), classify.AliasToken+".") {
		imports = append(imports, fmt.Sprintf("\t%s %q", classify.AliasToken, cfg.TokenImport))
	}

	if strings.Contains(body.String(), classify.AliasPunct+".") {
		imports = append(imports, fmt.Sprintf("\t%s %q", classify.AliasPunct, cfg.PunctImport))
	}

	astSrc = "package ast\n"
	if len(imports) > 0 {
		astSrc += "\nimport (\n" + strings.Join(imports, "\n") + "\n)\n"
	}

	astSrc += body.String()

	var tok strings.Builder

	tok.WriteString("package token\n")

	for _, name := range common.SortedKeys(tokens) {
		fmt.Fprintf(&tok, "\ntype %s struct{}\n", name)
	}

	return astSrc, tok.String()
}

// manualStub defines the hand-written mirrors the generated code calls.
// It is empty when the plan has none.
func manualStub(p *plan.Plan, cfg Config) string {
	if len(p.Manual) == 0 {
		return ""
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "package %s\n\nimport %s %q\n", cfg.PackageName, classify.AliasAST, cfg.OriginalImport)

	for _, name := range p.Manual {
		fmt.Fprintf(&sb, "\ntype %s struct{}\n", name)
		fmt.Fprintf(&sb, "\nfunc %s(ast.%s) %s { return %s{} }\n", mirrorFunc(name), name, name, name)
		fmt.Fprintf(&sb, "\nfunc %s(%s) (ast.%s, error) { return ast.%s{}, nil }\n", rebuildFunc(name), name, name, name)
	}

	return sb.String()
}

// runtimePackages loads the mirror runtime and the punctuated containers
// it depends on, so that both share one type identity.
var runtimePackages = sync.OnceValues(func() (map[string]*types.Package, error) {
	cfg := DefaultConfig()

	rt, err := analyze.Load("", cfg.RuntimeImport)
	if err != nil {
		return nil, err
	}

	for _, imp := range rt.Imports() {
		if imp.Path() == cfg.PunctImport {
			return map[string]*types.Package{cfg.RuntimeImport: rt, cfg.PunctImport: imp}, nil
		}
	}

	return nil, fmt.Errorf("%s does not import %s", cfg.RuntimeImport, cfg.PunctImport)
})

// stubImporter type-checks in-memory packages on top of the loaded
// runtime.
type stubImporter struct {
	fset    *token.FileSet
	sources map[string]string
	done    map[string]*types.Package
}

func (im *stubImporter) Import(importPath string) (*types.Package, error) {
	if pkg, ok := im.done[importPath]; ok {
		return pkg, nil
	}

	src, ok := im.sources[importPath]
	if !ok {
		return nil, fmt.Errorf("no source for %s", importPath)
	}

	f, err := parser.ParseFile(im.fset, importPath+".go", src, 0)
	if err != nil {
		return nil, err
	}

	conf := types.Config{Importer: im}

	pkg, err := conf.Check(importPath, im.fset, []*ast.File{f}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w\n%s", importPath, err, src)
	}

	im.done[importPath] = pkg

	return pkg, nil
}

// typeCheck generates p and type-checks the output against stubs of the
// original packages and the real runtime.
func typeCheck(t *testing.T, p *plan.Plan) {
	t.Helper()

	runtime, err := runtimePackages()
	require.NoError(t, err)

	cfg := DefaultConfig()

	files, err := NewGenerator(cfg).Generate(p)
	require.NoError(t, err)

	astSrc, tokenSrc := stubSources(p, cfg)

	im := &stubImporter{
		fset: token.NewFileSet(),
		sources: map[string]string{
			cfg.OriginalImport: astSrc,
			cfg.TokenImport:    tokenSrc,
		},
		done: make(map[string]*types.Package, len(runtime)),
	}

	for importPath, pkg := range runtime {
		im.done[importPath] = pkg
	}

	sources := make(map[string][]byte, len(files)+1)
	for _, f := range files {
		sources[f.Filename] = f.Content
	}

	if stub := manualStub(p, cfg); stub != "" {
		sources["manual.go"] = []byte(stub)
	}

	parsed := make([]*ast.File, 0, len(sources))

	for _, name := range common.SortedKeys(sources) {
		f, err := parser.ParseFile(im.fset, name, sources[name], 0)
		require.NoError(t, err, name)

		parsed = append(parsed, f)
	}

	var errs []error

	conf := types.Config{
		Importer: im,
		Error:    func(err error) { errs = append(errs, err) },
	}

	_, err = conf.Check(path.Join(path.Dir(cfg.OriginalImport), cfg.PackageName), im.fset, parsed, nil)
	require.NoError(t, err, "%v", errors.Join(errs...))
}

func TestGenerator_Generate_TypeChecks(t *testing.T) {
	tests := []struct {
		name string
		plan func(t *testing.T) *plan.Plan
	}{
		{"mini", func(t *testing.T) *plan.Plan { return loadPlan(t, "mini.json", miniTables()) }},
		{"syn", func(t *testing.T) *plan.Plan { return loadPlan(t, "syn.yaml", exceptions.Default()) }},
		{"layout", func(t *testing.T) *plan.Plan { return layoutPlan(t) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typeCheck(t, tt.plan(t))
		})
	}
}

func TestStubSources(t *testing.T) {
	p := loadPlan(t, "mini.json", miniTables())

	astSrc, tokenSrc := stubSources(p, DefaultConfig())

	for _, want := range []string{
		"\ttoken \"example.com/syn/token\"",
		"\tpunct \"mirror-generator/pkg/punct\"",
		"\tSegments punct.List[PathSegment, token.PathSep]\n",
		"\tVisibilityKindPublic VisibilityKind = iota\n",
		"\tRestricted *VisRestricted\n",
		"\tPath *Path\n",
		"\tIdent Ident\n",
		"\tVerbatim *Literal\n",
		"\ntype Reserved struct{}\n",
	} {
		require.Contains(t, astSrc, want)
	}

	names := strings.Fields(strings.NewReplacer("type", "", "struct{}", "", "package token", "").Replace(tokenSrc))
	require.True(t, slices.IsSorted(names))
	require.Equal(t, []string{"Paren", "PathSep", "Pub"}, names)
	require.Empty(t, manualStub(p, DefaultConfig()))
}
