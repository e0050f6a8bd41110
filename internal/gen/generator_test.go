package gen

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/internal/schema"
)

func loadPlan(t *testing.T, file string, tables *exceptions.Tables) *plan.Plan {
	t.Helper()

	defs, err := schema.LoadFile(filepath.Join("..", "schema", "testdata", file))
	require.NoError(t, err)

	p, err := plan.Build(defs, tables, nil)
	require.NoError(t, err, "%v", p.Diagnostics.Errors)

	return p
}

// miniTables carries only the type bindings, since the built-in rules
// target nodes the mini schema does not define.
func miniTables() *exceptions.Tables {
	def := exceptions.Default()

	return &exceptions.Tables{Foreign: def.Foreign, Primitives: def.Primitives}
}

func generate(t *testing.T, p *plan.Plan) map[string]string {
	t.Helper()

	files, err := NewGenerator(DefaultConfig()).Generate(p)
	require.NoError(t, err)
	require.Len(t, files, 3)

	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Filename] = string(f.Content)
	}

	return out
}

func assertMatch(t *testing.T, pattern, content string) {
	t.Helper()

	assert.Regexp(t, regexp.MustCompile(pattern), content)
}

func TestGenerator_Generate_Mini(t *testing.T) {
	files := generate(t, loadPlan(t, "mini.json", miniTables()))

	for name, content := range files {
		assert.True(t, strings.HasPrefix(content, Header+"\n"), name)
		assert.Contains(t, content, "package synmirror", name)
	}

	structs := files[StructsFile]
	assertMatch(t, `LeadingColon\s+bool\s+`+"`"+`json:"leading_colon,omitempty"`+"`", structs)
	assertMatch(t, `Segments\s+\[\]PathSegment\s+`+"`"+`json:"segments"`+"`", structs)
	assert.Contains(t, structs, "func (m PathSegment) MarshalJSON() ([]byte, error) {\n\treturn mirror.Marshal(m.Ident)\n}")
	assert.Contains(t, structs, "func (m *VisRestricted) UnmarshalJSON(data []byte) error {\n\treturn mirror.Unmarshal(data, &m.Path)\n}")
	assert.NotContains(t, structs, "func (m Path) MarshalJSON")

	enums := files[EnumsFile]
	assertMatch(t, `LitKindInt\s+LitKind = 1`, enums)
	assertMatch(t, `LitKindUnknown\s+LitKind = 3`, enums)
	assertMatch(t, `Unknown\s+\*mirror\.RawVariant`, enums)
	assert.Contains(t, enums, "return mirror.MarshalRaw(m.Unknown)")
	assert.Contains(t, enums, "m.Unknown = mirror.NewRawVariant(name, payload)")
	assert.Contains(t, enums, `return mirror.DecodePayload("Lit", name, payload, &m.Verbatim)`)
	assert.Contains(t, enums, `return mirror.MarshalUnit("public")`)
	assert.Contains(t, enums, `return mirror.UnknownVariant("Visibility", name)`)
	assert.NotContains(t, enums, "VisibilityKindUnknown")

	convert := files[ConvertFile]
	assert.Contains(t, convert, "func PathToMirror(in ast.Path) Path {")
	assert.Contains(t, convert, "func PathFromMirror(in Path) (ast.Path, error) {")
	assertMatch(t, `Segments:\s+mirror\.MapSlice\(in\.Segments\.Values\(\), PathSegmentToMirror\),`, convert)
	assert.Contains(t, convert, "out.LeadingColon = mirror.Present(in.LeadingColon, token.PathSep{})")
	assert.Contains(t, convert, "out.Segments, err = mirror.TryMapDelimited[token.PathSep](in.Segments, PathSegmentFromMirror)")
	assert.Contains(t, convert, `return ast.Path{}, mirror.WithField(err, "Path", "segments")`)
	assert.Contains(t, convert, "out.Ident = ast.NewIdent(in.Ident)")
	assert.Contains(t, convert, "out.PubToken = token.Pub{}")
	assert.Contains(t, convert, "out.Path, err = mirror.TryBox(in.Path, PathFromMirror)")
	assert.Contains(t, convert, "return ast.Visibility{Kind: ast.VisibilityKindPublic, Public: mirror.Box(token.Pub{})}, nil")
	assert.Contains(t, convert, "return ast.Visibility{Kind: ast.VisibilityKindInherited}, nil")
	assert.Contains(t, convert, `return ast.Visibility{}, mirror.MissingPayload("Visibility", "Restricted")`)
	assert.Contains(t, convert, `panic(mirror.InvalidKind("Visibility", in.Kind))`)
	assert.Equal(t, 1, strings.Count(convert, `mirror.Unreachable("Lit")`))
	assert.NotContains(t, convert, `mirror.Unreachable("Visibility")`)
}

func TestGenerator_Generate_PrunesImports(t *testing.T) {
	files := generate(t, loadPlan(t, "mini.json", miniTables()))

	cfg := DefaultConfig()

	structs := files[StructsFile]
	assert.Contains(t, structs, cfg.RuntimeImport)
	assert.NotContains(t, structs, cfg.OriginalImport)
	assert.NotContains(t, structs, cfg.TokenImport)
	assert.NotContains(t, structs, cfg.PunctImport)

	convert := files[ConvertFile]
	assert.Contains(t, convert, cfg.OriginalImport)
	assert.Contains(t, convert, cfg.TokenImport)
	assert.Contains(t, convert, cfg.RuntimeImport)
	assert.NotContains(t, convert, cfg.PunctImport)
}

func TestGenerator_Generate_Syn(t *testing.T) {
	files := generate(t, loadPlan(t, "syn.yaml", exceptions.Default()))

	structs := files[StructsFile]
	assertMatch(t, `Mutability\s+bool\s+`+"`"+`json:"mut,omitempty"`+"`", structs)
	assertMatch(t, `Trait\s+\*punct\.Tuple2\[bool, Path\]`, structs)
	assertMatch(t, `Vis\s+\*Visibility\s+`+"`"+`json:"vis,omitempty"`+"`", structs)
	assertMatch(t, `(?m)^\tSignature$`, structs)
	assert.Contains(t, structs, "func (m VisRestricted) MarshalJSON() ([]byte, error) {\n\treturn mirror.Marshal(m.Path)\n}")

	enums := files[EnumsFile]
	assertMatch(t, `VisibilityKindInherited\s+VisibilityKind = 0`, enums)
	assert.Contains(t, enums, `return mirror.MarshalUnit("pub")`)
	assert.Contains(t, enums, `case "..=":`)

	convert := files[ConvertFile]
	assert.Contains(t, convert, "out.Mutability = mirror.Present(in.Mutability, token.Mut{})")
	assert.Contains(t, convert, "out.Vis, err = VisibilityFromMirror(mirror.OrZero(in.Vis))")
	assertMatch(t, `Vis:\s+mirror\.OmitZero\(VisibilityToMirror\(in\.Vis\)\),`, convert)
	assert.Contains(t, convert, "out.Left, err = mirror.TryBoxValue(in.Left, ExprFromMirror)")
	assertMatch(t, `Left:\s+ExprToMirror\(\*in\.Left\),`, convert)
	assert.Contains(t, convert, `mirror.CheckLayout("ItemStruct", layout, in.SemiToken)`)
	assert.Contains(t, convert, "case FieldsKindNamed:\n\t\tlayout = mirror.LayoutRecord")
	assert.Contains(t, convert, "case FieldsKindUnit:\n\t\tlayout = mirror.LayoutEmpty")
	assert.Contains(t, convert, `mirror.CheckBody("TraitItemFn", in.Default != nil, in.SemiToken)`)
	assert.Contains(t, convert, `mirror.CheckBody("ItemMod", in.Content != nil, in.Semi)`)
	assert.Equal(t, 1, strings.Count(convert, `mirror.Unreachable("Expr")`))

	// Hand-written nodes are called but never defined.
	assert.Contains(t, convert, "StmtFromMirror(")
	assert.NotContains(t, convert, "func StmtFromMirror(")
	assert.NotContains(t, structs, "type Stmt struct")

	// Closure parameters are numbered afresh in every function.
	assert.Greater(t, strings.Count(convert, "func(v1 "), 1)
	assert.NotContains(t, convert, "func(v0 ")
}

func TestGenerator_Generate_FlattenedEnum(t *testing.T) {
	structs := generate(t, loadPlan(t, "syn.yaml", exceptions.Default()))[StructsFile]

	assertMatch(t, `Member\s+Member\s+`+"`"+`json:"-"`+"`", structs)
	assert.Contains(t, structs, "func (m ExprField) MarshalJSON() ([]byte, error) {\n"+
		"\ttype plain ExprField\n\n\treturn mirror.MarshalFlattened(plain(m), m.Member)\n}")
	assert.Contains(t, structs,
		`return mirror.UnmarshalFlattened("ExprField", data, (*plain)(m), []string{"attrs", "base"}, &m.Member)`)
	assert.Contains(t, structs, "return mirror.MarshalFlattened(plain(m), m.Lit)")
	assert.NotRegexp(t, regexp.MustCompile(`(?m)^\tMember$`), structs)
}

// layoutSchema puts a layout rule on a non-exhaustive enum.
const layoutSchema = `{
  "types": [
    {"ident": "Item", "fields": {"fields": {"syn": "Fields"}, "semi": {"option": {"token": "Semi"}}}},
    {"ident": "Fields", "exhaustive": false, "variants": {"Named": [{"syn": "Named"}], "Unit": []}},
    {"ident": "Named", "fields": {"count": {"std": "u32"}}}
  ],
  "tokens": {"Semi": ";"}
}`

func layoutPlan(t *testing.T) *plan.Plan {
	t.Helper()

	defs, err := schema.ParseJSON([]byte(layoutSchema))
	require.NoError(t, err)

	tables := miniTables()
	tables.Layouts = []exceptions.LayoutRule{{
		Node:       "Item",
		Field:      "fields",
		Terminator: "semi",
		Shapes:     map[string]exceptions.Layout{"Named": exceptions.LayoutRecord, "Unit": exceptions.LayoutEmpty},
	}}

	p, err := plan.Build(defs, tables, nil)
	require.NoError(t, err, "%v", p.Diagnostics.Errors)

	return p
}

func TestGenerator_Generate_LayoutCatchAll(t *testing.T) {
	convert := generate(t, layoutPlan(t))[ConvertFile]

	assert.Contains(t, convert, "case FieldsKindUnit:\n\t\tlayout = mirror.LayoutEmpty\n"+
		"\tcase FieldsKindUnknown:\n\t\treturn ast.Item{}, mirror.Unreachable(\"Fields\")\n\t}")
	assert.Equal(t, 2, strings.Count(convert, `mirror.Unreachable("Fields")`))
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	p := loadPlan(t, "syn.yaml", exceptions.Default())

	first, err := NewGenerator(DefaultConfig()).Generate(p)
	require.NoError(t, err)

	second, err := NewGenerator(DefaultConfig()).Generate(p)
	require.NoError(t, err)

	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].Filename, second[i].Filename)
		assert.True(t, bytes.Equal(first[i].Content, second[i].Content), first[i].Filename)
	}
}

func TestGenerator_Generate_PlanErrors(t *testing.T) {
	p := &plan.Plan{}
	p.Diagnostics.AddError(diagnostic.CodeMultiPayload, "variant has 2 payloads", "Expr", "Pair")

	files, err := NewGenerator(DefaultConfig()).Generate(p)
	require.ErrorIs(t, err, ErrPlanHasErrors)
	assert.Nil(t, files)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "mirror_structs.unformatted.go")
	require.NoError(t, os.WriteFile(stale, []byte("broken"), 0o644))

	files := []GeneratedFile{
		{Filename: StructsFile, Content: []byte("package synmirror\n")},
	}
	require.NoError(t, WriteFiles(files, dir))

	got, err := os.ReadFile(filepath.Join(dir, StructsFile))
	require.NoError(t, err)
	assert.Equal(t, "package synmirror\n", string(got))

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestRender_FormatFailureWritesSidecar(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.OutputDir = dir

	file, err := NewGenerator(cfg).render(ConvertFile, "func broken( {")
	require.Error(t, err)
	require.NotNil(t, file)

	sidecar, err := os.ReadFile(filepath.Join(dir, "mirror_convert.unformatted.go"))
	require.NoError(t, err)
	assert.Contains(t, string(sidecar), "func broken( {")
}

func TestExpand(t *testing.T) {
	g := NewGenerator(DefaultConfig())

	out, err := g.expand("{{.}}.String()", "*v1")
	require.NoError(t, err)
	assert.Equal(t, "(*v1).String()", out)

	out, err = g.expand("", "in.Ident")
	require.NoError(t, err)
	assert.Equal(t, "in.Ident", out)

	_, err = g.expand("{{.", "v1")
	require.Error(t, err)
}
