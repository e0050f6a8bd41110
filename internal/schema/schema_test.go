package schema

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror-generator/internal/diagnostic"
)

func TestLoadFile_JSON(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "mini.json"))
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", defs.Version)
	require.Len(t, defs.Nodes, 6)
	assert.Equal(t, map[string]string{"Paren": "()", "PathSep": "::", "Pub": "pub"}, defs.Tokens)

	path, ok := defs.Lookup("Path")
	require.True(t, ok)
	assert.Equal(t, ShapeStruct, path.Shape)
	assert.True(t, path.Exhaustive)
	require.Len(t, path.Fields, 2)
	assert.Equal(t, "leading_colon", path.Fields[0].Name)
	assert.Equal(t, "Optional(Token(PathSep))", path.Fields[0].Type.String())
	assert.Equal(t, "segments", path.Fields[1].Name)
	assert.Equal(t, "Delimited(PathSegment, PathSep)", path.Fields[1].Type.String())

	vis, ok := defs.Lookup("Visibility")
	require.True(t, ok)
	assert.Equal(t, ShapeEnum, vis.Shape)
	require.Len(t, vis.Variants, 3)
	assert.Equal(t, []string{"Public", "Restricted", "Inherited"},
		[]string{vis.Variants[0].Name, vis.Variants[1].Name, vis.Variants[2].Name})
	assert.True(t, vis.Variants[2].IsUnit())

	lit, ok := defs.Lookup("Lit")
	require.True(t, ok)
	assert.False(t, lit.Exhaustive)
	assert.Equal(t, []string{"full", "parsing"}, lit.Availability)
	assert.Equal(t, "Primitive(u32)", lit.Variants[0].Payload[0].String())
	assert.Equal(t, "Foreign(Literal)", lit.Variants[1].Payload[0].String())

	reserved, ok := defs.Lookup("Reserved")
	require.True(t, ok)
	assert.Equal(t, ShapeOpaque, reserved.Shape)
}

func TestLoadFile_YAML(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "syn.yaml"))
	require.NoError(t, err)

	assert.Len(t, defs.Nodes, 121)

	closure, ok := defs.Lookup("ExprClosure")
	require.True(t, ok)

	names := make([]string, 0, len(closure.Fields))
	for _, f := range closure.Fields {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{
		"attrs", "movability", "asyncness", "capture", "or1_token",
		"inputs", "or2_token", "output", "body",
	}, names)

	impl, ok := defs.Lookup("ItemImpl")
	require.True(t, ok)

	trait, ok := impl.Field("trait_")
	require.True(t, ok)
	assert.Equal(t, "Optional(Tuple(Optional(Token(Not)), Path, Token(For)))", trait.Type.String())

	stmt, ok := defs.Lookup("Stmt")
	require.True(t, ok)

	expr, ok := stmt.Variant("Expr")
	require.True(t, ok)
	assert.Len(t, expr.Payload, 2)

	spelling, ok := defs.Token("DotDotEq")
	require.True(t, ok)
	assert.Equal(t, "..=", spelling)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not an object", data: `[]`},
		{name: "missing ident", data: `{"types": [{"fields": {}}]}`},
		{name: "unknown type key", data: `{"types": [{"ident": "A", "fields": {"x": {"array": "B"}}}]}`},
		{name: "two type keys", data: `{"types": [{"ident": "A", "fields": {"x": {"syn": "B", "std": "u8"}}}]}`},
		{name: "fields and variants", data: `{"types": [{"ident": "A", "fields": {}, "variants": {}}]}`},
		{name: "empty tuple", data: `{"types": [{"ident": "A", "fields": {"x": {"tuple": []}}}]}`},
		{name: "punct without name", data: `{"types": [{"ident": "A", "fields": {"x": {"punctuated": {"element": {"syn": "B"}}}}}]}`},
		{name: "payload not array", data: `{"types": [{"ident": "A", "variants": {"V": {"syn": "B"}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParse_Syntax(t *testing.T) {
	_, err := ParseJSON([]byte(`{"types": [`))
	require.Error(t, err)

	_, err = ParseYAML([]byte("types: [\n"))
	require.Error(t, err)
}

func TestParseYAML_PreservesOrder(t *testing.T) {
	data := []byte(`
types:
  - ident: Z
    fields:
      zeta: {std: bool}
      alpha: {std: bool}
      mid: {std: bool}
  - ident: A
    variants:
      Second: []
      First: []
`)

	defs, err := ParseYAML(data)
	require.NoError(t, err)

	z, _ := defs.Lookup("Z")
	assert.Equal(t, "zeta", z.Fields[0].Name)
	assert.Equal(t, "alpha", z.Fields[1].Name)
	assert.Equal(t, "mid", z.Fields[2].Name)

	a, _ := defs.Lookup("A")
	assert.Equal(t, "Second", a.Variants[0].Name)

	sorted := defs.Sorted()
	assert.Equal(t, "A", sorted[0].Name)
	assert.Equal(t, "Z", sorted[1].Name)
}

func TestDefinitions_Filter(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "syn.yaml"))
	require.NoError(t, err)

	derive := defs.Filter([]string{"derive"})
	_, ok := derive.Lookup("File")
	assert.False(t, ok)
	assert.Len(t, derive.Nodes, 120)

	full := defs.Filter([]string{"full"})
	_, ok = full.Lookup("File")
	assert.True(t, ok)

	all := defs.Filter(nil)
	assert.Len(t, all.Nodes, 121)
}

func synOptions() ValidateOptions {
	return ValidateOptions{
		Foreign:      []string{"Span", "Ident", "TokenStream", "Literal"},
		OpaqueRefs:   []string{"Reserved"},
		MultiPayload: []string{"Stmt"},
	}
}

func TestValidate_Syn(t *testing.T) {
	defs, err := LoadFile(filepath.Join("testdata", "syn.yaml"))
	require.NoError(t, err)

	diags := Validate(defs, synOptions())
	assert.True(t, diags.IsValid(), "unexpected errors: %v", diags.Error())
}

func TestValidate_Faults(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts ValidateOptions
		want []string
	}{
		{
			name: "duplicate node",
			data: `{"types": [{"ident": "A", "fields": {"x": {"std": "bool"}}}, {"ident": "A", "variants": {"V": []}}]}`,
			want: []string{diagnostic.CodeDuplicateNode},
		},
		{
			name: "unknown token",
			data: `{"types": [{"ident": "A", "fields": {"x": {"token": "Semi"}}}]}`,
			want: []string{diagnostic.CodeUnknownToken},
		},
		{
			name: "unknown separator",
			data: `{"types": [{"ident": "A", "fields": {"x": {"punctuated": {"element": {"std": "bool"}, "punct": "Comma"}}}}]}`,
			want: []string{diagnostic.CodeUnknownToken},
		},
		{
			name: "unresolved node",
			data: `{"types": [{"ident": "A", "fields": {"x": {"box": {"syn": "Missing"}}}}]}`,
			want: []string{diagnostic.CodeUnresolvedRef},
		},
		{
			name: "excluded node is allowed",
			data: `{"types": [{"ident": "A", "fields": {"x": {"syn": "Missing"}}}]}`,
			opts: ValidateOptions{Excluded: []string{"Missing"}},
		},
		{
			name: "foreign without binding",
			data: `{"types": [{"ident": "A", "fields": {"x": {"proc_macro2": "Span"}}}]}`,
			want: []string{diagnostic.CodeUnresolvedRef},
		},
		{
			name: "opaque reference",
			data: `{"types": [{"ident": "A", "fields": {"x": {"syn": "P"}}}, {"ident": "P"}]}`,
			want: []string{diagnostic.CodeOpaqueRef},
		},
		{
			name: "permitted opaque reference",
			data: `{"types": [{"ident": "A", "fields": {"x": {"syn": "P"}}}, {"ident": "P"}]}`,
			opts: ValidateOptions{OpaqueRefs: []string{"P"}},
		},
		{
			name: "multi payload",
			data: `{"types": [{"ident": "E", "variants": {"V": [{"std": "bool"}, {"std": "u32"}]}}]}`,
			want: []string{diagnostic.CodeMultiPayload},
		},
		{
			name: "grandfathered multi payload",
			data: `{"types": [{"ident": "E", "variants": {"V": [{"std": "bool"}, {"std": "u32"}]}}]}`,
			opts: ValidateOptions{MultiPayload: []string{"E"}},
		},
		{
			name: "excluded by features",
			data: `{"types": [{"ident": "A", "fields": {"x": {"syn": "B"}}}, {"ident": "B", "features": {"any": ["full"]}, "fields": {"y": {"std": "bool"}}}]}`,
			opts: ValidateOptions{Features: []string{"derive"}},
			want: []string{diagnostic.CodeExcludedRef},
		},
		{
			name: "empty enum",
			data: `{"types": [{"ident": "E", "variants": {}}]}`,
			want: []string{diagnostic.CodeMalformed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := ParseJSON([]byte(tt.data))
			require.NoError(t, err)

			diags := Validate(defs, tt.opts)
			if len(tt.want) == 0 {
				assert.True(t, diags.IsValid(), "unexpected errors: %v", diags.Error())
				return
			}

			assert.Equal(t, tt.want, diags.Codes())
		})
	}
}

func TestValidate_EmptyStructWarns(t *testing.T) {
	defs, err := ParseJSON([]byte(`{"types": [{"ident": "A", "fields": {}}]}`))
	require.NoError(t, err)

	diags := Validate(defs, ValidateOptions{})
	assert.True(t, diags.IsValid())
	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, diagnostic.CodeEmptyStruct, diags.Warnings[0].Code)
}

func TestFieldType_Walk(t *testing.T) {
	ft := Optional(Tuple(Token("Else"), Indirect(NodeRef("Expr"))))

	var kinds []Kind
	ft.Walk(func(t *FieldType) { kinds = append(kinds, t.Kind) })

	assert.Equal(t, []Kind{KindOptional, KindTuple, KindToken, KindIndirect, KindNodeRef}, kinds)
	assert.Equal(t, "Optional(Tuple(Token(Else), Indirect(Expr)))", ft.String())
	assert.True(t, Group("Paren").IsMarker())
	assert.False(t, NodeRef("Expr").IsMarker())
}

func TestValidate_SuggestsNodeName(t *testing.T) {
	defs, err := ParseJSON([]byte(`{"types": [{"ident": "Expr", "fields": {"x": {"syn": "Exp"}}}]}`))
	require.NoError(t, err)

	diags := Validate(defs, ValidateOptions{})
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, `reference to undeclared node "Exp" (did you mean "Expr"?)`, diags.Errors[0].Message)
}
