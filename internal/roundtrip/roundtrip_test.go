package roundtrip

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/internal/schema"
	"mirror-generator/pkg/mirror"
)

func buildSyn(t *testing.T) *plan.Plan {
	t.Helper()

	defs, err := schema.LoadFile(filepath.Join("..", "schema", "testdata", "syn.yaml"))
	require.NoError(t, err)

	p, err := plan.Build(defs, exceptions.Default(), nil)
	require.NoError(t, err, "%v", p.Diagnostics.Errors)

	return p
}

func project(t *testing.T, p *plan.Plan, node string, v any) MirrorStruct {
	t.Helper()

	m, err := NewInterpreter(p).Project(node, v)
	require.NoError(t, err)

	ms, ok := m.(MirrorStruct)
	require.True(t, ok, "%T", m)

	return ms
}

func synthStruct(t *testing.T, p *plan.Plan, node string) Struct {
	t.Helper()

	v, err := NewSynth(p, 7, 3).Node(node)
	require.NoError(t, err)

	s, ok := v.(Struct)
	require.True(t, ok, "%T", v)

	return s
}

func encodeObject(t *testing.T, p *plan.Plan, m any) map[string]any {
	t.Helper()

	data, err := NewEncoder(p).Encode(m)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))

	return out
}

func TestChecker_Run_Syn(t *testing.T) {
	p := buildSyn(t)

	for _, seed := range []uint64{1, 2, 3} {
		cfg := DefaultConfig()
		cfg.Seed = seed

		report, err := NewChecker(p, nil).Run(cfg)
		require.NoError(t, err)

		for _, f := range report.Failures() {
			t.Errorf("seed %d: %s\n%s", seed, f.String(), f.Value)
		}

		require.Len(t, report.Results, len(p.Structs)+len(p.Enums))

		for _, res := range report.Results {
			assert.False(t, res.Skipped, res.Node)
			assert.Equal(t, cfg.Samples, res.Samples, res.Node)
		}
	}
}

func TestChecker_Run_UnknownNode(t *testing.T) {
	p := buildSyn(t)

	cfg := DefaultConfig()
	cfg.Nodes = []string{"Stmt"}

	_, err := NewChecker(p, nil).Run(cfg)
	require.Error(t, err)
}

func TestSynth_Deterministic(t *testing.T) {
	p := buildSyn(t)

	a, err := NewSynth(p, 42, 4).Node("ItemFn")
	require.NoError(t, err)

	b, err := NewSynth(p, 42, 4).Node("ItemFn")
	require.NoError(t, err)

	assert.True(t, cmp.Equal(a, b, Equal))
}

func TestSynth_Infeasible(t *testing.T) {
	p := buildSyn(t)

	_, err := NewSynth(p, 1, 3).Node("Receiver")
	require.ErrorIs(t, err, ErrInfeasible)
}

func TestSynth_RespectsLayout(t *testing.T) {
	p := buildSyn(t)
	synth := NewSynth(p, 3, 3)

	for range 20 {
		v, err := synth.Node("ItemStruct")
		require.NoError(t, err)

		s := v.(Struct)
		fields := s.Fields["fields"].(Enum)

		if fields.Kind == "Named" {
			assert.Nil(t, s.Fields["semi_token"])
		} else {
			assert.Equal(t, Ptr{Elem: Token{Name: "Semi"}}, s.Fields["semi_token"])
		}
	}
}

func TestInterpreter_Rebuild_LayoutMismatch(t *testing.T) {
	p := buildSyn(t)

	for _, node := range []string{"ItemStruct", "TraitItemFn", "ItemMod"} {
		t.Run(node, func(t *testing.T) {
			m := project(t, p, node, synthStruct(t, p, node))

			term := "SemiToken"
			if node == "ItemMod" {
				term = "Semi"
			}

			m.Fields[term] = !m.Fields[term].(bool)

			_, err := NewInterpreter(p).Rebuild(node, m)
			require.ErrorIs(t, err, mirror.ErrInconsistent)
		})
	}
}

func TestInterpreter_Rebuild_CatchAll(t *testing.T) {
	p := buildSyn(t)
	interp := NewInterpreter(p)

	unknown := MirrorEnum{Node: "Expr", Kind: UnknownKind, Unknown: mirror.NewRawVariant("yield", nil)}

	_, err := interp.Rebuild("Expr", unknown)
	require.ErrorIs(t, err, mirror.ErrUnreachable)

	// Nested catch-alls fail the enclosing node with the field path.
	stmt := MirrorStruct{Node: "ExprParen", Fields: map[string]any{
		"Attrs": []any{},
		"Expr":  unknown,
	}}

	_, err = interp.Rebuild("ExprParen", stmt)
	require.ErrorIs(t, err, mirror.ErrUnreachable)
	assert.Contains(t, err.Error(), "ExprParen.expr")

	// Exhaustive enums have no catch-all.
	_, err = interp.Rebuild("Visibility", MirrorEnum{Node: "Visibility", Kind: UnknownKind})
	require.ErrorIs(t, err, mirror.ErrInconsistent)
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

func layoutTables() *exceptions.Tables {
	def := exceptions.Default()

	return &exceptions.Tables{
		Foreign:    def.Foreign,
		Primitives: def.Primitives,
		Layouts: []exceptions.LayoutRule{{
			Node:       "Item",
			Field:      "fields",
			Terminator: "semi",
			Shapes:     map[string]exceptions.Layout{"Named": exceptions.LayoutRecord, "Unit": exceptions.LayoutEmpty},
		}},
	}
}

func TestInterpreter_Rebuild_LayoutCatchAll(t *testing.T) {
	defs, err := schema.ParseJSON([]byte(layoutSchema))
	require.NoError(t, err)

	p, err := plan.Build(defs, layoutTables(), nil)
	require.NoError(t, err, "%v", p.Diagnostics.Errors)

	interp := NewInterpreter(p)

	for _, semi := range []bool{false, true} {
		m := MirrorStruct{Node: "Item", Fields: map[string]any{
			"Fields": MirrorEnum{Node: "Fields", Kind: UnknownKind, Unknown: mirror.NewRawVariant("unnamed", nil)},
			"Semi":   semi,
		}}

		_, err = interp.Rebuild("Item", m)
		require.ErrorIs(t, err, mirror.ErrUnreachable)
		assert.NotErrorIs(t, err, mirror.ErrInconsistent)
	}

	unit := MirrorStruct{Node: "Item", Fields: map[string]any{
		"Fields": MirrorEnum{Node: "Fields", Kind: "Unit"},
		"Semi":   false,
	}}

	_, err = interp.Rebuild("Item", unit)
	require.ErrorIs(t, err, mirror.ErrInconsistent)
}

func TestInterpreter_Rebuild_MissingPayload(t *testing.T) {
	p := buildSyn(t)

	_, err := NewInterpreter(p).Rebuild("Visibility", MirrorEnum{Node: "Visibility", Kind: "Restricted"})
	require.ErrorIs(t, err, mirror.ErrInconsistent)
}

func TestInterpreter_Rebuild_InvalidText(t *testing.T) {
	p := buildSyn(t)

	m := project(t, p, "Macro", synthStruct(t, p, "Macro"))
	m.Fields["Tokens"] = ""

	_, err := NewInterpreter(p).Rebuild("Macro", m)
	require.ErrorIs(t, err, mirror.ErrInvalidData)
	assert.Contains(t, err.Error(), "Macro.tokens")
}

func TestEncoder_Passthrough(t *testing.T) {
	p := buildSyn(t)

	m := project(t, p, "VisRestricted", synthStruct(t, p, "VisRestricted"))

	enc := NewEncoder(p)

	got, err := enc.Encode(m)
	require.NoError(t, err)

	want, err := enc.Encode(m.Fields["Path"])
	require.NoError(t, err)

	assert.JSONEq(t, string(want), string(got))
}

func TestEncoder_FlattenAndOmit(t *testing.T) {
	p := buildSyn(t)

	v := synthStruct(t, p, "ItemFn")
	v.Fields["attrs"] = []any{}
	v.Fields["vis"] = Enum{Node: "Visibility", Kind: "Inherited"}

	obj := encodeObject(t, p, project(t, p, "ItemFn", v))

	assert.Contains(t, obj, "ident")
	assert.Contains(t, obj, "stmts")
	assert.NotContains(t, obj, "sig")
	assert.NotContains(t, obj, "vis")
	assert.NotContains(t, obj, "attrs")

	v.Fields["vis"] = Enum{Node: "Visibility", Kind: "Public", Payload: Token{Name: "Pub"}}

	obj = encodeObject(t, p, project(t, p, "ItemFn", v))
	assert.Equal(t, "pub", obj["vis"])
}

func TestEncoder_PresenceKeyword(t *testing.T) {
	p := buildSyn(t)

	v := synthStruct(t, p, "TypePtr")
	v.Fields["mutability"] = Ptr{Elem: Token{Name: "Mut"}}
	v.Fields["const_token"] = nil

	obj := encodeObject(t, p, project(t, p, "TypePtr", v))
	assert.Equal(t, true, obj["mut"])
	assert.NotContains(t, obj, "const")
	assert.Contains(t, obj, "elem")

	v.Fields["mutability"] = nil

	obj = encodeObject(t, p, project(t, p, "TypePtr", v))
	assert.NotContains(t, obj, "mut")
}

func TestEncoder_FlattenedEnum(t *testing.T) {
	p := buildSyn(t)

	v := synthStruct(t, p, "ExprField")
	v.Fields["member"] = Enum{Node: "Member", Kind: "Named", Payload: Text{Type: "Ident", Text: "len"}}

	obj := encodeObject(t, p, project(t, p, "ExprField", v))
	assert.Equal(t, "len", obj["ident"])
	assert.Contains(t, obj, "base")
	assert.NotContains(t, obj, "member")
	assert.NotContains(t, obj, "index")
}
