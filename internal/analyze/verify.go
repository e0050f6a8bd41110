package analyze

import (
	"go/types"

	"mirror-generator/internal/classify"
	"mirror-generator/internal/common"
	"mirror-generator/internal/diagnostic"
	"mirror-generator/internal/plan"
	"mirror-generator/internal/schema"
)

// Imports names the packages generated code refers to by alias.
type Imports struct {
	Original string
	Token    string
	Punct    string
}

// Verifier compares a plan with a type-checked original package.
type Verifier struct {
	p       *plan.Plan
	pkg     *types.Package
	imports Imports
	diags   diagnostic.Diagnostics
}

// Verify checks every planned and hand-written node of p against pkg.
func Verify(p *plan.Plan, pkg *types.Package, imports Imports) *diagnostic.Diagnostics {
	v := &Verifier{p: p, pkg: pkg, imports: imports}

	for _, s := range p.Structs {
		v.verifyStruct(s.Name)
	}

	for _, e := range p.Enums {
		v.verifyEnum(e)
	}

	for _, name := range p.Manual {
		v.lookupType(name)
	}

	for _, name := range p.Empty {
		v.verifyStruct(name)
	}

	return &v.diags
}

// qualify spells package references the way generated code does.
func (v *Verifier) qualify(pkg *types.Package) string {
	switch pkg.Path() {
	case v.pkg.Path(), v.imports.Original:
		return classify.AliasAST
	case v.imports.Token:
		return classify.AliasToken
	case v.imports.Punct:
		return classify.AliasPunct
	default:
		return pkg.Name()
	}
}

func (v *Verifier) lookupType(name string) (*types.Struct, bool) {
	obj, ok := v.pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		v.diags.Errorf(diagnostic.CodeOriginalMissingType, name, "",
			"type %s is not declared in %s", name, v.pkg.Path())

		return nil, false
	}

	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok {
		v.diags.Errorf(diagnostic.CodeOriginalMismatch, name, "",
			"type %s is not a struct", name)

		return nil, false
	}

	return st, true
}

func fieldByName(st *types.Struct, name string) (*types.Var, bool) {
	for i := range st.NumFields() {
		if f := st.Field(i); f.Name() == name {
			return f, true
		}
	}

	return nil, false
}

// checkField reports a missing field or one whose type differs from want.
func (v *Verifier) checkField(st *types.Struct, node, member, goName, want string) {
	f, ok := fieldByName(st, goName)
	if !ok {
		v.diags.Errorf(diagnostic.CodeOriginalMismatch, node, member,
			"field %s is missing", goName)

		return
	}

	if got := types.TypeString(f.Type(), v.qualify); got != want {
		v.diags.Errorf(diagnostic.CodeOriginalMismatch, node, member,
			"field %s has type %s, want %s", goName, got, want)
	}
}

func (v *Verifier) verifyStruct(name string) {
	st, ok := v.lookupType(name)
	if !ok {
		return
	}

	n, ok := v.p.Defs.Lookup(name)
	if !ok {
		return
	}

	for _, f := range n.Fields {
		v.checkField(st, name, f.Name, common.CamelCase(f.Name), v.p.Classifier.OrigType(f.Type))
	}
}

func (v *Verifier) verifyEnum(e *plan.EnumPlan) {
	st, ok := v.lookupType(e.Name)
	if !ok {
		return
	}

	kind := e.Name + "Kind"
	v.checkField(st, e.Name, "", "Kind", classify.AliasAST+"."+kind)

	n, ok := v.p.Defs.Lookup(e.Name)
	if !ok {
		return
	}

	for i := range n.Variants {
		variant := &n.Variants[i]

		if _, ok := v.pkg.Scope().Lookup(kind + variant.Name).(*types.Const); !ok {
			v.diags.Errorf(diagnostic.CodeOriginalMismatch, e.Name, variant.Name,
				"constant %s%s is not declared", kind, variant.Name)
		}

		if len(variant.Payload) == 1 {
			v.checkPayload(st, e.Name, variant.Name, variant.Payload[0])
		}
	}
}

func (v *Verifier) checkPayload(st *types.Struct, node, variant string, ft *schema.FieldType) {
	v.checkField(st, node, variant, variant, v.p.Classifier.PayloadType(ft))
}
