package roundtrip

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"mirror-generator/internal/exceptions"
	"mirror-generator/internal/plan"
	"mirror-generator/internal/schema"
)

// ErrInfeasible is returned for nodes that cannot be built without a
// hand-written node.
var ErrInfeasible = errors.New("node cannot be synthesized")

const infinite = math.MaxInt

// Synth builds random original values from a schema. Values respect the
// layout rules of the plan so that they rebuild cleanly.
type Synth struct {
	p        *plan.Plan
	rng      *rand.Rand
	maxDepth int
	// cost is the minimum depth needed to build each node.
	cost map[string]int
}

// NewSynth creates a Synth seeded with seed. Optional and repeated parts
// stop growing past maxDepth.
func NewSynth(p *plan.Plan, seed uint64, maxDepth int) *Synth {
	s := &Synth{
		p:        p,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		maxDepth: maxDepth,
		cost:     make(map[string]int),
	}
	s.computeCost()

	return s
}

func (s *Synth) computeCost() {
	nodes := s.p.Defs.Sorted()
	for _, n := range nodes {
		s.cost[n.Name] = infinite
	}

	for changed := true; changed; {
		changed = false

		for _, n := range nodes {
			c := s.nodeCost(n)
			if c < s.cost[n.Name] {
				s.cost[n.Name] = c
				changed = true
			}
		}
	}
}

func (s *Synth) nodeCost(n *schema.Node) int {
	if s.p.Tables.IsManual(n.Name) {
		return infinite
	}

	switch n.Shape {
	case schema.ShapeStruct:
		worst := 0

		for _, f := range n.Fields {
			worst = max(worst, s.typeCost(f.Type))
		}

		return inc(worst)
	case schema.ShapeEnum:
		best := infinite

		for i := range n.Variants {
			best = min(best, s.variantCost(&n.Variants[i]))
		}

		return inc(best)
	default:
		return 0
	}
}

func (s *Synth) variantCost(v *schema.Variant) int {
	switch len(v.Payload) {
	case 0:
		return 0
	case 1:
		return s.typeCost(v.Payload[0])
	default:
		return infinite
	}
}

func (s *Synth) typeCost(ft *schema.FieldType) int {
	switch ft.Kind {
	case schema.KindIndirect:
		return s.typeCost(ft.Elem)
	case schema.KindSequence, schema.KindDelimited, schema.KindOptional:
		return 0
	case schema.KindTuple:
		worst := 0
		for _, it := range ft.Items {
			worst = max(worst, s.typeCost(it))
		}

		return worst
	case schema.KindNodeRef:
		if c, ok := s.cost[ft.Name]; ok {
			return c
		}

		return 0
	default:
		return 0
	}
}

func inc(c int) int {
	if c == infinite {
		return c
	}

	return c + 1
}

// Node builds a random value of the named node.
func (s *Synth) Node(name string) (any, error) {
	if s.cost[name] == infinite {
		return nil, fmt.Errorf("%w: %s", ErrInfeasible, name)
	}

	return s.node(name, 0)
}

func (s *Synth) node(name string, depth int) (any, error) {
	n, ok := s.p.Defs.Lookup(name)
	if !ok {
		return Zero{Node: name}, nil
	}

	switch n.Shape {
	case schema.ShapeStruct:
		out := Struct{Node: name, Fields: make(map[string]any, len(n.Fields))}

		for _, f := range n.Fields {
			v, err := s.value(f.Type, depth)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
			}

			out.Fields[f.Name] = v
		}

		s.applyLayout(n, out)

		return out, nil

	case schema.ShapeEnum:
		v := s.pickVariant(n, depth)
		if v == nil {
			return nil, fmt.Errorf("%w: %s", ErrInfeasible, name)
		}

		out := Enum{Node: name, Kind: v.Name}

		if len(v.Payload) == 1 {
			ft := v.Payload[0]
			if ft.Kind == schema.KindIndirect {
				ft = ft.Elem
			}

			payload, err := s.value(ft, depth)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, v.Name, err)
			}

			out.Payload = payload
		}

		return out, nil

	default:
		return Zero{Node: name}, nil
	}
}

// pickVariant picks a random buildable variant, or the cheapest one once
// the depth bound is reached.
func (s *Synth) pickVariant(n *schema.Node, depth int) *schema.Variant {
	var candidates []*schema.Variant

	best := infinite

	for i := range n.Variants {
		v := &n.Variants[i]

		c := s.variantCost(v)
		if c == infinite {
			continue
		}

		if depth < s.maxDepth {
			candidates = append(candidates, v)

			continue
		}

		switch {
		case c < best:
			best = c
			candidates = []*schema.Variant{v}
		case c == best:
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	return candidates[s.rng.IntN(len(candidates))]
}

func (s *Synth) grow(depth int) bool {
	return depth < s.maxDepth
}

func (s *Synth) value(ft *schema.FieldType, depth int) (any, error) {
	switch ft.Kind {
	case schema.KindIndirect:
		v, err := s.value(ft.Elem, depth)

		return Ptr{Elem: v}, err

	case schema.KindSequence, schema.KindDelimited:
		var items []any

		if s.grow(depth) && s.typeCost(ft.Elem) != infinite {
			for range s.rng.IntN(3) {
				v, err := s.value(ft.Elem, depth+1)
				if err != nil {
					return nil, err
				}

				items = append(items, v)
			}
		}

		if ft.Kind == schema.KindDelimited {
			return List{Values: items, Punct: ft.Punct}, nil
		}

		return items, nil

	case schema.KindOptional:
		if !s.grow(depth) || s.typeCost(ft.Elem) == infinite || s.rng.IntN(2) == 0 {
			return nil, nil
		}

		elem := ft.Elem
		if elem.Kind == schema.KindIndirect {
			elem = elem.Elem
		}

		v, err := s.value(elem, depth+1)

		return Ptr{Elem: v}, err

	case schema.KindTuple:
		out := Tuple{Items: make([]any, 0, len(ft.Items))}

		for _, it := range ft.Items {
			v, err := s.value(it, depth)
			if err != nil {
				return nil, err
			}

			out.Items = append(out.Items, v)
		}

		return out, nil

	case schema.KindToken, schema.KindGroup:
		return Token{Name: ft.Name}, nil

	case schema.KindNodeRef:
		return s.node(ft.Name, depth+1)

	case schema.KindForeignRef:
		b, ok := s.p.Tables.ForeignBinding(ft.Name)

		switch {
		case !ok:
			return Zero{Node: ft.Name}, nil
		case b.Position:
			return Position{Offset: s.rng.IntN(1 << 16)}, nil
		case b.IsTextual():
			return Text{Type: ft.Name, Text: s.word()}, nil
		default:
			return s.basic(b.Orig)
		}

	case schema.KindPrimitive:
		b := s.p.Tables.PrimitiveBinding(ft.Name)
		if b.IsTextual() {
			return Text{Type: ft.Name, Text: s.word()}, nil
		}

		return s.basic(b.Orig)

	default:
		return nil, fmt.Errorf("cannot synthesize %s", ft)
	}
}

func (s *Synth) basic(goType string) (any, error) {
	switch goType {
	case "string":
		return s.word(), nil
	case "bool":
		return s.rng.IntN(2) == 1, nil
	case "int":
		return s.rng.IntN(100), nil
	case "uint32":
		return uint32(s.rng.IntN(100)), nil
	default:
		return nil, fmt.Errorf("cannot synthesize values of Go type %s", goType)
	}
}

// word returns a short non-empty identifier.
func (s *Synth) word() string {
	return "x" + strconv.Itoa(s.rng.IntN(1000))
}

// applyLayout sets the terminator of n to agree with its layout rule.
func (s *Synth) applyLayout(n *schema.Node, v Struct) {
	rule, ok := s.p.Tables.Layout(n.Name)
	if !ok {
		return
	}

	f, ok := n.Field(rule.Terminator)
	if !ok || f.Type.Kind != schema.KindOptional {
		return
	}

	var terminated bool

	if rule.Body {
		terminated = v.Fields[rule.Field] == nil
	} else if e, ok := v.Fields[rule.Field].(Enum); ok {
		layout := rule.Shapes[e.Kind]
		terminated = layout == exceptions.LayoutTuple || layout == exceptions.LayoutEmpty
	}

	v.Fields[rule.Terminator] = nil
	if terminated {
		v.Fields[rule.Terminator] = Ptr{Elem: Token{Name: f.Type.Elem.Name}}
	}
}
