package gen

import (
	"bytes"
	"fmt"

	"mirror-generator/internal/plan"
)

// emitter accumulates the body of one generated file.
type emitter struct {
	g    *Generator
	p    *plan.Plan
	buf  bytes.Buffer
	vars *Stem
	err  error
}

func newEmitter(g *Generator, p *plan.Plan) *emitter {
	return &emitter{g: g, p: p, vars: NewStem("v")}
}

// printf writes a formatted line to the file body.
func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

// fail records the first error hit while emitting.
func (e *emitter) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *emitter) expand(snippet, src string) string {
	out, err := e.g.expand(snippet, src)
	if err != nil {
		e.fail(err)

		return src
	}

	return out
}

// resetVars restarts local variable numbering for a new function.
func (e *emitter) resetVars() {
	e.vars.Reset()
}
