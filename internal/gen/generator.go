package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/go/ast/astutil"

	"mirror-generator/internal/classify"
	"mirror-generator/internal/plan"
)

// Output file names.
const (
	StructsFile = "mirror_structs.go"
	EnumsFile   = "mirror_enums.go"
	ConvertFile = "mirror_convert.go"
)

// Header is the first line of every generated file.
const Header = "// Code generated by mirror-generator. DO NOT EDIT."

// ErrPlanHasErrors is returned when asked to generate from a failed plan.
var ErrPlanHasErrors = errors.New("plan has errors")

// Config holds configuration for code generation.
type Config struct {
	// PackageName is the name of the generated package.
	PackageName string
	// OutputDir receives the unformatted sidecar when formatting fails.
	OutputDir string
	// OriginalImport is the import path of the original AST package.
	OriginalImport string
	// TokenImport is the import path of the token placeholder package.
	TokenImport string
	// RuntimeImport is the import path of the mirror runtime.
	RuntimeImport string
	// PunctImport is the import path of the punctuated containers.
	PunctImport string
	// Logger receives per-file summaries. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		PackageName:    "synmirror",
		OutputDir:      "./generated",
		OriginalImport: "example.com/syn/ast",
		TokenImport:    "example.com/syn/token",
		RuntimeImport:  "mirror-generator/pkg/mirror",
		PunctImport:    "mirror-generator/pkg/punct",
	}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "mirror_structs.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Generator generates Go code from a plan.
type Generator struct {
	config Config
	logger *slog.Logger
	// templates caches parsed binding snippets by source text.
	templates map[string]*template.Template
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config Config) *Generator {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Generator{
		config:    config,
		logger:    logger,
		templates: make(map[string]*template.Template),
	}
}

// Generate generates the three mirror files from a plan. A plan with error
// diagnostics yields no files.
func (g *Generator) Generate(p *plan.Plan) ([]GeneratedFile, error) {
	if p.Diagnostics.HasErrors() || p.Classifier == nil {
		return nil, fmt.Errorf("%w: %d error(s)", ErrPlanHasErrors, len(p.Diagnostics.Errors))
	}

	bodies := []struct {
		name string
		emit func(*emitter) error
	}{
		{StructsFile, func(e *emitter) error { return e.structs() }},
		{EnumsFile, func(e *emitter) error { return e.enums() }},
		{ConvertFile, func(e *emitter) error { return e.conversions() }},
	}

	files := make([]GeneratedFile, 0, len(bodies))

	for _, b := range bodies {
		e := newEmitter(g, p)
		if err := b.emit(e); err != nil {
			return nil, fmt.Errorf("generating %s: %w", b.name, err)
		}

		file, err := g.render(b.name, e.buf.String())
		if err != nil {
			return nil, err
		}

		g.logger.Debug("generated file", "file", file.Filename, "bytes", len(file.Content))

		files = append(files, *file)
	}

	return files, nil
}

// importSpec is one import of a generated file.
type importSpec struct {
	Alias string
	Path  string
}

// templateData holds all data needed for the file template.
type templateData struct {
	Header      string
	PackageName string
	Imports     []importSpec
	Body        string
}

var fileTemplate = template.Must(template.New("file").Parse(`{{.Header}}

package {{.PackageName}}

{{if .Imports}}
import (
{{range .Imports}}	{{.Alias}} "{{.Path}}"
{{end}})
{{end}}
{{.Body}}
`))

func (g *Generator) imports() []importSpec {
	return []importSpec{
		{Alias: classify.AliasAST, Path: g.config.OriginalImport},
		{Alias: classify.AliasMirror, Path: g.config.RuntimeImport},
		{Alias: classify.AliasPunct, Path: g.config.PunctImport},
		{Alias: classify.AliasToken, Path: g.config.TokenImport},
	}
}

// render executes the file template with every import, prunes the unused
// ones and formats the result.
func (g *Generator) render(filename, body string) (*GeneratedFile, error) {
	data := &templateData{
		Header:      Header,
		PackageName: g.config.PackageName,
		Imports:     g.imports(),
		Body:        body,
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := pruneAndFormat(filename, buf.Bytes(), data.Imports)
	if err != nil {
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, filename, buf.Bytes())
		}

		return &GeneratedFile{
			Filename: filename,
			Content:  buf.Bytes(),
		}, fmt.Errorf("formatting %s: %w", filename, err)
	}

	return &GeneratedFile{
		Filename: filename,
		Content:  formatted,
	}, nil
}

func pruneAndFormat(filename string, src []byte, imports []importSpec) ([]byte, error) {
	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	for _, imp := range imports {
		if !astutil.UsesImport(f, imp.Path) {
			astutil.DeleteNamedImport(fset, f, imp.Alias, imp.Path)
		}
	}

	var out bytes.Buffer
	if err := format.Node(&out, fset, f); err != nil {
		return nil, err
	}

	return format.Source(out.Bytes())
}

// expand applies a binding snippet to a source expression.
func (g *Generator) expand(snippet, src string) (string, error) {
	if snippet == "" {
		return src, nil
	}

	t, ok := g.templates[snippet]
	if !ok {
		var err error

		t, err = template.New("binding").Parse(snippet)
		if err != nil {
			return "", fmt.Errorf("binding %q: %w", snippet, err)
		}

		g.templates[snippet] = t
	}

	if strings.HasPrefix(src, "*") {
		src = "(" + src + ")"
	}

	var sb strings.Builder
	if err := t.Execute(&sb, src); err != nil {
		return "", fmt.Errorf("binding %q: %w", snippet, err)
	}

	return sb.String(), nil
}

func quote(s string) string {
	return strconv.Quote(s)
}
