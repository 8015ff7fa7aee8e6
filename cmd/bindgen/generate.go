package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/sghaida/bindgraph/graph"
)

// genStep is one statement of the generated build function: assign Expr
// into Var. Predeclared steps are declared up front (var Var GoType) and
// assigned later, so provider closures inside a permitted cycle can
// capture the variable before its constructor runs.
type genStep struct {
	Var        string
	GoType     string
	Expr       string
	Predeclare bool
}

type genResult struct {
	Field  string
	GoType string
	Var    string
}

type genData struct {
	Package      string
	Graph        string
	ManifestPath string
	ManifestHash string
	Steps        []genStep
	Results      []genResult
}

// Generate renders the sealed graph as a Go source file: every binding's
// constructor invoked in initialization order, aggregates built as
// collection literals, deferred edges wired through closures. The write is
// atomic (temp file + rename) and gofmt-clean.
func Generate(m *Manifest, sealed *graph.Sealed, manifestPath string, raw []byte, outPath string) error {
	data, err := planGeneration(m, sealed, manifestPath, raw)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := outputTpl.Execute(&sb, data); err != nil {
		return fmt.Errorf("generate %s: template: %w", outPath, err)
	}

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return fmt.Errorf("generate %s: format: %w", outPath, err)
	}
	return writeAtomic(outPath, src)
}

func planGeneration(m *Manifest, sealed *graph.Sealed, manifestPath string, raw []byte) (*genData, error) {
	specs := m.bindingByKey()
	aggregates := map[string]AggregateSpec{}
	for _, a := range m.Aggregates {
		aggregates[a.aggregateKey().String()] = a
	}

	order := sealed.Order()
	vars := assignVars(order)

	data := &genData{
		Package:      m.Package,
		Graph:        m.Graph,
		ManifestPath: filepath.ToSlash(manifestPath),
		ManifestHash: sha256Hex(raw),
	}

	for pos, key := range order {
		b, ok := sealed.Binding(key)
		if !ok {
			return nil, fmt.Errorf("generate: no binding for ordered key %s", key)
		}

		switch b.Kind() {
		case graph.KindAbsent:
			// tolerated optionals have no construction step; use sites
			// fall back to their default expressions
			continue

		case graph.KindMultibinding:
			agg, ok := aggregates[key.String()]
			if !ok || agg.GoType == "" {
				return nil, fmt.Errorf("generate: aggregate %s has no goType", key)
			}
			expr, err := aggregateLiteral(agg, sealed.Contributors(key), specs, vars)
			if err != nil {
				return nil, err
			}
			data.Steps = append(data.Steps, genStep{Var: vars[key], GoType: agg.GoType, Expr: expr})

		default:
			spec, ok := specs[key.String()]
			if !ok {
				return nil, fmt.Errorf("generate: no manifest entry for %s", key)
			}
			if spec.GoType == "" {
				return nil, fmt.Errorf("generate: binding %s has no goType", key)
			}

			expr, err := constructionExpr(spec, b, pos, sealed, specs, aggregates, vars)
			if err != nil {
				return nil, err
			}
			data.Steps = append(data.Steps, genStep{Var: vars[key], GoType: spec.GoType, Expr: expr})
		}
	}

	markPredeclared(data.Steps, order, sealed, vars)

	for _, root := range m.Roots {
		key := graph.QualifiedKey(root.Type, root.Qualifier)
		v, ok := vars[key]
		if !ok {
			return nil, fmt.Errorf("generate: root %s was not constructed", key)
		}
		goType := ""
		if spec, ok := specs[key.String()]; ok {
			goType = spec.GoType
		} else if agg, ok := aggregates[key.String()]; ok {
			goType = agg.GoType
		}
		if goType == "" {
			return nil, fmt.Errorf("generate: root %s has no goType", key)
		}
		data.Results = append(data.Results, genResult{Field: root.Name, GoType: goType, Var: v})
	}
	return data, nil
}

// constructionExpr renders the constructor call for one binding.
func constructionExpr(spec BindingSpec, b *graph.Binding, pos int, sealed *graph.Sealed, specs map[string]BindingSpec, aggregates map[string]AggregateSpec, vars map[graph.TypeKey]string) (string, error) {
	if b.Kind() == graph.KindBoundInstance {
		return spec.Value, nil
	}

	args := make([]string, 0, len(spec.Deps))
	for i, dep := range b.Dependencies() {
		depSpec := spec.Deps[i]

		depPos, constructed := sealed.Index(dep.Key)
		if !constructed {
			// tolerated optional: the default expression stands in
			if dep.HasDefault {
				arg := depSpec.Default
				if arg == "" {
					arg = "nil"
				}
				args = append(args, arg)
				continue
			}
			return "", fmt.Errorf("generate: %s depends on unconstructed %s", b.Key(), dep.Key)
		}
		if target, ok := sealed.Binding(dep.Key); ok && target.Kind() == graph.KindAbsent {
			arg := depSpec.Default
			if arg == "" {
				arg = "nil"
			}
			args = append(args, arg)
			continue
		}

		v := vars[dep.Key]
		if dep.Deferrable() {
			goType, err := goTypeOf(dep.Key, specs, aggregates)
			if err != nil {
				return "", err
			}
			args = append(args, "func() "+goType+" { return "+v+" }")
			continue
		}
		if depPos > pos {
			return "", fmt.Errorf("generate: %s uses %s before construction without deferral", b.Key(), dep.Key)
		}
		args = append(args, v)
	}
	return spec.Constructor + "(" + strings.Join(args, ", ") + ")", nil
}

func aggregateLiteral(agg AggregateSpec, contributors []graph.TypeKey, specs map[string]BindingSpec, vars map[graph.TypeKey]string) (string, error) {
	elems := make([]string, 0, len(contributors))
	for _, c := range contributors {
		v, ok := vars[c]
		if !ok {
			return "", fmt.Errorf("generate: contributor %s was not constructed", c)
		}
		if agg.Kind == "map" {
			spec, ok := specs[c.String()]
			if !ok {
				return "", fmt.Errorf("generate: no manifest entry for contributor %s", c)
			}
			elems = append(elems, strconv.Quote(spec.MapKey)+": "+v)
		} else {
			elems = append(elems, v)
		}
	}
	return agg.GoType + "{" + strings.Join(elems, ", ") + "}", nil
}

// markPredeclared flags every step whose variable is captured by a closure
// before its assignment runs.
func markPredeclared(steps []genStep, order []graph.TypeKey, sealed *graph.Sealed, vars map[graph.TypeKey]string) {
	need := map[string]bool{}
	for pos, key := range order {
		b, ok := sealed.Binding(key)
		if !ok {
			continue
		}
		for _, dep := range b.Dependencies() {
			if depPos, ok := sealed.Index(dep.Key); ok && depPos > pos {
				need[vars[dep.Key]] = true
			}
		}
	}
	for i := range steps {
		if need[steps[i].Var] {
			steps[i].Predeclare = true
		}
	}
}

// assignVars gives every ordered key a deterministic, collision-free
// variable name derived from its rendered form.
func assignVars(order []graph.TypeKey) map[graph.TypeKey]string {
	vars := make(map[graph.TypeKey]string, len(order))
	taken := map[string]int{}
	for _, key := range order {
		base := varBase(key.String())
		n := taken[base]
		taken[base] = n + 1
		if n == 0 {
			vars[key] = base
		} else {
			vars[key] = base + strconv.Itoa(n+1)
		}
	}
	return vars
}

func varBase(rendered string) string {
	var sb strings.Builder
	capitalize := false
	for _, r := range rendered {
		alnum := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if !alnum {
			capitalize = sb.Len() > 0
			continue
		}
		if capitalize && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		capitalize = false
		sb.WriteRune(r)
	}
	out := sb.String()
	if out == "" {
		return "v"
	}
	// lower the leading rune so names stay unexported
	return strings.ToLower(out[:1]) + out[1:]
}

// goTypeOf resolves the rendered Go type for a dependency: a plain binding
// has it on its spec, an aggregate on its declaration.
func goTypeOf(key graph.TypeKey, specs map[string]BindingSpec, aggregates map[string]AggregateSpec) (string, error) {
	if spec, ok := specs[key.String()]; ok && spec.GoType != "" {
		return spec.GoType, nil
	}
	if agg, ok := aggregates[key.String()]; ok && agg.GoType != "" {
		return agg.GoType, nil
	}
	return "", fmt.Errorf("generate: binding %s has no goType", key)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(outPath string, src []byte) error {
	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, ".bindgen-*.go")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var outputTpl = template.Must(template.New("output").Parse(`// Code generated by bindgen; DO NOT EDIT.
// Manifest: {{.ManifestPath}}
// Manifest-SHA256: {{.ManifestHash}}

package {{.Package}}

// {{.Graph}} holds the graph's entry points, fully constructed.
type {{.Graph}} struct {
{{- range .Results}}
	{{.Field}} {{.GoType}}
{{- end}}
}

func Build{{.Graph}}() {{.Graph}} {
{{- range .Steps}}
{{- if .Predeclare}}
	var {{.Var}} {{.GoType}}
{{- end}}
{{- end}}
{{- range .Steps}}
{{- if .Predeclare}}
	{{.Var}} = {{.Expr}}
{{- else}}
	{{.Var}} := {{.Expr}}
{{- end}}
{{- end}}

	return {{.Graph}}{
{{- range .Results}}
		{{.Field}}: {{.Var}},
{{- end}}
	}
}
`))
