package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type pkgHarness struct {
	t   *testing.T
	dir string
}

func newPkg(t *testing.T) *pkgHarness {
	t.Helper()
	return &pkgHarness{t: t, dir: t.TempDir()}
}

func (p *pkgHarness) write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.dir, rel)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func (p *pkgHarness) out(rel string) string {
	return filepath.Join(p.dir, rel)
}

func (p *pkgHarness) read(rel string) string {
	p.t.Helper()
	b, err := os.ReadFile(filepath.Join(p.dir, rel))
	if err != nil {
		p.t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

func assertContainsInOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	pos := 0
	for _, part := range parts {
		i := strings.Index(s[pos:], part)
		if i < 0 {
			t.Fatalf("expected to find %q after pos=%d in:\n%s", part, pos, s)
		}
		pos += i + len(part)
	}
}

// basicManifestYAML wires a four-binding graph with a permitted cycle
// between Repo and Service (Repo takes a provider of Service).
const basicManifestYAML = `package: wiring
graph: AppGraph
bindings:
  - key: {type: acme.Config}
    kind: instance
    goType: acme.Config
    value: acme.DefaultConfig()
    declaredAt: acme/config.go:10
  - key: {type: acme.DB}
    kind: provided
    goType: "*acme.DB"
    constructor: acme.NewDB
    declaredAt: acme/db.go:14
    deps:
      - {type: acme.Config}
  - key: {type: acme.Repo}
    kind: constructor
    goType: "*acme.Repo"
    constructor: acme.NewRepo
    declaredAt: acme/repo.go:21
    deps:
      - {type: acme.DB}
      - {type: acme.Service, access: provider}
  - key: {type: acme.Service}
    kind: provided
    goType: "*acme.Service"
    constructor: acme.NewService
    declaredAt: acme/service.go:9
    deps:
      - {type: acme.Repo}
roots:
  - name: Service
    type: acme.Service
    requestedBy: "[Graph] App.service()"
`

// codecManifestYAML exercises a map aggregate with two contributors.
const codecManifestYAML = `package: wiring
graph: CodecGraph
bindings:
  - key: {type: acme.JSONCodec}
    kind: provided
    goType: acme.JSONCodec
    constructor: acme.NewJSONCodec
    contributesTo: codecs
    mapKey: json
  - key: {type: acme.YAMLCodec}
    kind: provided
    goType: acme.YAMLCodec
    constructor: acme.NewYAMLCodec
    contributesTo: codecs
    mapKey: yaml
  - key: {type: acme.App}
    kind: provided
    goType: "*acme.App"
    constructor: acme.NewApp
    deps:
      - {type: "Map<string, acme.Codec>"}
roots:
  - name: App
    type: acme.App
    requestedBy: "[Graph] App"
aggregates:
  - name: codecs
    kind: map
    mapKeyType: string
    value: {type: acme.Codec}
    goType: "map[string]acme.Codec"
`

// fatalCycleManifestJSON holds a two-binding cycle with no deferrable edge.
const fatalCycleManifestJSON = `{
  "package": "wiring",
  "graph": "BadGraph",
  "bindings": [
    {
      "key": {"type": "acme.A"},
      "kind": "provided",
      "goType": "*acme.A",
      "constructor": "acme.NewA",
      "deps": [{"type": "acme.B"}]
    },
    {
      "key": {"type": "acme.B"},
      "kind": "provided",
      "goType": "*acme.B",
      "constructor": "acme.NewB",
      "deps": [{"type": "acme.A"}]
    }
  ],
  "roots": [
    {"name": "A", "type": "acme.A", "requestedBy": "[Graph] App.a()"}
  ]
}`
