// Command schemagen regenerates pkg/schema/generated.go from the field
// table in pkg/schema/table.go. It is invoked by "go generate" from
// pkg/schema/doc.go; it is not part of the running engine.
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"io/ioutil"
	"log"
	"strings"
	"text/template"

	"github.com/darrencroton/mimic/pkg/schema"
)

const headerTmpl = `// Code generated by internal/schemagen from table.go. DO NOT EDIT.
//
// This file is the mechanical output of the schema table in table.go: the
// in-memory Halo/Galaxy record layout, the halo-constructor initialiser,
// and the OutputHalo descriptor are all derived from the same field
// declarations so the packed-binary and HDF5 codecs stay interchangeable
// in meaning (spec.md §3.3).
package schema

// Halo is the in-memory working-halo record (spec.md §3.1).
type Halo struct {
{{- range .HaloFields}}
	{{.Name}} {{.GoType}}
{{- end}}
}

// Galaxy is the in-memory galaxy record owned by exactly one Halo
// (spec.md §3.1).
type Galaxy struct {
{{- range .GalaxyFields}}
	{{.Name}} {{.GoType}}
{{- end}}
}

// OutputHalo is the on-the-wire record: the Output-flagged subset of
// Halo+Galaxy fields, in schema declaration order (spec.md §3.3, §4.6).
type OutputHalo struct {
{{- range .OutputFields}}
	{{.Name}} {{.GoType}}
{{- end}}
}
`

// templateField is the subset of schema.Field the template needs; it
// pre-resolves GoType() so the template stays a plain string substitution.
type templateField struct {
	Name   string
	GoType string
}

func toTemplateFields(fields []schema.Field) []templateField {
	out := make([]templateField, len(fields))
	for i, f := range fields {
		out[i] = templateField{Name: f.Name, GoType: f.Type.GoType()}
	}
	return out
}

func main() {
	if err := schema.Validate(); err != nil {
		log.Fatalf("schemagen: invalid table: %v", err)
	}

	data := struct {
		HaloFields   []templateField
		GalaxyFields []templateField
		OutputFields []templateField
	}{
		HaloFields:   toTemplateFields(schema.HaloFields),
		GalaxyFields: toTemplateFields(schema.GalaxyFields),
		OutputFields: toTemplateFields(schema.OutputFields()),
	}

	tmpl := template.Must(template.New("schemaStructs").Parse(headerTmpl))
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		log.Fatalf("schemagen: %v", err)
	}

	buf.WriteString("\n")
	buf.WriteString(constructorSource())

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		log.Fatalf("schemagen: generated source does not parse: %v", err)
	}

	if err := ioutil.WriteFile("generated.go", formatted, 0644); err != nil {
		log.Fatalf("schemagen: %v", err)
	}
}

// constructorSource emits the hand-stable half of generated.go: the
// initialiser, clone, and projection helpers whose bodies depend on each
// field's DefaultRule rather than on its name/type alone. The struct
// literals below are assembled the same way the template above assembles
// struct fields, so the two halves cannot drift against table.go.
func constructorSource() string {
	var b strings.Builder

	b.WriteString("// FromInputTree carries the raw-halo-derived values init_halo and the\n")
	b.WriteString("// most-massive-progenitor overwrite path (spec.md §4.3.3) pull onto a\n")
	b.WriteString("// working halo.\n")
	b.WriteString("type FromInputTree struct {\n")
	for _, f := range schema.HaloFields {
		if f.Default == schema.DefaultFromInputTree {
			fmt.Fprintf(&b, "\t%s %s\n", f.Name, f.Type.GoType())
		}
	}
	b.WriteString("}\n\n")

	b.WriteString("// FromVirial carries the cosmology-derived virial properties (spec.md\n")
	b.WriteString("// §4.4) for a freshly constructed halo.\n")
	b.WriteString("type FromVirial struct {\n")
	for _, f := range schema.HaloFields {
		if f.Default == schema.DefaultFromVirial {
			fmt.Fprintf(&b, "\t%s %s\n", f.Name, f.Type.GoType())
		}
	}
	b.WriteString("}\n\n")

	b.WriteString("// NewHalo builds a working Halo applying every field's default rule.\n")
	b.WriteString("func NewHalo(tree FromInputTree, virial FromVirial) *Halo {\n")
	b.WriteString("\treturn &Halo{\n")
	for _, f := range schema.HaloFields {
		switch f.Default {
		case schema.DefaultFromInputTree:
			fmt.Fprintf(&b, "\t\t%s: tree.%s,\n", f.Name, f.Name)
		case schema.DefaultFromVirial:
			fmt.Fprintf(&b, "\t\t%s: virial.%s,\n", f.Name, f.Name)
		case schema.DefaultLiteral:
			fmt.Fprintf(&b, "\t\t%s: %#v,\n", f.Name, f.Literal)
		case schema.DefaultZero, schema.DefaultCopyFromParent:
			// zero value, omit from the literal
		}
	}
	b.WriteString("\t}\n}\n\n")

	b.WriteString("// NewGalaxy builds a zero-valued Galaxy.\n")
	b.WriteString("func NewGalaxy() *Galaxy { return &Galaxy{} }\n\n")

	b.WriteString("func (g *Galaxy) Clone() *Galaxy {\n\tif g == nil {\n\t\treturn nil\n\t}\n\tclone := *g\n\treturn &clone\n}\n\n")
	b.WriteString("func (h *Halo) Clone() *Halo {\n\tif h == nil {\n\t\treturn nil\n\t}\n\tclone := *h\n\treturn &clone\n}\n\n")

	b.WriteString("// ToOutputHalo projects a Halo and its (possibly absent) Galaxy onto the\n")
	b.WriteString("// wire record.\n")
	b.WriteString("func ToOutputHalo(h *Halo, g *Galaxy) OutputHalo {\n")
	b.WriteString("\to := OutputHalo{\n")
	for _, f := range schema.HaloFields {
		if f.Output {
			fmt.Fprintf(&b, "\t\t%s: h.%s,\n", f.Name, f.Name)
		}
	}
	b.WriteString("\t}\n")
	b.WriteString("\tif g != nil {\n")
	for _, f := range schema.GalaxyFields {
		fmt.Fprintf(&b, "\t\to.%s = g.%s\n", f.Name, f.Name)
	}
	b.WriteString("\t}\n\treturn o\n}\n\n")

	b.WriteString("// OutputRecordSize is the packed-binary byte width of one OutputHalo record.\n")
	b.WriteString("func OutputRecordSize() int64 {\n\tvar size int64\n\tfor _, f := range OutputFields() {\n\t\tsize += int64(f.Type.ByteSize())\n\t}\n\treturn size\n}\n")

	return b.String()
}
