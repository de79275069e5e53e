package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/leapstack-labs/fedsql/pkg/types"
)

// Document is the YAML form of a catalog.
//
//	models:
//	  - name: pm1
//	    tables:
//	      - name: g1
//	        columns:
//	          - { name: e1, type: string }
//	    procedures:
//	      - name: sq1
//	        params: [{ name: in1, type: string }]
//	        results: [{ name: e1, type: string }]
//	functions:
//	  - { name: mask, params: [string], returns: string }
type Document struct {
	Models    []ModelDoc    `koanf:"models" yaml:"models"`
	Functions []FunctionDoc `koanf:"functions" yaml:"functions,omitempty"`
}

// ModelDoc groups the objects of one model (schema).
type ModelDoc struct {
	Name       string         `koanf:"name" yaml:"name"`
	Tables     []TableDoc     `koanf:"tables" yaml:"tables,omitempty"`
	Views      []TableDoc     `koanf:"views" yaml:"views,omitempty"`
	Procedures []ProcedureDoc `koanf:"procedures" yaml:"procedures,omitempty"`
}

// TableDoc describes a table or, under views, a view.
type TableDoc struct {
	Name       string      `koanf:"name" yaml:"name"`
	Columns    []ColumnDoc `koanf:"columns" yaml:"columns"`
	Keys       []KeyDoc    `koanf:"keys" yaml:"keys,omitempty"`
	Definition string      `koanf:"definition" yaml:"definition,omitempty"`
	Updatable  *bool       `koanf:"updatable" yaml:"updatable,omitempty"`
}

// ColumnDoc describes a column. Unset flags default to true.
type ColumnDoc struct {
	Name       string         `koanf:"name" yaml:"name"`
	Type       types.DataType `koanf:"type" yaml:"type"`
	Selectable *bool          `koanf:"selectable" yaml:"selectable,omitempty"`
	Updatable  *bool          `koanf:"updatable" yaml:"updatable,omitempty"`
	Nullable   *bool          `koanf:"nullable" yaml:"nullable,omitempty"`
}

// KeyDoc describes key metadata.
type KeyDoc struct {
	Name       string   `koanf:"name" yaml:"name,omitempty"`
	Kind       string   `koanf:"kind" yaml:"kind"`
	Columns    []string `koanf:"columns" yaml:"columns"`
	References string   `koanf:"references" yaml:"references,omitempty"`
}

// ProcedureDoc describes a procedure.
type ProcedureDoc struct {
	Name    string      `koanf:"name" yaml:"name"`
	Params  []ParamDoc  `koanf:"params" yaml:"params,omitempty"`
	Results []ColumnDoc `koanf:"results" yaml:"results,omitempty"`
	Virtual bool        `koanf:"virtual" yaml:"virtual,omitempty"`
	Body    string      `koanf:"body" yaml:"body,omitempty"`
}

// ParamDoc describes a procedure parameter. A non-nil Default makes the
// parameter optional.
type ParamDoc struct {
	Name    string         `koanf:"name" yaml:"name"`
	Type    types.DataType `koanf:"type" yaml:"type"`
	Mode    string         `koanf:"mode" yaml:"mode,omitempty"`
	Default *string        `koanf:"default" yaml:"default,omitempty"`
}

// FunctionDoc describes a user-defined function signature.
type FunctionDoc struct {
	Name         string           `koanf:"name" yaml:"name"`
	Params       []types.DataType `koanf:"params" yaml:"params"`
	Returns      types.DataType   `koanf:"returns" yaml:"returns"`
	Variadic     bool             `koanf:"variadic" yaml:"variadic,omitempty"`
	ConstantArgs int              `koanf:"constant_args" yaml:"constant_args,omitempty"`
	Aggregate    bool             `koanf:"aggregate" yaml:"aggregate,omitempty"`
}

// Validate checks that the document describes a callable signature.
func (f FunctionDoc) Validate() error {
	switch {
	case f.Name == "":
		return errors.New("name is required")
	case f.Variadic && len(f.Params) == 0:
		return fmt.Errorf("function %s: variadic requires at least one parameter", f.Name)
	case f.ConstantArgs < 0 || f.ConstantArgs > len(f.Params):
		return fmt.Errorf("function %s: constant_args %d out of range for %d parameter(s)", f.Name, f.ConstantArgs, len(f.Params))
	}
	return nil
}

// Signature converts the document into a catalog signature.
func (f FunctionDoc) Signature() *Signature {
	return &Signature{
		Name:         f.Name,
		Params:       f.Params,
		Returns:      f.Returns,
		Variadic:     f.Variadic,
		ConstantArgs: f.ConstantArgs,
		Aggregate:    f.Aggregate,
	}
}

// UnmarshalConf returns the koanf unmarshal configuration that decodes type
// names into types.DataType.
func UnmarshalConf(out any) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				types.DecodeHook(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           out,
			WeaklyTypedInput: true,
		},
	}
}

// LoadFile reads a YAML catalog document and builds a catalog seeded with
// the system functions.
func LoadFile(path string) (*Memory, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// ReadDocument reads a YAML catalog document.
func ReadDocument(path string) (*Document, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading catalog file %s: %w", path, err)
	}
	var doc Document
	if err := k.UnmarshalWithConf("", &doc, UnmarshalConf(&doc)); err != nil {
		return nil, fmt.Errorf("unable to decode catalog file %s: %w", path, err)
	}
	return &doc, nil
}

// DecodeDocument parses a YAML catalog document held in memory.
func DecodeDocument(data []byte) (*Document, error) {
	raw, err := yaml.Parser().Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing catalog document: %w", err)
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, ""), nil); err != nil {
		return nil, fmt.Errorf("error loading catalog document: %w", err)
	}
	var doc Document
	if err := k.UnmarshalWithConf("", &doc, UnmarshalConf(&doc)); err != nil {
		return nil, fmt.Errorf("unable to decode catalog document: %w", err)
	}
	return &doc, nil
}

func flag(v *bool) bool {
	return v == nil || *v
}

func columnsFromDocs(docs []ColumnDoc) []*Column {
	cols := make([]*Column, len(docs))
	for i, c := range docs {
		cols[i] = &Column{
			Name:       c.Name,
			Type:       c.Type,
			Selectable: flag(c.Selectable),
			Updatable:  flag(c.Updatable),
			Nullable:   flag(c.Nullable),
		}
	}
	return cols
}

func groupFromDoc(model string, t TableDoc, kind GroupKind) (*Group, error) {
	g := &Group{
		Name:       append(SplitPath(model), t.Name),
		Kind:       kind,
		Columns:    columnsFromDocs(t.Columns),
		Definition: t.Definition,
		Updatable:  flag(t.Updatable),
	}
	if kind == KindView && t.Updatable == nil {
		g.Updatable = false
	}
	for _, kd := range t.Keys {
		kk, err := ParseKeyKind(kd.Kind)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.FullName(), err)
		}
		g.Keys = append(g.Keys, &Key{
			Name:       kd.Name,
			Kind:       kk,
			Columns:    kd.Columns,
			References: SplitPath(kd.References),
		})
	}
	return g, nil
}

// FromDocument builds a catalog from a document. The system function
// library is always present; document functions are added to it.
func FromDocument(doc *Document) (*Memory, error) {
	m := NewMemoryWithSystemFunctions()
	for _, model := range doc.Models {
		for _, t := range model.Tables {
			g, err := groupFromDoc(model.Name, t, KindTable)
			if err != nil {
				return nil, err
			}
			if err := m.AddGroup(g); err != nil {
				return nil, err
			}
		}
		for _, v := range model.Views {
			g, err := groupFromDoc(model.Name, v, KindView)
			if err != nil {
				return nil, err
			}
			if err := m.AddGroup(g); err != nil {
				return nil, err
			}
		}
		for _, pd := range model.Procedures {
			p := &Procedure{
				Name:    append(SplitPath(model.Name), pd.Name),
				Results: columnsFromDocs(pd.Results),
				Virtual: pd.Virtual,
				Body:    pd.Body,
			}
			for _, prm := range pd.Params {
				mode, err := ParseParamMode(prm.Mode)
				if err != nil {
					return nil, fmt.Errorf("procedure %s: %w", p.FullName(), err)
				}
				param := &Parameter{Name: prm.Name, Type: prm.Type, Mode: mode}
				if prm.Default != nil {
					param.HasDefault = true
					param.Default = *prm.Default
				}
				p.Params = append(p.Params, param)
			}
			if err := m.AddProcedure(p); err != nil {
				return nil, err
			}
		}
	}
	for i, f := range doc.Functions {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("functions[%d]: %w", i, err)
		}
		m.AddFunction(f.Signature())
	}
	return m, nil
}

func boolPtr(v bool) *bool {
	if v {
		return nil
	}
	return &v
}

func columnDocs(cols []*Column) []ColumnDoc {
	docs := make([]ColumnDoc, len(cols))
	for i, c := range cols {
		docs[i] = ColumnDoc{
			Name:       c.Name,
			Type:       c.Type,
			Selectable: boolPtr(c.Selectable),
			Updatable:  boolPtr(c.Updatable),
			Nullable:   boolPtr(c.Nullable),
		}
	}
	return docs
}

// ToDocument converts the groups and procedures of a catalog into a
// document. Built-in functions are not included; extra signatures are.
func ToDocument(m *Memory, functions []*Signature) *Document {
	models := map[string]*ModelDoc{}
	var order []string
	model := func(path []string) *ModelDoc {
		name := strings.Join(path[:len(path)-1], ".")
		md, ok := models[name]
		if !ok {
			md = &ModelDoc{Name: name}
			models[name] = md
			order = append(order, name)
		}
		return md
	}

	for _, g := range m.Groups() {
		td := TableDoc{
			Name:       g.Name[len(g.Name)-1],
			Columns:    columnDocs(g.Columns),
			Definition: g.Definition,
		}
		for _, k := range g.Keys {
			td.Keys = append(td.Keys, KeyDoc{Name: k.Name, Kind: k.Kind.String(), Columns: k.Columns, References: JoinPath(k.References)})
		}
		md := model(g.Name)
		if g.Kind == KindView {
			if g.Updatable {
				td.Updatable = &g.Updatable
			}
			md.Views = append(md.Views, td)
		} else {
			td.Updatable = boolPtr(g.Updatable)
			md.Tables = append(md.Tables, td)
		}
	}
	for _, p := range m.Procedures() {
		pd := ProcedureDoc{
			Name:    p.Name[len(p.Name)-1],
			Results: columnDocs(p.Results),
			Virtual: p.Virtual,
			Body:    p.Body,
		}
		for _, prm := range p.Params {
			doc := ParamDoc{Name: prm.Name, Type: prm.Type}
			if prm.Mode != ParamIn {
				doc.Mode = prm.Mode.String()
			}
			if prm.HasDefault {
				def := prm.Default
				doc.Default = &def
			}
			pd.Params = append(pd.Params, doc)
		}
		md := model(p.Name)
		md.Procedures = append(md.Procedures, pd)
	}

	doc := &Document{}
	for _, name := range order {
		doc.Models = append(doc.Models, *models[name])
	}
	for _, s := range functions {
		doc.Functions = append(doc.Functions, FunctionDoc{
			Name:         s.Name,
			Params:       s.Params,
			Returns:      s.Returns,
			Variadic:     s.Variadic,
			ConstantArgs: s.ConstantArgs,
			Aggregate:    s.Aggregate,
		})
	}
	return doc
}

// Encode writes a document as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

// WriteFile writes a document as YAML to path.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	if err := Encode(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
