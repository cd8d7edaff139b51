package loader

import "gopkg.in/yaml.v3"

// document is the on-disk graph description.
//
//	namespaces:
//	  - name: Pkg
//	    consts: [{name: MAX, value: 8}]
//	    types:
//	      - {name: R, storage: record, fields: [{ident: x, type: int32}]}
//	      - {name: Alias, typedef: R}
type document struct {
	Namespaces []nsDoc `yaml:"namespaces"`
}

type nsDoc struct {
	Name       string     `yaml:"name"`
	Doc        string     `yaml:"doc"`
	Consts     []constDoc `yaml:"consts"`
	Types      []typeDoc  `yaml:"types"`
	Namespaces []nsDoc    `yaml:"namespaces"`

	line int
}

type constDoc struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
	Impl  bool   `yaml:"impl"`

	line int
}

type typeDoc struct {
	Name    string            `yaml:"name"`
	Storage string            `yaml:"storage"`
	Typedef string            `yaml:"typedef"`
	Impl    *bool             `yaml:"impl"`
	Forward bool              `yaml:"forward"`
	Doc     string            `yaml:"doc"`
	Hint    string            `yaml:"hint"`
	Aux     map[string]string `yaml:"aux"`

	Options       []optionDoc `yaml:"options"`
	Fields        []memberDoc `yaml:"fields"`
	Elements      *memberDoc  `yaml:"elements"`
	Prerequisites []string    `yaml:"prerequisites"`
	Methods       []methodDoc `yaml:"methods"`
	Signals       []methodDoc `yaml:"signals"`

	line int
}

type optionDoc struct {
	Ident string `yaml:"ident"`
	Label string `yaml:"label"`
	Blurb string `yaml:"blurb"`
	Value *int64 `yaml:"value"`

	line int
}

type memberDoc struct {
	Ident   string `yaml:"ident"`
	Type    string `yaml:"type"`
	Default string `yaml:"default"`

	line int
}

type methodDoc struct {
	Name      string      `yaml:"name"`
	Return    string      `yaml:"return"`
	Pure      bool        `yaml:"pure"`
	Args      []memberDoc `yaml:"args"`
	Collector string      `yaml:"collector"`
	Doc       string      `yaml:"doc"`

	line int
}

// impl defaults to true: declarations in a loaded document are implementation
// types unless marked otherwise.
func (d *typeDoc) impl() bool { return d.Impl == nil || *d.Impl }

func (d *nsDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain nsDoc
	d.line = n.Line
	return n.Decode((*plain)(d))
}

func (d *constDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain constDoc
	d.line = n.Line
	return n.Decode((*plain)(d))
}

func (d *typeDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain typeDoc
	d.line = n.Line
	return n.Decode((*plain)(d))
}

func (d *optionDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain optionDoc
	d.line = n.Line
	return n.Decode((*plain)(d))
}

func (d *memberDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain memberDoc
	d.line = n.Line
	return n.Decode((*plain)(d))
}

func (d *methodDoc) UnmarshalYAML(n *yaml.Node) error {
	type plain methodDoc
	d.line = n.Line
	return n.Decode((*plain)(d))
}
