package synth

// Role classifies a record member for the staged chain.
type Role string

const (
	RolePlain        Role = "plain"
	RoleRequired     Role = "required"
	RoleAccumulating Role = "accumulating"
)

// IsStep reports whether a field with this role is threaded through the chain.
func (r Role) IsStep() bool {
	return r == RoleRequired || r == RoleAccumulating
}

// Field is a classified record member.
type Field struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Role       Role   `yaml:"role"`
	Adder      string `yaml:"adder,omitempty"`
	Default    string `yaml:"default,omitempty"`
	HasDefault bool   `yaml:"hasDefault,omitempty"`
}

// Shape returns the collection shape of the field's declared type.
func (f Field) Shape() Shape {
	return ClassifyShape(f.Type)
}

// Step is one entry of the step list.
type Step struct {
	Name  string `yaml:"name"`
	Field Field  `yaml:"field"`
	Known bool   `yaml:"known"` // false when an explicit order names a field the record lacks
}

// OpKind is the kind of a stage operation.
type OpKind string

const (
	OpAdvance OpKind = "advance" // supply a whole step value and move on
	OpAppend  OpKind = "append"  // append one element to a sequence
	OpInsert  OpKind = "insert"  // insert a key/value pair into a mapping
	OpInclude OpKind = "include" // insert an element into a set
	OpReplace OpKind = "replace" // overwrite the whole value
	OpBuild   OpKind = "build"   // construct the record
)

// Param is a single operation parameter.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Assign is a keyed element of a composite literal.
type Assign struct {
	Key  string `yaml:"key"`
	Expr string `yaml:"expr"`
}

// Carried is a step value stored by a stage.
type Carried struct {
	Storage string `yaml:"storage"`
	Field   string `yaml:"field"`
	Type    string `yaml:"type"`
}

// Operation is a method exposed by a stage.
type Operation struct {
	Kind    OpKind   `yaml:"kind"`
	Name    string   `yaml:"name"`
	Field   string   `yaml:"field,omitempty"`
	Type    string   `yaml:"type,omitempty"` // declared type of the target field
	Params  []Param  `yaml:"params,omitempty"`
	Self    bool     `yaml:"self,omitempty"`
	Base    string   `yaml:"base,omitempty"` // expression holding the value an accumulator starts from
	Present string   `yaml:"present,omitempty"`
	Result  string   `yaml:"result"`
	Carry   []Assign `yaml:"carry"`
}

// Stage is a synthesized construction state.
type Stage struct {
	Name     string      `yaml:"name"`
	Index    int         `yaml:"index"`
	Terminal bool        `yaml:"terminal,omitempty"`
	Carried  []Carried   `yaml:"carried,omitempty"`
	Ops      []Operation `yaml:"ops"`
}

// Entry is the factory producing the first stage.
type Entry struct {
	Name   string   `yaml:"name"`
	Result string   `yaml:"result"`
	Carry  []Assign `yaml:"carry,omitempty"`
}

// Plan is the synthesized builder for one record. Stages are listed in
// dependency order: every stage only refers to stages listed before it.
type Plan struct {
	Record     string   `yaml:"record"`
	Exported   bool     `yaml:"exported"`
	TypeParams string   `yaml:"typeParams,omitempty"`
	TypeArgs   string   `yaml:"typeArgs,omitempty"`
	Fields     []Field  `yaml:"fields"`
	Steps      []Step   `yaml:"steps"`
	Stages     []Stage  `yaml:"stages"`
	Entry      Entry    `yaml:"entry"`
	Imports    []string `yaml:"imports,omitempty"` // standard packages the generated code needs
	Warnings   []string `yaml:"warnings,omitempty"`
}

// Stage returns the stage with the given chain index.
func (p *Plan) Stage(index int) (Stage, bool) {
	for _, s := range p.Stages {
		if s.Index == index {
			return s, true
		}
	}
	return Stage{}, false
}

// Terminal returns the terminal stage.
func (p *Plan) Terminal() Stage {
	for _, s := range p.Stages {
		if s.Terminal {
			return s
		}
	}
	return Stage{}
}

// Options controls a synthesis run.
type Options struct {
	Order            []string
	Strict           bool
	LoopAccumulators bool
}
