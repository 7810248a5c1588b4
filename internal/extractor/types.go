package extractor

// NodeKind classifies a top-level statement of a Python module.
type NodeKind int

const (
	NodeOther NodeKind = iota
	NodeFunctionDef
	NodeClassDef
	NodeImport
	NodeImportFrom
)

func (k NodeKind) String() string {
	switch k {
	case NodeFunctionDef:
		return "function"
	case NodeClassDef:
		return "class"
	case NodeImport:
		return "import"
	case NodeImportFrom:
		return "import-from"
	default:
		return "other"
	}
}

// IsDefinition reports whether the node can carry decorators.
func (k NodeKind) IsDefinition() bool {
	return k == NodeFunctionDef || k == NodeClassDef
}

// IsImport reports whether the node is an import statement of either form.
func (k NodeKind) IsImport() bool {
	return k == NodeImport || k == NodeImportFrom
}

// Argument is one positional argument of a decorator call.
type Argument struct {
	// Value is the unquoted string when Literal is true, the raw text otherwise.
	Value   string
	Literal bool
}

// Decorator is a single @-line attached to a definition.
type Decorator struct {
	// Text is the decorator expression without the leading '@'.
	Text string

	// Callee is set when the expression is a call on a bare name, e.g. name(...).
	Callee string

	// Args holds the positional arguments of the call, keyword arguments excluded.
	Args []Argument

	Line int
}

// IsCallTo reports whether the decorator is a call-style decorator on the given name.
func (d Decorator) IsCallTo(name string) bool {
	return d.Callee != "" && d.Callee == name
}

// Node is a top-level statement with its exact source text.
type Node struct {
	Kind NodeKind
	Name string
	// Text spans the statement itself; for definitions it starts at def/class
	// and excludes decorators.
	Text       string
	Decorators []Decorator
	Line       int
}

// SourceUnit is a parsed source file. It is never mutated after parsing.
type SourceUnit struct {
	Path    string // path as discovered
	RelPath string // slash-separated path relative to the source root
	Text    string
	Nodes   []Node
}

// Imports returns the literal text of every top-level import statement, in order.
func (u *SourceUnit) Imports() []string {
	var imports []string
	for _, n := range u.Nodes {
		if n.Kind.IsImport() {
			imports = append(imports, n.Text)
		}
	}
	return imports
}
