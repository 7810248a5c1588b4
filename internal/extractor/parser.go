package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// SyntaxError reports the first malformed construct found in a source file.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: invalid syntax near %q", e.Path, e.Line, e.Column, e.Near)
}

// Parser turns Python source into SourceUnits using tree-sitter.
// It is safe for concurrent use; each call gets its own tree-sitter parser.
type Parser struct {
	language *sitter.Language
}

// NewParser creates a new Python parser.
func NewParser() *Parser {
	return &Parser{
		language: sitter.NewLanguage(python.Language()),
	}
}

// ParseFile reads and parses a Python source file.
func (p *Parser) ParseFile(ctx context.Context, path, relPath string) (*SourceUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return p.Parse(path, relPath, source)
}

// Parse parses source held in memory. path is only used for error messages.
func (p *Parser) Parse(path, relPath string, source []byte) (*SourceUnit, error) {
	// Empty package markers are common; nothing to parse
	if len(source) == 0 {
		return &SourceUnit{Path: path, RelPath: relPath}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to load python grammar: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse python file: %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root, source)
	}

	unit := &SourceUnit{
		Path:    path,
		RelPath: relPath,
		Text:    string(source),
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		unit.Nodes = append(unit.Nodes, convertNode(child, source))
	}

	return unit, nil
}

// convertNode maps a tree-sitter statement onto the closed NodeKind set.
func convertNode(n *sitter.Node, source []byte) Node {
	switch n.Kind() {
	case "decorated_definition":
		def := n.ChildByFieldName("definition")
		if def == nil {
			return otherNode(n, source)
		}
		node := definitionNode(def, source)
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "decorator" {
				node.Decorators = append(node.Decorators, convertDecorator(child, source))
			}
		}
		return node
	case "function_definition", "class_definition":
		return definitionNode(n, source)
	case "import_statement":
		return Node{Kind: NodeImport, Text: nodeText(n, source), Line: line(n)}
	case "import_from_statement", "future_import_statement":
		return Node{Kind: NodeImportFrom, Text: nodeText(n, source), Line: line(n)}
	default:
		return otherNode(n, source)
	}
}

func definitionNode(n *sitter.Node, source []byte) Node {
	kind := NodeFunctionDef
	if n.Kind() == "class_definition" {
		kind = NodeClassDef
	}
	return Node{
		Kind: kind,
		Name: nodeText(n.ChildByFieldName("name"), source),
		Text: nodeText(n, source),
		Line: line(n),
	}
}

func otherNode(n *sitter.Node, source []byte) Node {
	return Node{Kind: NodeOther, Text: nodeText(n, source), Line: line(n)}
}

func convertDecorator(n *sitter.Node, source []byte) Decorator {
	d := Decorator{Line: line(n)}

	expr := n.NamedChild(0)
	if expr == nil {
		d.Text = strings.TrimSpace(strings.TrimPrefix(nodeText(n, source), "@"))
		return d
	}
	d.Text = nodeText(expr, source)

	if expr.Kind() != "call" {
		return d
	}
	fn := expr.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return d
	}
	d.Callee = nodeText(fn, source)

	args := expr.ChildByFieldName("arguments")
	if args == nil || args.Kind() != "argument_list" {
		return d
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		switch arg.Kind() {
		case "keyword_argument", "dictionary_splat", "comment":
			continue
		case "string", "concatenated_string":
			text := nodeText(arg, source)
			if value, ok := stringValue(arg, source); ok {
				d.Args = append(d.Args, Argument{Value: value, Literal: true})
				continue
			}
			d.Args = append(d.Args, Argument{Value: text})
		default:
			d.Args = append(d.Args, Argument{Value: nodeText(arg, source)})
		}
	}
	return d
}

// stringValue returns the value of a string literal node. Implicitly
// concatenated literals ("a.b" ".Foo") are joined, as Python does.
func stringValue(n *sitter.Node, source []byte) (string, bool) {
	if n.Kind() == "string" {
		return unquote(nodeText(n, source))
	}

	var b strings.Builder
	parts := 0
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		if child.Kind() != "string" {
			return "", false
		}
		value, ok := unquote(nodeText(child, source))
		if !ok {
			return "", false
		}
		b.WriteString(value)
		parts++
	}
	return b.String(), parts > 0
}

// unquote strips the prefix and quotes of a plain Python string literal.
// f-strings and byte strings are not names and are reported as non-literal.
func unquote(lit string) (string, bool) {
	i := 0
	for i < len(lit) && strings.ContainsRune("rRuUbBfF", rune(lit[i])) {
		if strings.ContainsRune("bBfF", rune(lit[i])) {
			return "", false
		}
		i++
	}
	body := lit[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			return body[len(q) : len(body)-len(q)], true
		}
	}
	return "", false
}

// syntaxError locates the first ERROR or MISSING node under root.
func syntaxError(path string, root *sitter.Node, source []byte) error {
	var bad *sitter.Node
	walkTree(root, func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return n.HasError()
	})
	if bad == nil {
		bad = root
	}

	near := nodeText(bad, source)
	if idx := strings.IndexByte(near, '\n'); idx >= 0 {
		near = near[:idx]
	}
	if len(near) > 40 {
		near = near[:40]
	}

	return &SyntaxError{
		Path:   path,
		Line:   line(bad),
		Column: int(bad.StartPosition().Column) + 1,
		Near:   near,
	}
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

func line(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), visitor)
	}
}
