package symbols

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoParser extracts functions, methods, and type declarations from Go
// source. Qualified names are package-scoped: pkg.Name for top-level
// declarations, pkg.Recv.Name for methods.
type GoParser struct {
	parser *sitter.Parser
}

// NewGoParser creates a Go symbol parser.
func NewGoParser() *GoParser {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoParser{parser: p}
}

func (g *GoParser) Extensions() []string { return []string{".go"} }

func (g *GoParser) Parse(path string, content []byte) ([]Record, error) {
	tree, err := g.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	pkg := goPackageName(root, content)
	if pkg == "" {
		pkg = moduleName(path)
	}

	var records []Record
	iter := sitter.NewIterator(root, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}
		switch n.Type() {
		case "function_declaration":
			if r, ok := goNamedRecord(n, content, path, pkg, KindFunction); ok {
				records = append(records, r)
			}
		case "method_declaration":
			if r, ok := goMethodRecord(n, content, path, pkg); ok {
				records = append(records, r)
			}
		case "type_spec":
			if r, ok := goTypeRecord(n, content, path, pkg); ok {
				records = append(records, r)
			}
		}
	}
	return records, nil
}

func goPackageName(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "package_clause" {
			for j := 0; j < int(child.ChildCount()); j++ {
				if c := child.Child(j); c.Type() == "package_identifier" {
					return c.Content(content)
				}
			}
		}
	}
	return ""
}

func goNamedRecord(n *sitter.Node, content []byte, path, pkg string, kind Kind) (Record, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Record{}, false
	}
	return Record{
		QualifiedName: pkg + "." + nameNode.Content(content),
		Kind:          kind,
		FilePath:      path,
		LineStart:     int(n.StartPoint().Row) + 1,
		LineEnd:       int(n.EndPoint().Row) + 1,
		Preview:       firstLine(n.Content(content)),
	}, true
}

func goMethodRecord(n *sitter.Node, content []byte, path, pkg string) (Record, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Record{}, false
	}
	recv := goReceiverType(n, content)
	qualified := pkg + "." + nameNode.Content(content)
	parent := ""
	if recv != "" {
		parent = pkg + "." + recv
		qualified = parent + "." + nameNode.Content(content)
	}
	return Record{
		QualifiedName: qualified,
		Kind:          KindMethod,
		FilePath:      path,
		LineStart:     int(n.StartPoint().Row) + 1,
		LineEnd:       int(n.EndPoint().Row) + 1,
		Parent:        parent,
		Preview:       firstLine(n.Content(content)),
	}, true
}

// goReceiverType digs the bare type name out of a method receiver,
// stripping pointers and generic brackets: (s *Store[T]) -> Store.
func goReceiverType(n *sitter.Node, content []byte) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var typeName string
	iter := sitter.NewIterator(recv, sitter.DFSMode)
	for {
		c, err := iter.Next()
		if err != nil || c == nil {
			break
		}
		if c.Type() == "type_identifier" {
			typeName = c.Content(content)
			break
		}
	}
	return typeName
}

func goTypeRecord(n *sitter.Node, content []byte, path, pkg string) (Record, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return Record{}, false
	}
	kind := KindClass
	if t := n.ChildByFieldName("type"); t != nil {
		switch t.Type() {
		case "struct_type":
			kind = KindStruct
		case "interface_type":
			kind = KindInterface
		}
	}
	// The enclosing type_declaration carries the `type` keyword and any
	// doc comment lines we want in the range.
	span := n
	if p := n.Parent(); p != nil && p.Type() == "type_declaration" {
		span = p
	}
	return Record{
		QualifiedName: pkg + "." + nameNode.Content(content),
		Kind:          kind,
		FilePath:      path,
		LineStart:     int(span.StartPoint().Row) + 1,
		LineEnd:       int(span.EndPoint().Row) + 1,
		Preview:       firstLine(span.Content(content)),
	}, true
}
