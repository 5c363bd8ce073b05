package symbols

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonParser extracts classes, functions, and methods from Python
// source. Qualified names are module-scoped (file stem): module.Class,
// module.Class.method, module.function.
type PythonParser struct {
	parser *sitter.Parser
}

// NewPythonParser creates a Python symbol parser.
func NewPythonParser() *PythonParser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonParser{parser: p}
}

func (p *PythonParser) Extensions() []string { return []string{".py"} }

func (p *PythonParser) Parse(path string, content []byte) ([]Record, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	module := moduleName(path)
	var records []Record
	walkPython(tree.RootNode(), content, path, module, "", &records)
	return records, nil
}

// walkPython recurses through definition nodes, threading the enclosing
// qualified name so nested definitions become dotted paths.
func walkPython(n *sitter.Node, content []byte, path, module, parent string, out *[]Record) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			name := pyNodeName(child, content)
			if name == "" {
				continue
			}
			qualified := joinQualified(module, parent, name)
			*out = append(*out, Record{
				QualifiedName: qualified,
				Kind:          KindClass,
				FilePath:      path,
				LineStart:     int(child.StartPoint().Row) + 1,
				LineEnd:       int(child.EndPoint().Row) + 1,
				Parent:        parentQualified(module, parent),
				Preview:       firstLine(child.Content(content)),
			})
			if body := child.ChildByFieldName("body"); body != nil {
				walkPython(body, content, path, module, joinParent(parent, name), out)
			}
		case "function_definition":
			name := pyNodeName(child, content)
			if name == "" {
				continue
			}
			kind := KindFunction
			if parent != "" {
				kind = KindMethod
			}
			*out = append(*out, Record{
				QualifiedName: joinQualified(module, parent, name),
				Kind:          kind,
				FilePath:      path,
				LineStart:     int(child.StartPoint().Row) + 1,
				LineEnd:       int(child.EndPoint().Row) + 1,
				Parent:        parentQualified(module, parent),
				Preview:       firstLine(child.Content(content)),
			})
			if body := child.ChildByFieldName("body"); body != nil {
				walkPython(body, content, path, module, joinParent(parent, name), out)
			}
		case "decorated_definition":
			walkPython(child, content, path, module, parent, out)
		default:
			// Module-level statements may hold nested definitions
			// (if __name__ guards, try blocks); descend.
			if child.NamedChildCount() > 0 && parent == "" {
				walkPython(child, content, path, module, parent, out)
			}
		}
	}
}

func pyNodeName(n *sitter.Node, content []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(content)
	}
	return ""
}

func joinParent(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func joinQualified(module, parent, name string) string {
	return module + "." + joinParent(parent, name)
}

func parentQualified(module, parent string) string {
	if parent == "" {
		return ""
	}
	return module + "." + parent
}
