package symbols

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptParser extracts functions, classes, and class methods from
// JavaScript and TypeScript source. The JavaScript grammar parses the
// overlapping subset of TypeScript well enough for symbol locations,
// which is all the index needs.
type JavaScriptParser struct {
	parser *sitter.Parser
}

// NewJavaScriptParser creates a JS/TS symbol parser.
func NewJavaScriptParser() *JavaScriptParser {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &JavaScriptParser{parser: p}
}

func (j *JavaScriptParser) Extensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}
}

func (j *JavaScriptParser) Parse(path string, content []byte) ([]Record, error) {
	tree, err := j.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	module := moduleName(path)
	var records []Record

	iter := sitter.NewIterator(tree.RootNode(), sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := jsName(n, content); name != "" {
				records = append(records, jsRecord(n, content, path, module+"."+name, KindFunction, ""))
			}
		case "class_declaration":
			name := jsName(n, content)
			if name == "" {
				continue
			}
			classQualified := module + "." + name
			records = append(records, jsRecord(n, content, path, classQualified, KindClass, ""))
			records = append(records, jsClassMethods(n, content, path, classQualified)...)
		case "lexical_declaration", "variable_declaration":
			// const f = () => {} and friends.
			records = append(records, jsArrowFunctions(n, content, path, module)...)
		}
	}
	return records, nil
}

func jsName(n *sitter.Node, content []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(content)
	}
	return ""
}

func jsRecord(n *sitter.Node, content []byte, path, qualified string, kind Kind, parent string) Record {
	return Record{
		QualifiedName: qualified,
		Kind:          kind,
		FilePath:      path,
		LineStart:     int(n.StartPoint().Row) + 1,
		LineEnd:       int(n.EndPoint().Row) + 1,
		Parent:        parent,
		Preview:       firstLine(n.Content(content)),
	}
}

func jsClassMethods(class *sitter.Node, content []byte, path, classQualified string) []Record {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var records []Record
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() != "method_definition" {
			continue
		}
		if nameNode := m.ChildByFieldName("name"); nameNode != nil {
			records = append(records, jsRecord(
				m, content, path,
				classQualified+"."+nameNode.Content(content),
				KindMethod, classQualified,
			))
		}
	}
	return records
}

func jsArrowFunctions(decl *sitter.Node, content []byte, path, module string) []Record {
	var records []Record
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		value := d.ChildByFieldName("value")
		if value == nil || (value.Type() != "arrow_function" && value.Type() != "function_expression" && value.Type() != "function") {
			continue
		}
		if nameNode := d.ChildByFieldName("name"); nameNode != nil {
			records = append(records, jsRecord(
				decl, content, path,
				module+"."+nameNode.Content(content),
				KindFunction, "",
			))
		}
	}
	return records
}
