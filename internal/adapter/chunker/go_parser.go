package chunker

import (
	"go/ast"
	"go/parser"
	"go/token"
)

// GoParser parses Go source code into CodeUnits.
type GoParser struct{}

// NewGoParser creates a new Go parser.
func NewGoParser() *GoParser {
	return &GoParser{}
}

// Language returns the language this parser handles.
func (p *GoParser) Language() string {
	return "go"
}

// Parse parses Go source code and returns its top-level declarations.
func (p *GoParser) Parse(content string) ([]CodeUnit, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var units []CodeUnit
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			unitType := "function"
			if d.Recv != nil {
				unitType = "method"
			}
			units = append(units, CodeUnit{
				Type:      unitType,
				Name:      d.Name.Name,
				StartLine: startLine(fset, d.Pos(), d.Doc),
				EndLine:   fset.Position(d.End()).Line,
			})

		case *ast.GenDecl:
			units = append(units, CodeUnit{
				Type:      genDeclType(d),
				Name:      genDeclName(d),
				StartLine: startLine(fset, d.Pos(), d.Doc),
				EndLine:   fset.Position(d.End()).Line,
			})
		}
	}

	return units, nil
}

// startLine returns the first line of a declaration, including its doc comment.
func startLine(fset *token.FileSet, pos token.Pos, doc *ast.CommentGroup) int {
	if doc != nil {
		pos = doc.Pos()
	}
	return fset.Position(pos).Line
}

func genDeclType(d *ast.GenDecl) string {
	switch d.Tok {
	case token.TYPE:
		if len(d.Specs) == 1 {
			switch d.Specs[0].(*ast.TypeSpec).Type.(type) {
			case *ast.StructType:
				return "struct"
			case *ast.InterfaceType:
				return "interface"
			}
		}
		return "type"
	case token.CONST:
		return "const"
	case token.VAR:
		return "var"
	case token.IMPORT:
		return "import"
	default:
		return d.Tok.String()
	}
}

func genDeclName(d *ast.GenDecl) string {
	if len(d.Specs) == 0 {
		return ""
	}
	switch s := d.Specs[0].(type) {
	case *ast.TypeSpec:
		return s.Name.Name
	case *ast.ValueSpec:
		if len(s.Names) > 0 {
			return s.Names[0].Name
		}
	case *ast.ImportSpec:
		return "imports"
	}
	return ""
}
