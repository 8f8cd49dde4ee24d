package chunker

import (
	"regexp"
	"strings"
)

var pyDeclPattern = regexp.MustCompile(`^(?:async\s+def|def|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// PythonParser finds top-level class and function definitions. It works on
// indentation alone, so it tolerates files that would not import cleanly.
type PythonParser struct{}

func NewPythonParser() *PythonParser {
	return &PythonParser{}
}

func (p *PythonParser) Language() string {
	return "python"
}

func (p *PythonParser) Parse(content string) ([]CodeUnit, error) {
	lines := strings.Split(content, "\n")

	var units []CodeUnit
	for i, line := range lines {
		m := pyDeclPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		unitType := "function"
		if strings.HasPrefix(line, "class") {
			unitType = "class"
		}

		// Decorators and comments directly above belong to the definition.
		start := i
		for start > 0 {
			prev := lines[start-1]
			if strings.HasPrefix(prev, "@") || strings.HasPrefix(prev, "#") {
				start--
				continue
			}
			break
		}

		if n := len(units); n > 0 {
			units[n-1].EndLine = lastCodeLine(lines, units[n-1].StartLine-1, start)
		}
		units = append(units, CodeUnit{
			Type:      unitType,
			Name:      m[1],
			StartLine: start + 1,
			EndLine:   len(lines),
		})
	}

	if n := len(units); n > 0 {
		units[n-1].EndLine = lastCodeLine(lines, units[n-1].StartLine-1, len(lines))
	}
	return units, nil
}

// lastCodeLine returns the 1-indexed last non-blank line in lines[from:to].
func lastCodeLine(lines []string, from, to int) int {
	for i := to - 1; i > from; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i + 1
		}
	}
	return from + 1
}
