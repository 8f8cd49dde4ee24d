package chunker

// CodeUnit is a top-level declaration found by a LanguageParser.
// Lines are 1-indexed and inclusive; StartLine includes any attached doc
// comment or decorator lines.
type CodeUnit struct {
	Type      string
	Name      string
	StartLine int
	EndLine   int
}

type LanguageParser interface {
	Parse(content string) ([]CodeUnit, error)

	Language() string
}
