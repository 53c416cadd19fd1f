package compiler

import (
	"fmt"

	"github.com/anttrn/jackc/internal/token"
)

// ParseError reports a token of the wrong kind or lexeme at a point
// in the grammar that admits only one production.
type ParseError struct {
	Pos token.Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Msg)
}

// SymbolError reports a duplicate declaration or a reference to a
// name that resolves in neither symbol table.
type SymbolError struct {
	Pos token.Position
	Msg string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: symbol error: %s", e.Pos, e.Msg)
}
