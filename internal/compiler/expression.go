package compiler

import (
	"fmt"

	"github.com/anttrn/jackc/internal/symtab"
	"github.com/anttrn/jackc/internal/token"
	"github.com/anttrn/jackc/internal/vmwriter"
)

func labelSet(prefix string, n int) string {
	return fmt.Sprintf("%s_%d", prefix, n)
}

// --- name resolution -----------------------------------------------------------

// lookup searches the subroutine-scope table before the class-scope
// table: a local shadows a field or static of the same name. Neither
// table falls back within itself; the engine composes the two
// explicitly.
func (e *Engine) lookup(name string) (symtab.Entry, bool) {
	if entry, ok := e.subTable.Lookup(name); ok {
		return entry, true
	}
	return e.classTable.Lookup(name)
}

func segmentFor(kind symtab.Kind) vmwriter.Segment {
	switch kind {
	case symtab.Static:
		return vmwriter.Static
	case symtab.Field:
		return vmwriter.This
	case symtab.Argument:
		return vmwriter.Argument
	case symtab.Local:
		return vmwriter.Local
	default:
		panic(&EmitError{Msg: fmt.Sprintf("unhandled symbol kind %v", kind)})
	}
}

// resolve maps a bound identifier to its VM segment and index. A name
// absent from both tables is a SymbolError: plain variable references
// must resolve, only call-syntax callees may be unresolved class names.
func (e *Engine) resolve(name string) (vmwriter.Segment, int) {
	entry, ok := e.lookup(name)
	if !ok {
		panic(&SymbolError{Pos: e.current().Pos, Msg: "undefined name " + quote(name)})
	}
	return segmentFor(entry.Kind), entry.Index
}

// --- expressions -----------------------------------------------------------------

var binaryOpCommand = map[string]vmwriter.Command{
	"+": vmwriter.Add,
	"-": vmwriter.Sub,
	"&": vmwriter.And,
	"|": vmwriter.Or,
	"<": vmwriter.Lt,
	">": vmwriter.Gt,
	"=": vmwriter.Eq,
}

// compileExpression implements the flat, left-to-right, no-precedence
// grammar rule term (op term)*, emitting each term then the operator,
// so "1 + 2 * 3" compiles to (1+2)*3 worth of VM ops.
func (e *Engine) compileExpression() {
	e.compileTerm()
	for e.current().IsBinaryOp() {
		op := e.current().Terminal
		e.advance()
		e.compileTerm()
		e.emitBinaryOp(op)
	}
}

func (e *Engine) emitBinaryOp(op string) {
	switch op {
	case "*":
		e.out.Call("Math.multiply", 2)
	case "/":
		e.out.Call("Math.divide", 2)
	default:
		cmd, ok := binaryOpCommand[op]
		if !ok {
			panic(&EmitError{Msg: "unhandled binary operator " + quote(op)})
		}
		e.out.Arithmetic(cmd)
	}
}

// compileExpressionList compiles a comma-separated expressionList and
// returns the number of top-level expressions it contained. An empty
// list (current token already the closing ")") yields 0.
func (e *Engine) compileExpressionList() int {
	if e.current().Is(")") {
		return 0
	}
	n := 0
	for {
		e.compileExpression()
		n++
		if e.current().Is(",") {
			e.advance()
			continue
		}
		break
	}
	return n
}

// --- terms -------------------------------------------------------------------

func (e *Engine) compileTerm() {
	tok := e.current()
	switch {
	case tok.IsType(token.IntegerConstantType):
		e.out.Push(vmwriter.Constant, int(tok.IntValue))
		e.advance()

	case tok.IsType(token.StringConstantType):
		e.compileStringConstant(tok.Terminal)
		e.advance()

	case tok.IsType(token.KeywordType):
		e.compileKeywordConstant(tok)
		e.advance()

	case tok.Is("("):
		e.advance()
		e.compileExpression()
		e.expect(")")

	case tok.IsUnaryOp():
		e.advance()
		e.compileTerm()
		if tok.Terminal == "-" {
			e.out.Arithmetic(vmwriter.Neg)
		} else {
			e.out.Arithmetic(vmwriter.Not)
		}

	case tok.IsType(token.IdentifierType):
		e.compileIdentifierTerm()

	default:
		panic(&ParseError{Pos: tok.Pos, Msg: "unexpected token " + quote(tok.Terminal) + " in expression"})
	}
}

func (e *Engine) compileStringConstant(s string) {
	e.out.Push(vmwriter.Constant, len(s))
	e.out.Call("String.new", 1)
	for _, c := range s {
		e.out.Push(vmwriter.Constant, int(c))
		e.out.Call("String.appendChar", 2)
	}
}

func (e *Engine) compileKeywordConstant(tok token.Token) {
	switch {
	case tok.Is("true"):
		e.out.Push(vmwriter.Constant, 1)
		e.out.Arithmetic(vmwriter.Neg)
	case tok.Is("false"), tok.Is("null"):
		e.out.Push(vmwriter.Constant, 0)
	case tok.Is("this"):
		e.out.Push(vmwriter.Pointer, 0)
	default:
		panic(&ParseError{Pos: tok.Pos, Msg: "unexpected keyword " + quote(tok.Terminal) + " in expression"})
	}
}

// compileIdentifierTerm resolves the one-token lookahead an
// identifier term needs: followed by "[" it is an array element,
// followed by "(" or "." it is a subroutine call, otherwise a plain
// variable reference.
func (e *Engine) compileIdentifierTerm() {
	name := e.current().Terminal
	e.advance()

	switch {
	case e.current().Is("["):
		e.advance()
		e.pushArrayElemAddress(name)
		e.expect("]")
		e.out.Pop(vmwriter.Pointer, 1)
		e.out.Push(vmwriter.That, 0)

	case e.current().Is("("), e.current().Is("."):
		e.compileSubroutineCall(name)

	default:
		seg, idx := e.resolve(name)
		e.out.Push(seg, idx)
	}
}

// --- subroutine calls -----------------------------------------------------------

// compileSubroutineCall parses "ident1 ( . ident2 )? ( args )". name
// is the already-consumed leading identifier, or "" if the caller
// (compileDo) has not yet consumed it.
func (e *Engine) compileSubroutineCall(name string) {
	if name == "" {
		name = e.expectIdentifier()
	}

	switch {
	case e.current().Is("."):
		e.advance()
		methodName := e.expectIdentifier()

		nargs := 0
		if entry, ok := e.lookup(name); ok {
			// X resolves: qualified call on an object reference.
			nargs = 1
			e.out.Push(segmentFor(entry.Kind), entry.Index)
			name = entry.Type + "." + methodName
		} else {
			// X is a class name.
			name = name + "." + methodName
		}

		e.expect("(")
		nargs += e.compileExpressionList()
		e.expect(")")
		e.out.Call(name, nargs)

	case e.current().Is("("):
		// Unqualified call: implicit method call on the current object.
		e.out.Push(vmwriter.Pointer, 0)
		e.advance()
		nargs := 1 + e.compileExpressionList()
		e.expect(")")
		e.out.Call(e.className+"."+name, nargs)

	default:
		tok := e.current()
		panic(&ParseError{Pos: tok.Pos, Msg: "expected \"(\" or \".\" in subroutine call, got " + quote(tok.Terminal)})
	}
}

// EmitError guards the compiler against producing a malformed VM
// command: an internal engine bug rather than a user source error.
type EmitError struct {
	Msg string
}

func (e *EmitError) Error() string { return "emit error: " + e.Msg }
