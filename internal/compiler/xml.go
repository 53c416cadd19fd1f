package compiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/anttrn/jackc/internal/lexer"
	"github.com/anttrn/jackc/internal/token"
)

// XMLEngine is the diagnostic twin of Engine: it walks the same
// grammar but streams a structural XML parse representation instead
// of VM code, for comparison against the course's reference
// tokenizer/parser output. It shares the lexer with Engine but
// nothing else — no symbol tables, no VM writer — so it never
// materializes a tree either; each tag is written as its production
// is entered and left.
type XMLEngine struct {
	lex    *lexer.Lexer
	w      io.Writer
	indent int
}

// NewXML builds an XML-emitting walker reading tokens from lex.
func NewXML(lex *lexer.Lexer, w io.Writer) *XMLEngine {
	return &XMLEngine{lex: lex, w: w}
}

// CompileXML parses and emits exactly one class as XML, halting at
// the first malformed token exactly as Compile does.
func (e *XMLEngine) CompileXML() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = errors.Wrap(asErr, "compile-xml")
			} else {
				err = errors.Errorf("compile-xml: %v", r)
			}
		}
	}()
	e.advance()
	e.xmlClass()
	return nil
}

func (e *XMLEngine) current() token.Token { return e.lex.Current() }

func (e *XMLEngine) advance() token.Token {
	tok, err := e.lex.Advance()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token.Token{}
		}
		panic(err)
	}
	return tok
}

func (e *XMLEngine) open(tag string) {
	e.writeLine(fmt.Sprintf("<%s>", tag))
	e.indent++
}

func (e *XMLEngine) close(tag string) {
	e.indent--
	e.writeLine(fmt.Sprintf("</%s>", tag))
}

func (e *XMLEngine) writeLine(s string) {
	io.WriteString(e.w, strings.Repeat("  ", e.indent)+s+"\n")
}

// terminal emits the current token as a leaf <type> lexeme </type>
// tag, then advances. Callers that require a specific lexeme or type
// must check it first (via expect/expectIdentifier/expectType) —
// terminal itself performs no validation.
func (e *XMLEngine) terminal() {
	tok := e.current()
	e.writeLine(fmt.Sprintf("<%s> %s </%s>", tok.Type, escapeXML(tok.Terminal), tok.Type))
	e.advance()
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(s)
}

// expect verifies the current token matches one of terminals, emits
// it, and advances past it. Panics with *ParseError otherwise, so
// malformed input is reported instead of silently mis-rendered.
func (e *XMLEngine) expect(terminals ...string) {
	tok := e.current()
	if !tok.Is(terminals...) {
		panic(&ParseError{Pos: tok.Pos, Msg: "expected one of " + joinQuoted(terminals) + ", got " + quote(tok.Terminal)})
	}
	e.terminal()
}

// expectIdentifier verifies the current token is an Identifier, emits
// it, and advances.
func (e *XMLEngine) expectIdentifier() {
	tok := e.current()
	if tok.Type != token.IdentifierType {
		panic(&ParseError{Pos: tok.Pos, Msg: "expected identifier, got " + quote(tok.Terminal)})
	}
	e.terminal()
}

// expectType verifies the current token is a Jack type (a primitive
// keyword or a class identifier), emits it, and advances.
func (e *XMLEngine) expectType() {
	tok := e.current()
	if tok.Is("int", "char", "boolean") || tok.Type == token.IdentifierType {
		e.terminal()
		return
	}
	panic(&ParseError{Pos: tok.Pos, Msg: "expected a type, got " + quote(tok.Terminal)})
}

func (e *XMLEngine) xmlClass() {
	e.open("class")
	e.expect("class")
	e.expectIdentifier() // name
	e.expect("{")
	for e.current().Is("static", "field") {
		e.xmlClassVarDec()
	}
	for e.current().Is("constructor", "function", "method") {
		e.xmlSubroutineDec()
	}
	e.expect("}")
	e.close("class")
}

func (e *XMLEngine) xmlClassVarDec() {
	e.open("classVarDec")
	e.terminal() // static | field, guarded by the caller's loop condition
	e.expectType()
	e.expectIdentifier()
	for e.current().Is(",") {
		e.expect(",")
		e.expectIdentifier()
	}
	e.expect(";")
	e.close("classVarDec")
}

func (e *XMLEngine) xmlSubroutineDec() {
	e.open("subroutineDec")
	e.terminal() // constructor | function | method, guarded by the caller's loop condition
	if e.current().Is("void") {
		e.expect("void")
	} else {
		e.expectType()
	}
	e.expectIdentifier() // name
	e.expect("(")
	e.open("parameterList")
	for !e.current().Is(")") {
		e.expectType()
		e.expectIdentifier()
		if e.current().Is(",") {
			e.expect(",")
		}
	}
	e.close("parameterList")
	e.expect(")")
	e.xmlSubroutineBody()
	e.close("subroutineDec")
}

func (e *XMLEngine) xmlSubroutineBody() {
	e.open("subroutineBody")
	e.expect("{")
	for e.current().Is("var") {
		e.xmlVarDec()
	}
	e.xmlStatements()
	e.expect("}")
	e.close("subroutineBody")
}

func (e *XMLEngine) xmlVarDec() {
	e.open("varDec")
	e.expect("var")
	e.expectType()
	e.expectIdentifier()
	for e.current().Is(",") {
		e.expect(",")
		e.expectIdentifier()
	}
	e.expect(";")
	e.close("varDec")
}

func (e *XMLEngine) xmlStatements() {
	e.open("statements")
	for {
		switch {
		case e.current().Is("let"):
			e.xmlLet()
		case e.current().Is("if"):
			e.xmlIf()
		case e.current().Is("while"):
			e.xmlWhile()
		case e.current().Is("do"):
			e.xmlDo()
		case e.current().Is("return"):
			e.xmlReturn()
		default:
			e.close("statements")
			return
		}
	}
}

func (e *XMLEngine) xmlLet() {
	e.open("letStatement")
	e.expect("let")
	e.expectIdentifier() // name
	if e.current().Is("[") {
		e.expect("[")
		e.xmlExpression()
		e.expect("]")
	}
	e.expect("=")
	e.xmlExpression()
	e.expect(";")
	e.close("letStatement")
}

func (e *XMLEngine) xmlIf() {
	e.open("ifStatement")
	e.expect("if")
	e.expect("(")
	e.xmlExpression()
	e.expect(")")
	e.expect("{")
	e.xmlStatements()
	e.expect("}")
	if e.current().Is("else") {
		e.expect("else")
		e.expect("{")
		e.xmlStatements()
		e.expect("}")
	}
	e.close("ifStatement")
}

func (e *XMLEngine) xmlWhile() {
	e.open("whileStatement")
	e.expect("while")
	e.expect("(")
	e.xmlExpression()
	e.expect(")")
	e.expect("{")
	e.xmlStatements()
	e.expect("}")
	e.close("whileStatement")
}

func (e *XMLEngine) xmlDo() {
	e.open("doStatement")
	e.expect("do")
	e.xmlSubroutineCallTail()
	e.expect(";")
	e.close("doStatement")
}

func (e *XMLEngine) xmlReturn() {
	e.open("returnStatement")
	e.expect("return")
	if !e.current().Is(";") {
		e.xmlExpression()
	}
	e.expect(";")
	e.close("returnStatement")
}

func (e *XMLEngine) xmlExpression() {
	e.open("expression")
	e.xmlTerm()
	for e.current().IsBinaryOp() {
		e.terminal() // the operator, already validated by IsBinaryOp
		e.xmlTerm()
	}
	e.close("expression")
}

func (e *XMLEngine) xmlExpressionList() {
	e.open("expressionList")
	if !e.current().Is(")") {
		e.xmlExpression()
		for e.current().Is(",") {
			e.expect(",")
			e.xmlExpression()
		}
	}
	e.close("expressionList")
}

func (e *XMLEngine) xmlTerm() {
	e.open("term")
	tok := e.current()
	switch {
	case tok.IsType(token.IntegerConstantType), tok.IsType(token.StringConstantType), tok.IsType(token.KeywordType):
		e.terminal() // already validated by the type/keyword check above
	case tok.Is("("):
		e.expect("(")
		e.xmlExpression()
		e.expect(")")
	case tok.IsUnaryOp():
		e.terminal() // already validated by IsUnaryOp
		e.xmlTerm()
	case tok.IsType(token.IdentifierType):
		e.terminal() // name, already validated by the type check above
		switch {
		case e.current().Is("["):
			e.expect("[")
			e.xmlExpression()
			e.expect("]")
		case e.current().Is("("), e.current().Is("."):
			e.xmlCallTailAfterName()
		}
	default:
		panic(&ParseError{Pos: tok.Pos, Msg: "unexpected token " + quote(tok.Terminal) + " in expression"})
	}
	e.close("term")
}

// xmlSubroutineCallTail handles "do ident ( . ident2 )? ( args )"
// where the leading identifier has not yet been consumed.
func (e *XMLEngine) xmlSubroutineCallTail() {
	e.expectIdentifier() // name
	e.xmlCallTailAfterName()
}

func (e *XMLEngine) xmlCallTailAfterName() {
	if e.current().Is(".") {
		e.expect(".")
		e.expectIdentifier() // method name
	}
	e.expect("(")
	e.xmlExpressionList()
	e.expect(")")
}
