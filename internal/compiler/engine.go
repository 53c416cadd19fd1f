// Package compiler implements the recursive-descent engine that
// parses Jack's grammar and emits VM code as a side effect of the
// single traversal. It owns one lexer, one VM writer, a class-scope
// and a subroutine-scope symbol table.
package compiler

import (
	"io"

	"github.com/pkg/errors"

	"github.com/anttrn/jackc/internal/lexer"
	"github.com/anttrn/jackc/internal/symtab"
	"github.com/anttrn/jackc/internal/token"
	"github.com/anttrn/jackc/internal/vmwriter"
)

// Logger receives diagnostic traces (symbol registrations, file
// progress); satisfied by *log.Logger.
type Logger interface {
	Printf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

type category int

const (
	none category = iota
	constructorCat
	functionCat
	methodCat
)

// Engine is the single-pass compiler for one Jack class.
type Engine struct {
	lex *lexer.Lexer
	out *vmwriter.Writer
	log Logger

	classTable *symtab.Table
	subTable   *symtab.Table

	className string
	subCat    category

	ifCounter, whileCounter int
}

// New builds a compilation engine reading tokens from lex and
// emitting VM commands to out. A nil logger discards diagnostics.
func New(lex *lexer.Lexer, out *vmwriter.Writer, log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		lex:        lex,
		out:        out,
		log:        log,
		classTable: symtab.New(),
		subTable:   symtab.New(),
	}
}

// Compile parses and emits exactly one class, halting at the first
// violation. No partial VM output is guaranteed usable after a
// returned error.
func (e *Engine) Compile() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.recoverErr(r)
		}
	}()
	e.advance()
	e.compileClass()
	return nil
}

func (e *Engine) recoverErr(r interface{}) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "compile")
	}
	return errors.Errorf("compile: %v", r)
}

// --- token-stream helpers ---------------------------------------------------

func (e *Engine) current() token.Token { return e.lex.Current() }
func (e *Engine) peek() token.Token    { return e.lex.Peek() }

func (e *Engine) advance() token.Token {
	tok, err := e.lex.Advance()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return token.Token{}
		}
		panic(err)
	}
	return tok
}

// expect verifies the current token matches one of terminals, then
// advances past it. Panics with *ParseError otherwise.
func (e *Engine) expect(terminals ...string) token.Token {
	tok := e.current()
	if !tok.Is(terminals...) {
		panic(&ParseError{Pos: tok.Pos, Msg: "expected one of " + joinQuoted(terminals) + ", got " + quote(tok.Terminal)})
	}
	e.advance()
	return tok
}

// expectIdentifier verifies the current token is an Identifier and
// returns its terminal, then advances.
func (e *Engine) expectIdentifier() string {
	tok := e.current()
	if tok.Type != token.IdentifierType {
		panic(&ParseError{Pos: tok.Pos, Msg: "expected identifier, got " + quote(tok.Terminal)})
	}
	e.advance()
	return tok.Terminal
}

// expectType consumes a Jack type (a primitive keyword or a class
// identifier) and returns its text.
func (e *Engine) expectType() string {
	tok := e.current()
	if tok.Is("int", "char", "boolean") || tok.Type == token.IdentifierType {
		e.advance()
		return tok.Terminal
	}
	panic(&ParseError{Pos: tok.Pos, Msg: "expected a type, got " + quote(tok.Terminal)})
}

func quote(s string) string { return "\"" + s + "\"" }

func joinQuoted(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += quote(s)
	}
	return out
}

// --- class and declarations ---------------------------------------------------

func (e *Engine) compileClass() {
	e.expect("class")

	e.classTable.Reset()
	e.ifCounter, e.whileCounter = 0, 0

	e.className = e.expectIdentifier()
	e.expect("{")

	for e.current().Is("static", "field") {
		e.compileClassVarDec()
	}
	for e.current().Is("constructor", "function", "method") {
		e.compileSubroutineDec()
	}
	e.expect("}")

	e.logClassTable()
}

// logClassTable reports every field/static binding accumulated for the
// class, for --verbose tooling.
func (e *Engine) logClassTable() {
	for _, entry := range e.classTable.Dump() {
		e.log.Printf("class %s: %s %s %s#%d", e.className, entry.Kind, entry.Name, entry.Type, entry.Index)
	}
}

func (e *Engine) compileClassVarDec() {
	var kind symtab.Kind
	switch {
	case e.current().Is("static"):
		kind = symtab.Static
	case e.current().Is("field"):
		kind = symtab.Field
	}
	e.advance()

	typ := e.expectType()
	for {
		name := e.expectIdentifier()
		e.defineClass(name, typ, kind)
		if e.current().Is(",") {
			e.advance()
			continue
		}
		break
	}
	e.expect(";")
}

func (e *Engine) defineClass(name, typ string, kind symtab.Kind) {
	entry, err := e.classTable.Define(name, typ, kind)
	if err != nil {
		panic(&SymbolError{Pos: e.current().Pos, Msg: err.Error()})
	}
	e.log.Printf("declared %s %s %s#%d", kind, name, typ, entry.Index)
}

func (e *Engine) defineSub(name, typ string, kind symtab.Kind) {
	entry, err := e.subTable.Define(name, typ, kind)
	if err != nil {
		panic(&SymbolError{Pos: e.current().Pos, Msg: err.Error()})
	}
	e.log.Printf("declared %s %s %s#%d", kind, name, typ, entry.Index)
}

// --- subroutines ----------------------------------------------------------------

func (e *Engine) compileSubroutineDec() {
	e.subTable.Reset()

	switch {
	case e.current().Is("constructor"):
		e.subCat = constructorCat
	case e.current().Is("function"):
		e.subCat = functionCat
	case e.current().Is("method"):
		e.subCat = methodCat
	}
	e.advance()

	if e.subCat == methodCat {
		e.defineSub("this", e.className, symtab.Argument)
	}

	// return type: void or a type, not needed for codegen
	if e.current().Is("void") {
		e.advance()
	} else {
		e.expectType()
	}

	name := e.expectIdentifier()
	e.expect("(")
	if !e.current().Is(")") {
		e.compileParameterList()
	}
	e.expect(")")

	e.compileSubroutineBody(name)
}

func (e *Engine) compileParameterList() {
	for {
		typ := e.expectType()
		name := e.expectIdentifier()
		e.defineSub(name, typ, symtab.Argument)
		if e.current().Is(",") {
			e.advance()
			continue
		}
		break
	}
}

func (e *Engine) compileSubroutineBody(name string) {
	e.expect("{")

	nlocals := 0
	for e.current().Is("var") {
		nlocals += e.compileVarDec()
	}

	e.out.Function(e.className+"."+name, nlocals)

	switch e.subCat {
	case constructorCat:
		nfields := e.classTable.Count(symtab.Field)
		e.out.Push(vmwriter.Constant, nfields)
		e.out.Call("Memory.alloc", 1)
		e.out.Pop(vmwriter.Pointer, 0)
	case methodCat:
		e.out.Push(vmwriter.Argument, 0)
		e.out.Pop(vmwriter.Pointer, 0)
	}

	e.compileStatements()
	e.expect("}")
}

func (e *Engine) compileVarDec() int {
	e.expect("var")
	typ := e.expectType()
	count := 0
	for {
		name := e.expectIdentifier()
		e.defineSub(name, typ, symtab.Local)
		count++
		if e.current().Is(",") {
			e.advance()
			continue
		}
		break
	}
	e.expect(";")
	return count
}

// --- statements -------------------------------------------------------------

func (e *Engine) compileStatements() {
	for !e.current().Is("}") {
		switch {
		case e.current().Is("let"):
			e.compileLet()
		case e.current().Is("if"):
			e.compileIf()
		case e.current().Is("while"):
			e.compileWhile()
		case e.current().Is("do"):
			e.compileDo()
		case e.current().Is("return"):
			e.compileReturn()
		default:
			panic(&ParseError{Pos: e.current().Pos, Msg: "expected a statement, got " + quote(e.current().Terminal)})
		}
	}
}

func (e *Engine) compileLet() {
	e.expect("let")
	name := e.expectIdentifier()

	isArray := false
	if e.current().Is("[") {
		isArray = true
		e.advance()
		e.pushArrayElemAddress(name)
		e.expect("]")
	}

	e.expect("=")
	e.compileExpression()
	e.expect(";")

	if isArray {
		// Isolate the RHS from the destination address: an
		// array-on-array RHS must not clobber THAT before the
		// store happens.
		e.out.Pop(vmwriter.Temp, 0)
		e.out.Pop(vmwriter.Pointer, 1)
		e.out.Push(vmwriter.Temp, 0)
		e.out.Pop(vmwriter.That, 0)
	} else {
		seg, idx := e.resolve(name)
		e.out.Pop(seg, idx)
	}
}

// pushArrayElemAddress computes base+offset for name[<expr>] and
// leaves the address on the stack (caller still has the index
// expression's closing "]" to consume via e.expect("]")).
func (e *Engine) pushArrayElemAddress(name string) {
	seg, idx := e.resolve(name)
	e.out.Push(seg, idx)
	e.compileExpression()
	e.out.Arithmetic(vmwriter.Add)
}

func (e *Engine) compileIf() {
	e.ifCounter++
	n := e.ifCounter
	trueLabel, falseLabel, endLabel := labelSet("IF_TRUE", n), labelSet("IF_FALSE", n), labelSet("IF_END", n)

	e.expect("if")
	e.expect("(")
	e.compileExpression()
	e.expect(")")

	e.out.IfGoto(trueLabel)
	e.out.Goto(falseLabel)
	e.out.Label(trueLabel)

	e.expect("{")
	e.compileStatements()
	e.expect("}")

	hasElse := e.current().Is("else")
	if hasElse {
		e.out.Goto(endLabel)
	}
	e.out.Label(falseLabel)

	if hasElse {
		e.expect("else")
		e.expect("{")
		e.compileStatements()
		e.expect("}")
		e.out.Label(endLabel)
	}
}

func (e *Engine) compileWhile() {
	e.whileCounter++
	n := e.whileCounter
	expLabel, endLabel := labelSet("WHILE_EXP", n), labelSet("WHILE_END", n)

	e.expect("while")
	e.out.Label(expLabel)
	e.expect("(")
	e.compileExpression()
	e.expect(")")
	e.out.Arithmetic(vmwriter.Not)
	e.out.IfGoto(endLabel)

	e.expect("{")
	e.compileStatements()
	e.expect("}")

	e.out.Goto(expLabel)
	e.out.Label(endLabel)
}

func (e *Engine) compileDo() {
	e.expect("do")
	e.compileSubroutineCall("")
	e.out.Pop(vmwriter.Temp, 0)
	e.expect(";")
}

func (e *Engine) compileReturn() {
	e.expect("return")
	if e.current().Is(";") {
		e.out.Push(vmwriter.Constant, 0)
	} else {
		e.compileExpression()
	}
	e.out.Return()
	e.expect(";")
}
