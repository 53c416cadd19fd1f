// Package lexer turns a preprocessed Jack source buffer into a stream
// of typed tokens with one-token lookahead.
package lexer

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/anttrn/jackc/internal/token"
)

var (
	identifierRegex = regexp.MustCompile(`^[A-Za-z_]\w*`)
	integerRegex    = regexp.MustCompile(`^\d+`)
)

// LexError reports a failure to classify the next lexeme: an unknown
// character, an unterminated string constant, or an out-of-range
// integer constant.
type LexError struct {
	Pos token.Position
	Msg string
}

func (e *LexError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Lexer exposes the current token, one-token lookahead via Peek, and
// Advance to move the window forward. Tokens are classified eagerly
// over the whole (preprocessed) buffer at construction time, which
// keeps Peek/Advance trivial index bumps.
type Lexer struct {
	tokens []token.Token
	pos    int // index of the current token; -1 before the first Advance
}

// New preprocesses r (stripping comments) and classifies the entire
// token stream up front.
func New(r io.Reader) (*Lexer, error) {
	raw, err := io.ReadAll(newFilteredReader(r))
	if err != nil {
		return nil, errors.Wrap(err, "lexer: reading source")
	}

	toks, err := scanAll(string(raw))
	if err != nil {
		return nil, err
	}
	return &Lexer{tokens: toks, pos: -1}, nil
}

// Advance consumes whitespace (already done during classification)
// and moves to the next token, returning it as the new Current. It
// returns io.EOF once the stream is exhausted.
func (l *Lexer) Advance() (token.Token, error) {
	if l.pos+1 >= len(l.tokens) {
		l.pos = len(l.tokens)
		return token.Token{}, io.EOF
	}
	l.pos++
	return l.tokens[l.pos], nil
}

// Current returns the most recently advanced-to token. Calling it
// before the first Advance returns the zero Token.
func (l *Lexer) Current() token.Token {
	if l.pos < 0 || l.pos >= len(l.tokens) {
		return token.Token{}
	}
	return l.tokens[l.pos]
}

// Peek returns the next token without consuming it. It
// returns the zero Token at end of stream.
func (l *Lexer) Peek() token.Token {
	if l.pos+1 >= len(l.tokens) {
		return token.Token{}
	}
	return l.tokens[l.pos+1]
}

// AtEOF reports whether Advance has exhausted the token stream.
func (l *Lexer) AtEOF() bool {
	return l.pos >= len(l.tokens)
}

func scanAll(src string) ([]token.Token, error) {
	var toks []token.Token
	line, col := 1, 1

	advancePos := func(s string) {
		for _, r := range s {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}

	for {
		trimmed := strings.TrimLeftFunc(src, unicode.IsSpace)
		advancePos(src[:len(src)-len(trimmed)])
		src = trimmed
		if len(src) == 0 {
			break
		}

		pos := token.Position{Line: line, Col: col}
		tok, width, err := lexOne(src, pos)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		advancePos(src[:width])
		src = src[width:]
	}
	return toks, nil
}

// lexOne classifies the single next token at the start of src,
// returning the token and how many bytes of src it consumed.
func lexOne(src string, pos token.Position) (token.Token, int, error) {
	switch c := rune(src[0]); {
	case token.Symbols[c]:
		return token.Token{Type: token.SymbolType, Terminal: string(c), Pos: pos}, 1, nil

	case c == '"':
		return lexString(src, pos)

	case unicode.IsDigit(c):
		// Scan the whole decimal run before range-checking it: capping
		// the match at 5 digits would silently split an out-of-range
		// literal like "100000" into two adjacent tokens instead of
		// rejecting it.
		m := integerRegex.FindString(src)
		return lexInt(m, pos)

	case unicode.IsLetter(c) || c == '_':
		m := identifierRegex.FindString(src)
		typ := token.IdentifierType
		if token.Keywords[m] {
			typ = token.KeywordType
		}
		return token.Token{Type: typ, Terminal: m, Pos: pos}, len(m), nil

	default:
		return token.Token{}, 0, &LexError{Pos: pos, Msg: "unknown character " + strconv.QuoteRune(c)}
	}
}

func lexString(src string, pos token.Position) (token.Token, int, error) {
	end := strings.IndexAny(src[1:], "\"\n")
	if end < 0 || src[1:][end] == '\n' {
		return token.Token{}, 0, &LexError{Pos: pos, Msg: "unterminated string constant"}
	}
	content := src[1 : 1+end]
	return token.Token{Type: token.StringConstantType, Terminal: content, Pos: pos}, 2 + end, nil
}

func lexInt(lexeme string, pos token.Position) (token.Token, int, error) {
	v, err := strconv.Atoi(lexeme)
	if err != nil || v > token.MaxInt || v < 0 {
		return token.Token{}, 0, &LexError{Pos: pos, Msg: "integer constant " + lexeme + " out of range 0.." + strconv.Itoa(token.MaxInt)}
	}
	return token.Token{
		Type:     token.IntegerConstantType,
		Terminal: lexeme,
		IntValue: token.MachineWord(v),
		Pos:      pos,
	}, len(lexeme), nil
}
