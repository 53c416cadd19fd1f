package lexer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
)

// filteredReader strips "//" line comments and "/* ... */" /
// "/** ... */" block comments from the underlying reader while
// preserving every whitespace boundary, so tokens downstream never
// fuse across a stripped comment.
type filteredReader struct {
	reader *bufio.Reader
}

func newFilteredReader(r io.Reader) *filteredReader {
	return &filteredReader{reader: bufio.NewReader(r)}
}

func (r *filteredReader) Read(b []byte) (int, error) {
	var (
		err  error
		char rune
		n    int
	)

	i := 0
	for i < cap(b) {
		char, n, err = r.reader.ReadRune()
		if n == 0 {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		if char == '/' {
			nextChar, _, nextErr := r.reader.ReadRune()
			switch {
			case nextErr != nil:
				if !errors.Is(nextErr, io.EOF) {
					return i, nextErr
				}
				err = io.EOF
			case nextChar == '/':
				if _, lineErr := r.reader.ReadString('\n'); lineErr != nil && !errors.Is(lineErr, io.EOF) {
					return i, lineErr
				}
				char = '\n'
			case nextChar == '*':
				if cerr := r.skipBlockComment(); cerr != nil {
					return i, cerr
				}
				char = ' '
			default:
				if uerr := r.reader.UnreadRune(); uerr != nil {
					return i, uerr
				}
				err = nil
			}
		}

		if n == 0 {
			return n, err
		} else if i+n <= len(b) {
			i += utf8.EncodeRune(b[i:], char)
			if errors.Is(err, io.EOF) {
				break
			}
		} else {
			if uerr := r.reader.UnreadRune(); uerr != nil {
				return i, nil
			}
			break
		}
	}

	return i, err
}

func (r *filteredReader) skipBlockComment() error {
	for {
		str, err := r.reader.ReadString('/')
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("unclosed comment: %w", err), "preprocess")
		}
		if len(str) == 0 {
			return pkgerrors.New("preprocess: unclosed comment")
		}
		if len(str) >= 2 && str[len(str)-2] == '*' {
			return nil
		}
	}
}
