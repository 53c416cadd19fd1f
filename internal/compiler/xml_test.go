package compiler

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anttrn/jackc/internal/lexer"
)

func compileXMLSource(t *testing.T, src string) string {
	t.Helper()
	lx, err := lexer.New(strings.NewReader(src))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, NewXML(lx, &buf).CompileXML())
	return buf.String()
}

// TestXMLGoldenFixture compiles testdata/Main/Main.jack in --emit-xml
// mode and compares the emitted structural dump byte-for-byte against
// the checked-in golden file.
func TestXMLGoldenFixture(t *testing.T) {
	src, err := os.ReadFile("../../testdata/Main/Main.jack")
	require.NoError(t, err)
	want, err := os.ReadFile("../../testdata/Main/Main.xml")
	require.NoError(t, err)

	require.Equal(t, string(want), compileXMLSource(t, string(src)))
}

func TestXMLEscapesReservedCharacters(t *testing.T) {
	got := compileXMLSource(t, `class A {
		function void f() {
			do g("<a & b>");
			return;
		}
	}`)
	require.Contains(t, got, "<stringConstant> &lt;a &amp; b&gt; </stringConstant>")
}

func TestXMLExpressionWithArrayAndCall(t *testing.T) {
	got := compileXMLSource(t, `class A {
		function void f(Array a) {
			do Output.printInt(a[0]);
			return;
		}
	}`)

	require.Contains(t, got, "<identifier> a </identifier>")
	require.Contains(t, got, "<symbol> [ </symbol>")
	require.Contains(t, got, "<identifier> Output </identifier>")
	require.Contains(t, got, "<symbol> . </symbol>")
	require.Contains(t, got, "<identifier> printInt </identifier>")
	require.Contains(t, got, "<expressionList>")
}

func TestXMLRejectsMalformedSource(t *testing.T) {
	lx, err := lexer.New(strings.NewReader(`class A { function void f() { return }`))
	require.NoError(t, err)

	var buf strings.Builder
	require.Error(t, NewXML(lx, &buf).CompileXML())
}
