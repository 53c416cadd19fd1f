package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesKeywordOrSymbolTerminal(t *testing.T) {
	tok := Token{Type: KeywordType, Terminal: "if"}
	require.True(t, tok.Is("if", "while"))
	require.False(t, tok.Is("else"))
}

func TestIsFalseForNonKeywordSymbolTypes(t *testing.T) {
	tok := Token{Type: IdentifierType, Terminal: "if"}
	require.False(t, tok.Is("if"))
}

func TestIsBinaryAndUnaryOp(t *testing.T) {
	minus := Token{Type: SymbolType, Terminal: "-"}
	require.True(t, minus.IsBinaryOp())
	require.True(t, minus.IsUnaryOp())

	star := Token{Type: SymbolType, Terminal: "*"}
	require.True(t, star.IsBinaryOp())
	require.False(t, star.IsUnaryOp())

	tilde := Token{Type: SymbolType, Terminal: "~"}
	require.False(t, tilde.IsBinaryOp())
	require.True(t, tilde.IsUnaryOp())
}

func TestKeywordsAndSymbolsAreClosedSets(t *testing.T) {
	require.Len(t, Keywords, 21)
	require.Len(t, Symbols, 19)
}
