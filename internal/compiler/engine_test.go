package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anttrn/jackc/internal/lexer"
	"github.com/anttrn/jackc/internal/vmwriter"
)

func compileSource(t *testing.T, src string) []string {
	t.Helper()
	lx, err := lexer.New(strings.NewReader(src))
	require.NoError(t, err)

	var buf strings.Builder
	err = New(lx, vmwriter.New(&buf), nil).Compile()
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// containsSubsequence asserts that want appears contiguously inside got.
func containsSubsequence(t *testing.T, got, want []string) {
	t.Helper()
	for i := 0; i+len(want) <= len(got); i++ {
		if equalSlices(got[i:i+len(want)], want) {
			return
		}
	}
	t.Fatalf("subsequence\n%s\nnot found in\n%s", strings.Join(want, "\n"), strings.Join(got, "\n"))
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEmptyVoidMethod(t *testing.T) {
	lines := compileSource(t, `class A { method void m() { return; } }`)
	require.Equal(t, []string{
		"function A.m 0",
		"push argument 0",
		"pop pointer 0",
		"push constant 0",
		"return",
	}, lines)
}

func TestConstructorWithTwoFields(t *testing.T) {
	lines := compileSource(t, `class P { field int x, y; constructor P new(int a) { let x = a; return this; } }`)
	require.Equal(t, []string{
		"function P.new 0",
		"push constant 2",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push argument 0",
		"pop this 0",
		"push pointer 0",
		"return",
	}, lines)
}

func TestLeftToRightNoPrecedenceArithmetic(t *testing.T) {
	lines := compileSource(t, `class E { function void f() { do g(1 + 2 * 3); return; } function void g(int n) { return; } }`)
	containsSubsequence(t, lines, []string{
		"push constant 1",
		"push constant 2",
		"add",
		"push constant 3",
		"call Math.multiply 2",
	})
}

func TestWhileLoopWithLabels(t *testing.T) {
	lines := compileSource(t, `class C { method void m() { var int x; while (x < 5) { let x = x + 1; } return; } }`)
	containsSubsequence(t, lines, []string{
		"label WHILE_EXP_1",
		"push local 0",
		"push constant 5",
		"lt",
		"not",
		"if-goto WHILE_END_1",
		"push local 0",
		"push constant 1",
		"add",
		"pop local 0",
		"goto WHILE_EXP_1",
		"label WHILE_END_1",
	})
}

func TestIfElse(t *testing.T) {
	lines := compileSource(t, `class C2 {
		method void m(boolean x) {
			if (x) { do f(); } else { do g(); }
			return;
		}
		method void f() { return; }
		method void g() { return; }
	}`)
	containsSubsequence(t, lines, []string{
		"push argument 1",
		"if-goto IF_TRUE_1",
		"goto IF_FALSE_1",
		"label IF_TRUE_1",
		"push pointer 0",
		"call C2.f 1",
		"pop temp 0",
		"goto IF_END_1",
		"label IF_FALSE_1",
		"push pointer 0",
		"call C2.g 1",
		"pop temp 0",
		"label IF_END_1",
	})
}

func TestStringLiteral(t *testing.T) {
	lines := compileSource(t, `class Str { function void f() { return "hi"; } }`)
	require.Equal(t, []string{
		"function Str.f 0",
		"push constant 2",
		"call String.new 1",
		"push constant 104",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
		"return",
	}, lines)
}

func TestArrayOnArrayLetIsolatesAddressFromRHS(t *testing.T) {
	lines := compileSource(t, `class Arr {
		function void f(Array a, Array b, int i, int j) {
			let a[i] = b[j];
			return;
		}
	}`)
	containsSubsequence(t, lines, []string{
		"pop temp 0",
		"pop pointer 1",
		"push temp 0",
		"pop that 0",
	})
}

func TestMethodCallOnObjectReference(t *testing.T) {
	lines := compileSource(t, `class User {
		function void f(User u) {
			do u.greet();
			return;
		}
	}`)
	containsSubsequence(t, lines, []string{
		"push argument 0",
		"call User.greet 1",
		"pop temp 0",
	})
}

func TestFunctionCallOnClassName(t *testing.T) {
	lines := compileSource(t, `class Main {
		function void f() {
			do Output.printInt(1);
			return;
		}
	}`)
	containsSubsequence(t, lines, []string{
		"push constant 1",
		"call Output.printInt 1",
		"pop temp 0",
	})
}

func TestDuplicateSymbolFails(t *testing.T) {
	lx, err := lexer.New(strings.NewReader(`class D { field int x; field int x; }`))
	require.NoError(t, err)
	var buf strings.Builder
	err = New(lx, vmwriter.New(&buf), nil).Compile()
	require.Error(t, err)
}

func TestUndefinedNameFails(t *testing.T) {
	lx, err := lexer.New(strings.NewReader(`class D { function void f() { let x = 1; return; } }`))
	require.NoError(t, err)
	var buf strings.Builder
	err = New(lx, vmwriter.New(&buf), nil).Compile()
	require.Error(t, err)
}

func TestMissingSemicolonFails(t *testing.T) {
	lx, err := lexer.New(strings.NewReader(`class D { function void f() { return }}`))
	require.NoError(t, err)
	var buf strings.Builder
	err = New(lx, vmwriter.New(&buf), nil).Compile()
	require.Error(t, err)
}

func TestSymbolIndicesAreDenseAndMonotonic(t *testing.T) {
	lines := compileSource(t, `class Dense {
		field int a, b, c;
		method void m(int x, int y) {
			var int p, q;
			let p = x;
			let q = y;
			let c = q;
			return;
		}
	}`)
	require.Equal(t, []string{
		"function Dense.m 2",
		"push argument 0",
		"pop pointer 0",
		"push argument 1",
		"pop local 0",
		"push argument 2",
		"pop local 1",
		"push local 1",
		"pop this 2",
		"push constant 0",
		"return",
	}, lines)
}
