package vmwriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterEmitsExpectedLines(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)

	w.Push(Constant, 2)
	w.Pop(Local, 1)
	w.Arithmetic(Add)
	w.Label("L1")
	w.Goto("L1")
	w.IfGoto("L2")
	w.Call("Math.multiply", 2)
	w.Function("Foo.bar", 3)
	w.Return()

	want := strings.Join([]string{
		"push constant 2",
		"pop local 1",
		"add",
		"label L1",
		"goto L1",
		"if-goto L2",
		"call Math.multiply 2",
		"function Foo.bar 3",
		"return",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

func TestPushRejectsInvalidSegment(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)
	require.Panics(t, func() { w.Push(Segment("bogus"), 0) })
}

func TestPopRejectsConstantSegment(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)
	require.Panics(t, func() { w.Pop(Constant, 0) })
}

func TestArithmeticRejectsUnknownCommand(t *testing.T) {
	var buf strings.Builder
	w := New(&buf)
	require.Panics(t, func() { w.Arithmetic(Command("xor")) })
}
