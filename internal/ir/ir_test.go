package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eloc-dev/eloc/internal/ast"
)

func TestPrimitiveFromName(t *testing.T) {
	p, ok := PrimitiveFromName("i32")
	require.True(t, ok)
	require.Equal(t, I32, p)

	_, ok = PrimitiveFromName("widget")
	require.False(t, ok)
}

func TestTypingEqual(t *testing.T) {
	a := PointerTyping(true, PrimitiveTyping(I32))
	b := PointerTyping(true, PrimitiveTyping(I32))
	c := PointerTyping(false, PrimitiveTyping(I32))
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestTypingString(t *testing.T) {
	require.Equal(t, "i32", PrimitiveTyping(I32).String())
	require.Equal(t, "*mut i32", PointerTyping(true, PrimitiveTyping(I32)).String())
	require.Equal(t, "{i32; 4}", ArrayTyping(PrimitiveTyping(I32), 4).String())
	require.Equal(t, "(i32, bool)", TupleTyping([]Typing{PrimitiveTyping(I32), PrimitiveTyping(Bool)}).String())
}

func TestBinaryOpFromAST(t *testing.T) {
	require.Equal(t, AssignAdd, BinaryOpFromAST(ast.OpAssignAdd))
	require.Equal(t, "+=", AssignAdd.String())
}

func TestNamespaceScopeResolution(t *testing.T) {
	ns := NewNamespace("test")
	ns.PushScope()
	ns.Declare("x", Variable{Mutable: true, Typing: PrimitiveTyping(I32)})
	require.True(t, ns.DeclaredInCurrentScope("x"))

	v, ok := ns.Resolve("x")
	require.True(t, ok)
	require.True(t, v.Mutable)

	ns.PushScope()
	require.False(t, ns.DeclaredInCurrentScope("x"))
	_, ok = ns.Resolve("x")
	require.True(t, ok, "resolve should see outer scopes")
	ns.PopScope()
	ns.PopScope()
}
