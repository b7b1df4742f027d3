package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eloc-dev/eloc/internal/diag"
	"github.com/eloc-dev/eloc/internal/ir"
	"github.com/eloc-dev/eloc/internal/lexer"
	"github.com/eloc-dev/eloc/internal/parser"
	"github.com/eloc-dev/eloc/internal/source"
)

func check(t *testing.T, text string) (*ir.Program, []*diag.Error) {
	t.Helper()
	file := source.New("test.elo", text)
	p := parser.New(file, lexer.New(file))
	prog := p.Parse()
	require.Empty(t, p.Errors, "program should parse cleanly")
	c := New(file)
	out := c.Check(prog)
	return out, c.Errors
}

func TestFunctionReturningIntWithReturnOnAllPaths(t *testing.T) {
	_, errs := check(t, `
fn abs(x: int): int {
	if x < 0 {
		return -x
	} else {
		return x
	}
}
`)
	require.Empty(t, errs)
}

func TestNoReturnOnMissingPath(t *testing.T) {
	_, errs := check(t, `
fn abs(x: int): int {
	if x < 0 {
		return -x
	}
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeNoReturn, errs[0].Code)
}

func TestAssignToImmutableLet(t *testing.T) {
	_, errs := check(t, `
fn f() {
	let x = 1
	x = 2
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeAssignImmutable, errs[0].Code)
}

func TestAssignToMutableVarOk(t *testing.T) {
	_, errs := check(t, `
fn f() {
	var x = 1
	x = 2
}
`)
	require.Empty(t, errs)
}

func TestUnmatchedArgumentsTooFew(t *testing.T) {
	_, errs := check(t, `
extern fn printf(fmt: *u8, ...): int

fn f() {
	printf()
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeUnmatchedArguments, errs[0].Code)
}

func TestVariadicExternAcceptsExtraArguments(t *testing.T) {
	_, errs := check(t, `
extern fn printf(fmt: *u8, ...): int

fn f() {
	printf("hi")
}
`)
	require.Empty(t, errs)
}

func TestAssignThroughMutablePointerIsLocatable(t *testing.T) {
	_, errs := check(t, `
fn set(p: *mut int) {
	*p = 5
}
`)
	require.Empty(t, errs)
}

func TestAssignThroughImmutablePointerFails(t *testing.T) {
	_, errs := check(t, `
fn set(p: *int) {
	*p = 5
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeAssignImmutable, errs[0].Code)
}

func TestUnresolvedNameReported(t *testing.T) {
	_, errs := check(t, `
fn f() {
	let x = y
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeUnresolvedName, errs[0].Code)
}

func TestTypeMismatchOnReturn(t *testing.T) {
	_, errs := check(t, `
fn f(): int {
	return true
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeMismatchedReturnType, errs[0].Code)
}

func TestRedefinitionInNestedScopeIsRejected(t *testing.T) {
	_, errs := check(t, `
fn f() {
	let x = 1
	if true {
		let x = 2
	}
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeVariableRedefinition, errs[0].Code)
}

func TestStructFieldAccessAndInit(t *testing.T) {
	_, errs := check(t, `
struct Point {
	x: int,
	y: int,
}

fn f(): int {
	let p = Point { x: 1, y: 2 }
	return p.x
}
`)
	require.Empty(t, errs)
}

func TestTupleMemberAccessOutOfRange(t *testing.T) {
	_, errs := check(t, `
fn f() {
	let t = (1, 2)
	let a = t.5
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeInvalidTupleMember, errs[0].Code)
}

func TestCastIntegerToInteger(t *testing.T) {
	_, errs := check(t, `
fn f() {
	let x = 1 as i8
}
`)
	require.Empty(t, errs)
}

func TestCastPointerToIntegerRejected(t *testing.T) {
	_, errs := check(t, `
fn f(p: *int) {
	let x = p as int
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeInvalidCast, errs[0].Code)
}

func TestPerTopLevelItemIsolation(t *testing.T) {
	_, errs := check(t, `
fn broken(): int {
	return true
}

fn ok(): int {
	return 1
}
`)
	require.Len(t, errs, 1)
	require.Equal(t, diag.CodeMismatchedReturnType, errs[0].Code)
}
