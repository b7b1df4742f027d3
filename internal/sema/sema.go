/*
Package sema implements the semantic analyzer: name resolution, type
checking with the Locatable/Immediate expression-identity distinction,
and control-flow return-completeness checking. It lowers an
ast.Program into a fully typed ir.Program, reporting a diag.Error per
malformed top-level item rather than aborting the whole file.
*/
package sema

import (
	"fmt"

	"github.com/eloc-dev/eloc/internal/ast"
	"github.com/eloc-dev/eloc/internal/diag"
	"github.com/eloc-dev/eloc/internal/ir"
	"github.com/eloc-dev/eloc/internal/span"
)

// identityKind tags whether an expression denotes storage (Locatable,
// with its own mutability) or only a computed value (Immediate) — the
// lvalue/rvalue analogue threaded through every expression check.
type identityKind int

const (
	immediate identityKind = iota
	locatable
)

type identity struct {
	kind    identityKind
	mutable bool
}

func immediateIdentity() identity          { return identity{kind: immediate} }
func locatableIdentity(mutable bool) identity { return identity{kind: locatable, mutable: mutable} }

func (id identity) isLocatable() bool { return id.kind == locatable }

func (id identity) String() string {
	if id.kind == immediate {
		return "immediate"
	}
	if id.mutable {
		return "mutable locatable"
	}
	return "immutable locatable"
}

// exprResult bundles a checked expression with its resolved type and
// identity, the three pieces of metadata every expression-checking
// path threads together.
type exprResult struct {
	Expr     ir.Expression
	Typing   ir.Typing
	Identity identity
}

// Checker walks an ast.Program and produces its checked ir.Program,
// accumulating one diag.Error per top-level item that fails to check
// rather than stopping at the first failure.
type Checker struct {
	file            span.File
	namespace       *ir.Namespace
	currentFunction string
	Errors          []*diag.Error
}

// New builds a Checker with an empty namespace, ready to check prog's
// top-level items in order.
func New(file span.File) *Checker {
	return &Checker{file: file, namespace: ir.NewNamespace(file.Name)}
}

func (c *Checker) fileSpan(s span.Span) span.FileSpan { return s.In(c.file) }

func (c *Checker) errorAt(kind diag.Kind, code diag.Code, sp span.Span, help string, format string, args ...any) *diag.Error {
	return &diag.Error{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    c.fileSpan(sp),
		Help:    help,
	}
}

func (c *Checker) typeErr(code diag.Code, sp span.Span, help, format string, args ...any) *diag.Error {
	return c.errorAt(diag.KindTypeCheck, code, sp, help, format, args...)
}

// --- Diagnostic constructors, message text grounded on semerror.rs ---------

func (c *Checker) errTypeMismatch(sp span.Span, got, expected ir.Typing) *diag.Error {
	return c.typeErr(diag.CodeTypeMismatch, sp, "", "type mismatch: expected %s but got %s", expected, got)
}

func (c *Checker) errInvalidExpression(sp span.Span, what, should string) *diag.Error {
	return c.typeErr(diag.CodeInvalidExpression, sp, "", "invalid expression: expression %s is expected to be %s", what, should)
}

func (c *Checker) errAssignImmutable(sp span.Span, expression string) *diag.Error {
	return c.typeErr(diag.CodeAssignImmutable, sp, "left-hand is immutable, but should be mutable to be assigned",
		"tried to assign to immutable expresion %s", expression)
}

func (c *Checker) errUnresolvedName(sp span.Span, name string) *diag.Error {
	return c.typeErr(diag.CodeUnresolvedName, sp, "", "unresolved name: could not find '%s' in the current scope", name)
}

func (c *Checker) errUnresolvedField(sp span.Span, name, from string) *diag.Error {
	return c.typeErr(diag.CodeUnresolvedField, sp, "", "%s has no field named '%s'", from, name)
}

func (c *Checker) errUnmatchedArguments(sp span.Span, function string, got, expected int, tooMuch bool) *diag.Error {
	if tooMuch {
		return c.typeErr(diag.CodeUnmatchedArguments, sp,
			fmt.Sprintf("function accepts %d argument(s) but got %d", expected, got),
			"too much arguments to function %s", function)
	}
	return c.typeErr(diag.CodeUnmatchedArguments, sp,
		fmt.Sprintf("function accepts %d argument(s) but got only %d", expected, got),
		"too few arguments to function call %s", function)
}

func (c *Checker) errIndexNonIndexable(sp span.Span, thing string, got ir.Typing) *diag.Error {
	return c.typeErr(diag.CodeIndexNonIndexable, sp,
		fmt.Sprintf("type %s cannot be used with subscript syntax", got),
		"attempt to index %s, of type %s, but it is not indexable", thing, got)
}

func (c *Checker) errCallNonFunction(sp span.Span, typ string) *diag.Error {
	return c.typeErr(diag.CodeCallNonFunction, sp, "", "attempt to call non-function type %s", typ)
}

func (c *Checker) errNonAggregateFieldAccess(sp span.Span, typ ir.Typing, field string) *diag.Error {
	return c.typeErr(diag.CodeNonAggregateFieldAcc, sp,
		fmt.Sprintf("you can't get fields from %s", typ),
		"attempt to access field %s from non-aggregate type %s", field, typ)
}

func (c *Checker) errNonTupleMemberAccess(sp span.Span, thing string, typ ir.Typing) *diag.Error {
	return c.typeErr(diag.CodeNonTupleMemberAccess, sp,
		fmt.Sprintf("expected a tuple here, but got %s", typ),
		"attempt to access member from non-tuple value %s", thing)
}

func (c *Checker) errInvalidTupleMember(sp span.Span, member int, tuple ir.Typing, memberCount int) *diag.Error {
	return c.typeErr(diag.CodeInvalidTupleMember, sp,
		fmt.Sprintf("this tuple only contains only %d member(s) but used %d", memberCount, member),
		"attempt to acess tuple member %d on %s", member, tuple)
}

func (c *Checker) errVariableRedefinition(sp span.Span, name string) *diag.Error {
	return c.typeErr(diag.CodeVariableRedefinition, sp, "", "attempt to define already defined variable %s", name)
}

func (c *Checker) errMisplacedReturn(sp span.Span) *diag.Error {
	return c.typeErr(diag.CodeMisplacedReturn, sp, "", "attempt to use return statement outside of function block")
}

func (c *Checker) errReturnValueOnVoidFunction(sp span.Span, function string) *diag.Error {
	return c.typeErr(diag.CodeReturnValueOnVoidFn, sp, "this return should not have a value",
		"tried to return value out of function %s that doesn't return anything", function)
}

func (c *Checker) errMismatchedReturnType(sp span.Span, function string, got, expected ir.Typing) *diag.Error {
	return c.typeErr(diag.CodeMismatchedReturnType, sp,
		fmt.Sprintf("the value of this return should be of type %s", expected),
		"return type of %s is expected to be %s but got %s", function, expected, got)
}

func (c *Checker) errNoReturn(sp span.Span, function string, returns ir.Typing) *diag.Error {
	return c.errorAt(diag.KindControlFlow, diag.CodeNoReturn, sp,
		fmt.Sprintf("ensure that the function returns %s after this", returns),
		"found path of %s (which returns %s) that doesn't return a value", function, returns)
}

// --- Types -------------------------------------------------------------

// checkType resolves a surface type production into a fully-checked
// Typing: primitive names, previously declared structs/enums,
// pointers, and tuples. Array and function type productions are
// resolved the same way, extending the reference checker (whose
// check_type only handles Named/Pointer/Tuple and leaves the rest
// todo!()).
func (c *Checker) checkType(t ast.Typ) (ir.Typing, error) {
	switch typ := t.(type) {
	case *ast.NamedType:
		if p, ok := ir.PrimitiveFromName(typ.Name); ok {
			return ir.PrimitiveTyping(p), nil
		}
		if e, ok := c.namespace.Enums[typ.Name]; ok {
			return ir.EnumTyping(e), nil
		}
		if s, ok := c.namespace.Structs[typ.Name]; ok {
			return ir.StructTyping(s), nil
		}
		return ir.Typing{}, c.errUnresolvedName(ast.TypSpan(t), typ.Name)
	case *ast.PointerType:
		inner, err := c.checkType(typ.Elem)
		if err != nil {
			return ir.Typing{}, err
		}
		return ir.PointerTyping(typ.Mutable, inner), nil
	case *ast.TupleType:
		types := make([]ir.Typing, len(typ.Types))
		for i, tt := range typ.Types {
			checked, err := c.checkType(tt)
			if err != nil {
				return ir.Typing{}, err
			}
			types[i] = checked
		}
		return ir.TupleTyping(types), nil
	case *ast.ArrayType:
		elem, err := c.checkType(typ.Elem)
		if err != nil {
			return ir.Typing{}, err
		}
		return ir.ArrayTyping(elem, typ.Amount), nil
	case *ast.FunctionType:
		args := make([]ir.Typing, len(typ.Args))
		for i, a := range typ.Args {
			checked, err := c.checkType(a)
			if err != nil {
				return ir.Typing{}, err
			}
			args[i] = checked
		}
		ret := ir.Void
		if typ.Ret != nil {
			r, err := c.checkType(typ.Ret)
			if err != nil {
				return ir.Typing{}, err
			}
			ret = r
		}
		return ir.FunctionTyping(ret, args, false, false), nil
	default:
		return ir.Typing{}, c.errInvalidExpression(ast.TypSpan(t), "type", "a resolvable type")
	}
}

// checkOptionalType resolves t, defaulting to Void when t is nil (the
// "no `: Type`" case for function returns).
func (c *Checker) checkOptionalType(t ast.Typ) (ir.Typing, error) {
	if t == nil {
		return ir.Void, nil
	}
	return c.checkType(t)
}

// --- Expressions ---------------------------------------------------------

func (c *Checker) typecheckBinop(lhs, rhs exprResult, op ast.BinaryOp, sp span.Span) (ir.BinaryOp, ir.Typing, identity, error) {
	irOp := ir.BinaryOpFromAST(op)

	if irOp.IsAssignment() {
		switch lhs.Identity.kind {
		case locatable:
			if !lhs.Identity.mutable {
				return 0, ir.Typing{}, identity{}, c.errAssignImmutable(sp, lhs.Expr.String())
			}
		case immediate:
			return 0, ir.Typing{}, identity{}, c.errInvalidExpression(sp, lhs.Expr.String(), "valid left-hand-side operand")
		}
		if !rhs.Typing.Equal(lhs.Typing) {
			return 0, ir.Typing{}, identity{}, c.errTypeMismatch(sp, rhs.Typing, lhs.Typing)
		}
		return irOp, ir.Void, immediateIdentity(), nil
	}

	if !rhs.Typing.Equal(lhs.Typing) {
		return 0, ir.Typing{}, identity{}, c.errTypeMismatch(sp, rhs.Typing, lhs.Typing)
	}

	switch irOp {
	case ir.Add, ir.Sub, ir.Mul, ir.Div, ir.Mod, ir.BAnd, ir.BOr, ir.BXor, ir.LShift, ir.RShift:
		return irOp, lhs.Typing, immediateIdentity(), nil
	case ir.Eq, ir.Ne, ir.Lt, ir.Le, ir.Gt, ir.Ge, ir.And, ir.Or:
		return irOp, ir.PrimitiveTyping(ir.Bool), immediateIdentity(), nil
	default:
		return irOp, lhs.Typing, immediateIdentity(), nil
	}
}

func (c *Checker) typecheckFunctionCall(name string, arguments []ast.Expr, sp span.Span) (exprResult, error) {
	function, ok := c.namespace.Functions[name]
	if !ok {
		return exprResult{}, c.errUnresolvedName(sp, name)
	}

	passedLen := len(arguments)
	expectedLen := len(function.Arguments)
	if passedLen < expectedLen {
		return exprResult{}, c.errUnmatchedArguments(sp, name, passedLen, expectedLen, false)
	}
	if passedLen > expectedLen && !function.Variadic {
		return exprResult{}, c.errUnmatchedArguments(sp, name, passedLen, expectedLen, true)
	}

	checked := make([]ir.Expression, 0, passedLen)
	for i := 0; i < expectedLen; i++ {
		res, err := c.typecheckExpr(arguments[i])
		if err != nil {
			return exprResult{}, err
		}
		expected := function.Arguments[i].Typing
		if !res.Typing.Equal(expected) {
			return exprResult{}, c.errTypeMismatch(ast.Span(arguments[i]), res.Typing, expected)
		}
		checked = append(checked, res.Expr)
	}
	for _, extra := range arguments[expectedLen:] {
		res, err := c.typecheckExpr(extra)
		if err != nil {
			return exprResult{}, err
		}
		checked = append(checked, res.Expr)
	}

	return exprResult{
		Expr: ir.Expression{
			Span: sp,
			Data: ir.ExpressionData{
				Kind:      ir.ExprFunctionCall,
				Function:  &ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprIdentifier, Text: name}},
				Arguments: checked,
				Extrn:     function.Extrn,
			},
		},
		Typing:   function.Ret,
		Identity: immediateIdentity(),
	}, nil
}

func (c *Checker) typecheckExpr(e ast.Expr) (exprResult, error) {
	sp := ast.Span(e)
	switch expr := e.(type) {
	case *ast.BinaryExpr:
		lhs, err := c.typecheckExpr(expr.Left)
		if err != nil {
			return exprResult{}, err
		}
		rhs, err := c.typecheckExpr(expr.Right)
		if err != nil {
			return exprResult{}, err
		}
		op, typing, id, err := c.typecheckBinop(lhs, rhs, expr.Operator, sp)
		if err != nil {
			return exprResult{}, err
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprBinaryOp, BinOp: op, Left: &lhs.Expr, Right: &rhs.Expr}},
			Typing:   typing,
			Identity: id,
		}, nil

	case *ast.UnaryExpr:
		operand, err := c.typecheckExpr(expr.Operand)
		if err != nil {
			return exprResult{}, err
		}
		op := ir.UnaryOpFromAST(expr.Operator)
		var typing ir.Typing
		var id identity
		switch op {
		case ir.Addr:
			if !operand.Identity.isLocatable() {
				return exprResult{}, c.errInvalidExpression(sp, operand.Expr.String(), "valid value to reference")
			}
			typing = ir.PointerTyping(operand.Identity.mutable, operand.Typing)
			id = immediateIdentity()
		case ir.Neg, ir.Not, ir.BNot:
			typing = operand.Typing
			id = immediateIdentity()
		case ir.Deref:
			if operand.Identity.kind == immediate {
				return exprResult{}, c.errInvalidExpression(sp, operand.Expr.String(), "valid value to dereference")
			}
			if operand.Typing.Kind() != ir.KindPointer {
				return exprResult{}, c.typeErr(diag.CodeTypeMismatch, sp, "", "type mismatch: expected %s but got %s", "pointer", operand.Typing)
			}
			typing = *operand.Typing.Elem
			id = locatableIdentity(operand.Typing.Mutable)
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprUnaryOp, UnOp: op, Operand: &operand.Expr}},
			Typing:   typing,
			Identity: id,
		}, nil

	case *ast.CharacterLiteralExpr:
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprCharLiteral, Char: expr.Value}},
			Typing:   ir.PrimitiveTyping(ir.Char),
			Identity: immediateIdentity(),
		}, nil

	case *ast.StrLiteralExpr:
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprStringLiteral, Text: expr.Value}},
			Typing:   ir.PointerTyping(false, ir.PrimitiveTyping(ir.U8)),
			Identity: immediateIdentity(),
		}, nil

	case *ast.StringLiteralExpr:
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprStringLiteral, Text: expr.Value}},
			Typing:   ir.PointerTyping(false, ir.PrimitiveTyping(ir.U8)),
			Identity: immediateIdentity(),
		}, nil

	case *ast.TupleExpr:
		checked := make([]ir.Expression, len(expr.Exprs))
		types := make([]ir.Typing, len(expr.Exprs))
		for i, sub := range expr.Exprs {
			res, err := c.typecheckExpr(sub)
			if err != nil {
				return exprResult{}, err
			}
			checked[i] = res.Expr
			types[i] = res.Typing
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprTuple, Exprs: checked, Types: types}},
			Typing:   ir.TupleTyping(types),
			Identity: immediateIdentity(),
		}, nil

	case *ast.ArrayExpr:
		checked := make([]ir.Expression, len(expr.Exprs))
		var elemType *ir.Typing
		for i, sub := range expr.Exprs {
			res, err := c.typecheckExpr(sub)
			if err != nil {
				return exprResult{}, err
			}
			if elemType != nil && !elemType.Equal(res.Typing) {
				return exprResult{}, c.errTypeMismatch(ast.Span(sub), res.Typing, *elemType)
			}
			if elemType == nil {
				t := res.Typing
				elemType = &t
			}
			checked[i] = res.Expr
		}
		if elemType == nil {
			elemType = &ir.Typing{}
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprArrayLiteral, Elems: checked, ElemType: elemType}},
			Typing:   ir.ArrayTyping(*elemType, expr.Amount),
			Identity: immediateIdentity(),
		}, nil

	case *ast.TupleAccessExpr:
		origin, err := c.typecheckExpr(expr.Origin)
		if err != nil {
			return exprResult{}, err
		}
		if origin.Typing.Kind() != ir.KindTuple {
			return exprResult{}, c.errNonTupleMemberAccess(sp, origin.Expr.String(), origin.Typing)
		}
		if expr.Field >= len(origin.Typing.Types) {
			return exprResult{}, c.errInvalidTupleMember(sp, expr.Field, origin.Typing, len(origin.Typing.Types))
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprTupleAccess, Origin: &origin.Expr, Tuple: expr.Field}},
			Typing:   origin.Typing.Types[expr.Field],
			Identity: origin.Identity,
		}, nil

	case *ast.SubscriptExpr:
		origin, err := c.typecheckExpr(expr.Origin)
		if err != nil {
			return exprResult{}, err
		}
		inner, err := c.typecheckExpr(expr.Inner)
		if err != nil {
			return exprResult{}, err
		}
		if origin.Typing.Kind() != ir.KindArray {
			return exprResult{}, c.errIndexNonIndexable(ast.Span(expr.Origin), origin.Expr.String(), origin.Typing)
		}
		if !inner.Typing.IsInteger() {
			return exprResult{}, c.typeErr(diag.CodeTypeMismatch, ast.Span(expr.Inner), "", "type mismatch: expected %s but got %s", "integer type", inner.Typing)
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprArraySubscript, Origin: &origin.Expr, Index: &inner.Expr}},
			Typing:   *origin.Typing.Elem,
			Identity: origin.Identity,
		}, nil

	case *ast.FieldAccessExpr:
		origin, err := c.typecheckExpr(expr.Origin)
		if err != nil {
			return exprResult{}, err
		}
		if !origin.Identity.isLocatable() {
			return exprResult{}, c.errInvalidExpression(ast.Span(expr.Origin), origin.Identity.String()+" expression", "locatable expression")
		}
		if origin.Typing.Kind() != ir.KindStruct {
			return exprResult{}, c.errNonAggregateFieldAccess(ast.Span(expr.Origin), origin.Typing, expr.Field)
		}
		fieldTyp, ok := origin.Typing.Struct.Fields[expr.Field]
		if !ok {
			return exprResult{}, c.errUnresolvedField(sp, expr.Field, "struct "+origin.Typing.Struct.Name)
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprFieldAccess, Origin: &origin.Expr, Field: expr.Field}},
			Typing:   fieldTyp,
			Identity: origin.Identity,
		}, nil

	case *ast.FunctionCallExpr:
		if ident, ok := expr.Function.(*ast.IdentifierExpr); ok {
			if _, isFn := c.namespace.Functions[ident.Name]; isFn {
				return c.typecheckFunctionCall(ident.Name, expr.Arguments, ast.Span(expr.Function))
			}
		}
		callee, err := c.typecheckExpr(expr.Function)
		if err != nil {
			return exprResult{}, err
		}
		return exprResult{}, c.errCallNonFunction(ast.Span(expr.Function), callee.Typing.String())

	case *ast.StructInitExpr:
		strukt, ok := c.namespace.Structs[expr.Name]
		if !ok {
			return exprResult{}, c.errUnresolvedName(sp, expr.Name)
		}
		checkedFields := make([]ir.Field, 0, len(expr.Fields))
		for _, f := range expr.Fields {
			expected, ok := strukt.Fields[f.Name]
			if !ok {
				return exprResult{}, c.errUnresolvedField(sp, f.Name, "struct "+strukt.Name)
			}
			res, err := c.typecheckExpr(f.Value)
			if err != nil {
				return exprResult{}, err
			}
			if !res.Typing.Equal(expected) {
				return exprResult{}, c.errTypeMismatch(ast.Span(f.Value), res.Typing, expected)
			}
			checkedFields = append(checkedFields, ir.Field{Name: f.Name, Value: res.Expr})
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprStructInit, StructOrigin: strukt, Fields: checkedFields}},
			Typing:   ir.StructTyping(strukt),
			Identity: immediateIdentity(),
		}, nil

	case *ast.IntegerLiteralExpr:
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprInteger, Int: expr.Value}},
			Typing:   ir.PrimitiveTyping(ir.Int),
			Identity: immediateIdentity(),
		}, nil

	case *ast.FloatLiteralExpr:
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprFloat, Flt: expr.Value}},
			Typing:   ir.PrimitiveTyping(ir.Float),
			Identity: immediateIdentity(),
		}, nil

	case *ast.BooleanLiteralExpr:
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprBool, Bln: expr.Value}},
			Typing:   ir.PrimitiveTyping(ir.Bool),
			Identity: immediateIdentity(),
		}, nil

	case *ast.CastExpr:
		origin, err := c.typecheckExpr(expr.Origin)
		if err != nil {
			return exprResult{}, err
		}
		target, err := c.checkType(expr.Typing)
		if err != nil {
			return exprResult{}, err
		}
		ok := (origin.Typing.IsInteger() && target.IsInteger()) ||
			(origin.Typing.IsFloat() && target.IsFloat()) ||
			(origin.Typing.Kind() == ir.KindPointer && target.Kind() == ir.KindPointer)
		if !ok {
			return exprResult{}, c.typeErr(diag.CodeInvalidCast, sp, "", "invalid cast from %s to %s", origin.Typing, target)
		}
		return exprResult{
			Expr:     ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprCast, Origin: &origin.Expr, Cast: &target}},
			Typing:   target,
			Identity: immediateIdentity(),
		}, nil

	case *ast.IdentifierExpr:
		thing := ir.Expression{Span: sp, Data: ir.ExpressionData{Kind: ir.ExprIdentifier, Text: expr.Name}}
		if t, ok := c.namespace.Constants[expr.Name]; ok {
			return exprResult{Expr: thing, Typing: t, Identity: immediateIdentity()}, nil
		}
		if f, ok := c.namespace.Functions[expr.Name]; ok {
			return exprResult{Expr: thing, Typing: f.Ret, Identity: immediateIdentity()}, nil
		}
		for i := len(c.namespace.Locals) - 1; i >= 0; i-- {
			if v, ok := c.namespace.Locals[i][expr.Name]; ok {
				return exprResult{Expr: thing, Typing: v.Typing, Identity: locatableIdentity(v.Mutable)}, nil
			}
		}
		return exprResult{}, c.errUnresolvedName(sp, expr.Name)

	default:
		return exprResult{}, c.errInvalidExpression(sp, "expression", "a recognised form")
	}
}

// --- Statements and blocks -----------------------------------------------

// typecheckBlock checks a nested block (if/while body), pushing and
// popping its own scope.
func (c *Checker) typecheckBlock(block ast.Block, expectsReturn *ir.Typing) (ir.Block, error) {
	c.namespace.PushScope()
	defer c.namespace.PopScope()

	out := make(ir.Block, 0, len(block.Content))
	for _, node := range block.Content {
		stmt, err := c.typecheckNode(node, expectsReturn)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

// typecheckFunctionBlock checks a function body in a fresh scope
// pre-populated with its arguments.
func (c *Checker) typecheckFunctionBlock(block ast.Block, returnType ir.Typing, functionName string, arguments ir.Scope) (ir.Block, error) {
	c.currentFunction = functionName
	c.namespace.Locals = append(c.namespace.Locals, arguments)
	defer func() { c.namespace.PopScope() }()

	out := make(ir.Block, 0, len(block.Content))
	for _, node := range block.Content {
		stmt, err := c.typecheckNode(node, &returnType)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

// controlcheckInnerFunctionBlock walks block looking for a return
// statement on every path; it recurses into if/else arms (while never
// contributes, since the loop body may run zero times). isTopLevel
// gates the final NoReturn diagnostic so only the function's outer
// block is required to fully cover, not every nested if.
func (c *Checker) controlcheckInnerFunctionBlock(sp span.Span, block ir.Block, isTopLevel bool, functionName string, returnType ir.Typing) (bool, span.Span, error) {
	lastSpan := sp
	for _, stmt := range block {
		lastSpan = stmt.Span
		switch stmt.Data.Kind {
		case ir.StmtReturn:
			return true, stmt.Span, nil
		case ir.StmtIf:
			a, s1, err := c.controlcheckInnerFunctionBlock(sp, stmt.Data.BlockTrue, false, functionName, returnType)
			if err != nil {
				return false, span.Span{}, err
			}
			b, s2, err := c.controlcheckInnerFunctionBlock(sp, stmt.Data.BlockFalse, false, functionName, returnType)
			if err != nil {
				return false, span.Span{}, err
			}
			if a && b {
				return true, s2, nil
			}
			if a {
				lastSpan = s2
			} else {
				lastSpan = s1
			}
		}
	}
	if isTopLevel && returnType.Kind() != ir.KindVoid {
		return false, span.Span{}, c.errNoReturn(lastSpan, functionName, returnType)
	}
	return false, lastSpan, nil
}

func (c *Checker) controlcheckFunctionBlock(sp span.Span, block ir.Block, functionName string, returnType ir.Typing) error {
	_, _, err := c.controlcheckInnerFunctionBlock(sp, block, true, functionName, returnType)
	return err
}

// typecheckNode checks one statement. expectsReturn is nil outside
// any function body; a non-nil pointer carries the enclosing
// function's declared return type so `return` statements can be
// checked against it.
func (c *Checker) typecheckNode(node ast.Node, expectsReturn *ir.Typing) (ir.Statement, error) {
	switch stmt := node.Stmt.(type) {
	case *ast.LetStmt:
		if c.namespace.DeclaredInActiveScopes(stmt.Binding) {
			return ir.Statement{}, c.errVariableRedefinition(node.Span, stmt.Binding)
		}
		res, err := c.typecheckExpr(stmt.Assignment)
		if err != nil {
			return ir.Statement{}, err
		}
		c.namespace.Declare(stmt.Binding, ir.Variable{Mutable: false, Typing: res.Typing})
		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtVariable, Binding: stmt.Binding, Assignment: res.Expr, Typing: res.Typing},
		}, nil

	case *ast.VarStmt:
		if c.namespace.DeclaredInActiveScopes(stmt.Binding) {
			return ir.Statement{}, c.errVariableRedefinition(node.Span, stmt.Binding)
		}
		res, err := c.typecheckExpr(stmt.Assignment)
		if err != nil {
			return ir.Statement{}, err
		}
		c.namespace.Declare(stmt.Binding, ir.Variable{Mutable: true, Typing: res.Typing})
		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtVariable, Binding: stmt.Binding, Assignment: res.Expr, Typing: res.Typing},
		}, nil

	case *ast.ConstStmt:
		res, err := c.typecheckExpr(stmt.Assignment)
		if err != nil {
			return ir.Statement{}, err
		}
		annotated, err := c.checkType(stmt.Typing)
		if err != nil {
			return ir.Statement{}, err
		}
		if !annotated.Equal(res.Typing) {
			return ir.Statement{}, c.errTypeMismatch(ast.TypSpan(stmt.Typing), res.Typing, annotated)
		}
		c.namespace.Constants[stmt.Binding] = res.Typing
		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtConstant, Binding: stmt.Binding, Assignment: res.Expr, Typing: res.Typing},
		}, nil

	case *ast.ReturnStmt:
		if expectsReturn == nil && stmt.Expr != nil {
			return ir.Statement{}, c.errMisplacedReturn(node.Span)
		}
		if stmt.Expr == nil {
			return ir.Statement{
				Span: node.Span,
				Data: ir.StatementData{Kind: ir.StmtReturn, Value: nil, RetTyp: ir.Void},
			}, nil
		}
		res, err := c.typecheckExpr(stmt.Expr)
		if err != nil {
			return ir.Statement{}, err
		}
		if !res.Typing.Equal(*expectsReturn) {
			if expectsReturn.Kind() == ir.KindVoid {
				return ir.Statement{}, c.errReturnValueOnVoidFunction(node.Span, c.currentFunction)
			}
			return ir.Statement{}, c.errMismatchedReturnType(node.Span, c.currentFunction, res.Typing, *expectsReturn)
		}
		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtReturn, Value: &res.Expr, RetTyp: res.Typing},
		}, nil

	case *ast.FnStmt:
		validatedArgs := make([]ir.TypedField, len(stmt.Arguments))
		for i, a := range stmt.Arguments {
			t, err := c.checkType(a.Typing)
			if err != nil {
				return ir.Statement{}, err
			}
			validatedArgs[i] = ir.TypedField{Name: a.Name, Typing: t}
		}
		retType, err := c.checkOptionalType(stmt.Ret)
		if err != nil {
			return ir.Statement{}, err
		}

		scope := make(ir.Scope, len(validatedArgs))
		for _, a := range validatedArgs {
			mutable := a.Typing.Kind() == ir.KindPointer && a.Typing.Mutable
			scope[a.Name] = ir.Variable{Mutable: mutable, Typing: a.Typing}
		}

		head := ir.FunctionHead{Name: stmt.Name, Ret: retType, Arguments: validatedArgs, Variadic: false, Extrn: false}
		c.namespace.Functions[stmt.Name] = head

		block, err := c.typecheckFunctionBlock(stmt.Block, retType, stmt.Name, scope)
		if err != nil {
			return ir.Statement{}, err
		}
		if err := c.controlcheckFunctionBlock(node.Span, block, stmt.Name, retType); err != nil {
			return ir.Statement{}, err
		}

		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtFn, Function: ir.Function{Head: head, Block: block}},
		}, nil

	case *ast.ExternFnStmt:
		validatedArgs := make([]ir.TypedField, len(stmt.Arguments))
		for i, a := range stmt.Arguments {
			t, err := c.checkType(a.Typing)
			if err != nil {
				return ir.Statement{}, err
			}
			validatedArgs[i] = ir.TypedField{Name: a.Name, Typing: t}
		}
		retType, err := c.checkOptionalType(stmt.Ret)
		if err != nil {
			return ir.Statement{}, err
		}
		head := ir.FunctionHead{Name: stmt.Name, Ret: retType, Arguments: validatedArgs, Variadic: stmt.Variadic, Extrn: true}
		c.namespace.Functions[stmt.Name] = head
		return ir.Statement{Span: node.Span, Data: ir.StatementData{Kind: ir.StmtExternFn, Head: head}}, nil

	case *ast.StructStmt:
		fields := make(map[string]ir.Typing, len(stmt.Fields))
		for _, f := range stmt.Fields {
			t, err := c.checkType(f.Typing)
			if err != nil {
				return ir.Statement{}, err
			}
			fields[f.Name] = t
		}
		st := ir.Struct{Name: stmt.Name, Fields: fields}
		c.namespace.Structs[st.Name] = st
		return ir.Statement{Span: node.Span, Data: ir.StatementData{Kind: ir.StmtStruct, StructDecl: st}}, nil

	case *ast.EnumStmt:
		en := ir.Enum{Name: stmt.Name, Variants: stmt.Variants}
		c.namespace.Enums[en.Name] = en
		return ir.Statement{Span: node.Span, Data: ir.StatementData{Kind: ir.StmtEnum, EnumDecl: en}}, nil

	case *ast.IfStmt:
		cond, err := c.typecheckExpr(stmt.Condition)
		if err != nil {
			return ir.Statement{}, err
		}
		if !cond.Typing.Equal(ir.PrimitiveTyping(ir.Bool)) {
			return ir.Statement{}, c.errTypeMismatch(ast.Span(stmt.Condition), cond.Typing, ir.PrimitiveTyping(ir.Bool))
		}
		blockTrue, err := c.typecheckBlock(stmt.BlockTrue, expectsReturn)
		if err != nil {
			return ir.Statement{}, err
		}
		var blockFalse ir.Block
		if stmt.BlockFalse != nil {
			blockFalse, err = c.typecheckBlock(*stmt.BlockFalse, expectsReturn)
			if err != nil {
				return ir.Statement{}, err
			}
		}
		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtIf, Condition: cond.Expr, BlockTrue: blockTrue, BlockFalse: blockFalse},
		}, nil

	case *ast.WhileStmt:
		cond, err := c.typecheckExpr(stmt.Condition)
		if err != nil {
			return ir.Statement{}, err
		}
		if !cond.Typing.Equal(ir.PrimitiveTyping(ir.Bool)) {
			return ir.Statement{}, c.errTypeMismatch(ast.Span(stmt.Condition), cond.Typing, ir.PrimitiveTyping(ir.Bool))
		}
		block, err := c.typecheckBlock(stmt.Block, expectsReturn)
		if err != nil {
			return ir.Statement{}, err
		}
		return ir.Statement{
			Span: node.Span,
			Data: ir.StatementData{Kind: ir.StmtWhile, Condition: cond.Expr, Block: block},
		}, nil

	case *ast.ExpressionStmt:
		res, err := c.typecheckExpr(stmt.Expr)
		if err != nil {
			return ir.Statement{}, err
		}
		return ir.Statement{Span: node.Span, Data: ir.StatementData{Kind: ir.StmtExpression, Expr: res.Expr}}, nil

	default:
		return ir.Statement{}, c.errInvalidExpression(node.Span, "statement", "a recognised form")
	}
}

// CheckOne checks a single top-level item against the checker's
// persistent namespace, for drivers (the REPL) that check one item at
// a time instead of a whole ast.Program.
func (c *Checker) CheckOne(node ast.Node) (ir.Statement, *diag.Error) {
	stmt, err := c.typecheckNode(node, nil)
	if err != nil {
		if de, ok := err.(*diag.Error); ok {
			return ir.Statement{}, de
		}
		return ir.Statement{}, &diag.Error{Kind: diag.KindTypeCheck, Message: err.Error()}
	}
	return stmt, nil
}

// Check lowers prog into a fully typed ir.Program. Each top-level
// item is checked independently: on error, that item is dropped from
// the output and its diag.Error is recorded on c.Errors, and analysis
// resumes with the next item.
func (c *Checker) Check(prog *ast.Program) *ir.Program {
	out := &ir.Program{Filename: prog.Filename}
	for _, node := range prog.Nodes {
		stmt, err := c.CheckOne(node)
		if err != nil {
			c.Errors = append(c.Errors, err)
			continue
		}
		out.Nodes = append(out.Nodes, stmt)
	}
	return out
}
