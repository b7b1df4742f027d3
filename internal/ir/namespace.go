package ir

// Variable is a name bound in a scope: its mutability and checked
// type. Function arguments of pointer-to-mut type are bound mutable;
// let-bindings are always immutable; var-bindings are always mutable.
type Variable struct {
	Mutable bool
	Typing  Typing
}

// Scope is one block's worth of local bindings.
type Scope map[string]Variable

// Namespace is the whole-program name-resolution environment: the
// top-level declarations, inserted in file order as each is checked (a
// function before its own body), plus the stack of block scopes active
// while checking the current function's body.
type Namespace struct {
	Name      string
	Constants map[string]Typing
	Structs   map[string]Struct
	Enums     map[string]Enum
	Functions map[string]FunctionHead
	Locals    []Scope
}

// NewNamespace builds an empty Namespace ready to have top-level
// declarations inserted into it.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		Name:      name,
		Constants: make(map[string]Typing),
		Structs:   make(map[string]Struct),
		Enums:     make(map[string]Enum),
		Functions: make(map[string]FunctionHead),
	}
}

// PushScope opens a new innermost block scope.
func (n *Namespace) PushScope() {
	n.Locals = append(n.Locals, make(Scope))
}

// PopScope closes the innermost block scope.
func (n *Namespace) PopScope() {
	n.Locals = n.Locals[:len(n.Locals)-1]
}

// Declare binds name in the innermost scope.
func (n *Namespace) Declare(name string, v Variable) {
	n.Locals[len(n.Locals)-1][name] = v
}

// DeclaredInCurrentScope reports whether name is already bound in the
// innermost scope. The analyzer's let/var redefinition checks use
// DeclaredInActiveScopes instead.
func (n *Namespace) DeclaredInCurrentScope(name string) bool {
	if len(n.Locals) == 0 {
		return false
	}
	_, ok := n.Locals[len(n.Locals)-1][name]
	return ok
}

// DeclaredInActiveScopes reports whether name is bound in ANY scope
// currently on the stack, not just the innermost one — the check used
// for let/var redefinition, since shadowing an outer active scope's
// binding is still a redefinition, not a new name.
func (n *Namespace) DeclaredInActiveScopes(name string) bool {
	for i := len(n.Locals) - 1; i >= 0; i-- {
		if _, ok := n.Locals[i][name]; ok {
			return true
		}
	}
	return false
}

// Resolve looks up name from the innermost scope outward, then falls
// back to a top-level constant.
func (n *Namespace) Resolve(name string) (Variable, bool) {
	for i := len(n.Locals) - 1; i >= 0; i-- {
		if v, ok := n.Locals[i][name]; ok {
			return v, true
		}
	}
	if t, ok := n.Constants[name]; ok {
		return Variable{Mutable: false, Typing: t}, true
	}
	return Variable{}, false
}
