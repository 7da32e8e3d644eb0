package session

import (
	"fmt"
	"sort"
	"sync"
)

// Variadic as MaxArgs means the operation takes any number of arguments.
const Variadic = -1

// Func is the body of an operation. It receives the session capability
// table and the parsed positional arguments.
type Func func(env *Env, args []string) error

// Operation is one callable entry of an allow-list.
type Operation struct {
	Name        string
	Description string
	MinArgs     int
	MaxArgs     int
	Run         Func
}

// Nullary builds an operation that takes no arguments.
func Nullary(name, description string, fn func(env *Env) error) Operation {
	return Operation{
		Name:        name,
		Description: description,
		Run: func(env *Env, _ []string) error {
			return fn(env)
		},
	}
}

// Unary builds an operation that takes exactly one argument.
func Unary(name, description string, fn func(env *Env, arg string) error) Operation {
	return Operation{
		Name:        name,
		Description: description,
		MinArgs:     1,
		MaxArgs:     1,
		Run: func(env *Env, args []string) error {
			return fn(env, args[0])
		},
	}
}

// VariadicOp builds an operation that takes at least minArgs arguments.
func VariadicOp(name, description string, minArgs int, fn Func) Operation {
	return Operation{
		Name:        name,
		Description: description,
		MinArgs:     minArgs,
		MaxArgs:     Variadic,
		Run:         fn,
	}
}

func (op Operation) accepts(n int) bool {
	if n < op.MinArgs {
		return false
	}
	return op.MaxArgs == Variadic || n <= op.MaxArgs
}

func (op Operation) arity() string {
	switch {
	case op.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", op.MinArgs)
	case op.MinArgs == op.MaxArgs:
		return fmt.Sprintf("%d", op.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", op.MinArgs, op.MaxArgs)
	}
}

// AllowList is the finite set of operations and global values a session may
// resolve. Operations keep their registration order.
type AllowList struct {
	mu      sync.RWMutex
	ops     []Operation
	index   map[string]int
	globals map[string]any
}

// NewAllowList creates an empty allow-list.
func NewAllowList() *AllowList {
	return &AllowList{
		index:   make(map[string]int),
		globals: make(map[string]any),
	}
}

// Register adds an operation. Returns an error if the name is empty, the
// body is missing, or the name is already registered.
func (a *AllowList) Register(op Operation) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if op.Name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	if op.Run == nil {
		return fmt.Errorf("operation %s has no body", op.Name)
	}
	if op.MaxArgs != Variadic && op.MaxArgs < op.MinArgs {
		return fmt.Errorf("operation %s accepts at most %d arguments but requires %d", op.Name, op.MaxArgs, op.MinArgs)
	}
	if _, exists := a.index[op.Name]; exists {
		return fmt.Errorf("operation %s already registered", op.Name)
	}

	a.index[op.Name] = len(a.ops)
	a.ops = append(a.ops, op)
	return nil
}

// MustRegister is Register that panics on error, for static allow-lists.
func (a *AllowList) MustRegister(ops ...Operation) *AllowList {
	for _, op := range ops {
		if err := a.Register(op); err != nil {
			panic(fmt.Sprintf("failed to register operation: %v", err))
		}
	}
	return a
}

// Get retrieves an operation by name.
func (a *AllowList) Get(name string) (Operation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, exists := a.index[name]
	if !exists {
		return Operation{}, false
	}
	return a.ops[i], true
}

// Operations returns the operations in registration order.
func (a *AllowList) Operations() []Operation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ops := make([]Operation, len(a.ops))
	copy(ops, a.ops)
	return ops
}

// Len returns the number of operations.
func (a *AllowList) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ops)
}

// SetGlobal exposes a named value to operations through Env.Global.
func (a *AllowList) SetGlobal(name string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.globals[name] = value
}

// Globals returns a copy of the global values.
func (a *AllowList) Globals() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	globals := make(map[string]any, len(a.globals))
	for name, value := range a.globals {
		globals[name] = value
	}
	return globals
}

// GlobalNames returns the global names in sorted order.
func (a *AllowList) GlobalNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.globals))
	for name := range a.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
