package expr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// ErrNotBool is returned when a condition does not evaluate to a boolean.
var ErrNotBool = errors.New("expression must evaluate to a bool")

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment] with the condition library.
// Without [WithLookup], `onPath` always returns false.
func NewEnvironment(opts ...Option) (*Environment, error) {
	o := &options{
		lookup: func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(o)
	}

	env, err := createEnvironment(cel.Lib(&lib{lookup: o.lookup}))
	if err != nil {
		return nil, err
	}

	return &Environment{env: env}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...Option) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// Option configures an [Environment].
type Option func(*options)

type options struct {
	lookup func(name string) bool
}

// WithLookup sets the function backing `onPath`.
func WithLookup(lookup func(name string) bool) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

func createEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	celEnv, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return celEnv, nil
}

// Compile compiles a boolean CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w, got %s", ErrNotBool, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// EvalBool evaluates a program compiled by [Environment.Compile].
func EvalBool(program cel.Program, vars map[string]any) (bool, error) {
	out, _, err := program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w, got %T", ErrNotBool, out.Value())
	}

	return b, nil
}
