package expr

import (
	"sync"

	"github.com/google/cel-go/cel"
)

// LazyProgram provides thread-safe lazy compilation of a CEL expression.
// The expression is compiled at most once, even when accessed concurrently.
type LazyProgram struct {
	err        error
	program    cel.Program
	env        *Environment
	expression string
	once       sync.Once
}

// NewLazyProgram creates a new [LazyProgram] that will compile expression
// against env when first used.
func NewLazyProgram(expression string, env *Environment) *LazyProgram {
	return &LazyProgram{
		expression: expression,
		env:        env,
	}
}

// Get returns the compiled program, compiling it on the first call.
// Subsequent calls return the cached result.
//
//nolint:ireturn // Following CEL's function signature.
func (lp *LazyProgram) Get() (cel.Program, error) {
	lp.once.Do(func() {
		lp.program, lp.err = lp.env.Compile(lp.expression)
	})

	return lp.program, lp.err
}

// Eval compiles the expression if needed and evaluates it with vars.
func (lp *LazyProgram) Eval(vars map[string]any) (bool, error) {
	program, err := lp.Get()
	if err != nil {
		return false, err
	}

	return EvalBool(program, vars)
}

// String returns the source expression.
func (lp *LazyProgram) String() string {
	return lp.expression
}
