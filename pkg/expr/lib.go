package expr

import (
	"os"
	"runtime"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

type lib struct {
	lookup func(name string) bool
}

func (l *lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Strings(),
		ext.Lists(),

		cel.Variable("os", cel.StringType),
		cel.Variable("arch", cel.StringType),
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("profile", cel.StringType),
		cel.Variable("name", cel.StringType),

		// `pathExists` reports whether a file or directory exists.
		// Example: pathExists("/opt/burp/burp.jar").
		cel.Function("pathExists",
			cel.Overload("path_exists_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(path ref.Val) ref.Val {
					pathValue, ok := path.(types.String).Value().(string)
					if !ok {
						return types.NewErr("pathExists: invalid string value")
					}

					_, err := os.Stat(pathValue)

					return types.Bool(err == nil)
				}),
			),
		),

		// `onPath` reports whether a program resolves in the search directories.
		// Example: onPath("docker").
		cel.Function("onPath",
			cel.Overload("on_path_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(name ref.Val) ref.Val {
					nameValue, ok := name.(types.String).Value().(string)
					if !ok {
						return types.NewErr("onPath: invalid string value")
					}

					return types.Bool(l.lookup(nameValue))
				}),
			),
		),
	}
}

func (*lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// Vars returns the variables for evaluating a condition of the launch request
// name within profile.
func Vars(profile, name string) map[string]any {
	return map[string]any{
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
		"env":     environ(),
		"profile": profile,
		"name":    name,
	}
}

func environ() map[string]string {
	env := map[string]string{}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}

	return env
}
