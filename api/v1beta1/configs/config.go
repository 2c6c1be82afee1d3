// Package configs provides the Config configuration type for pstart.
package configs

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/pstart/api"
	"github.com/macropower/pstart/api/v1beta1"
	"github.com/macropower/pstart/pkg/execs"
	"github.com/macropower/pstart/pkg/expr"
	"github.com/macropower/pstart/pkg/profile"
	"github.com/macropower/pstart/pkg/resolve"
	"github.com/macropower/pstart/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -o configs.v1beta1.json

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed configs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for configurations.
	ValidKinds = []string{"Configuration"}

	// DefaultValidator validates configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", schemaJSON)

	// ErrInvalidConfig is returned by [Config.Validate].
	ErrInvalidConfig = errors.New("invalid configuration")

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the pstart configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	v1beta1.TypeMeta `json:",inline"`

	// Overrides maps a launch request name to the full command that is run
	// in its place. An override is authoritative: the request's options and
	// path are ignored, and no search is performed. An empty override is
	// ignored. A bare program name is looked up in $PATH when it is started,
	// regardless of SystemPath.
	Overrides map[string]string `json:"overrides,omitempty" jsonschema:"title=Overrides"`
	// SearchDirs are searched for executables, in order, before the system
	// path. Environment variables are expanded.
	SearchDirs []string `json:"searchDirs,omitempty" jsonschema:"title=Search Directories"`
	// SystemPath controls whether $PATH is searched after SearchDirs.
	// Defaults to true. Disable it when pstart runs with elevated privileges
	// and the configuration or $PATH can be changed by a less privileged user.
	// It does not apply to overrides or explicit paths: a bare program name
	// there is still looked up in $PATH when the command is started, so use
	// absolute paths in both.
	SystemPath *bool `json:"systemPath,omitempty" jsonschema:"title=System Path"`
	// Profiles maps a profile name to the ordered list of programs it launches.
	Profiles map[string]profile.Profile `json:"profiles,omitempty" jsonschema:"title=Profiles"`

	commands map[string]execs.Command
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Configuration",
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Overrides == nil {
		c.Overrides = map[string]string{}
	}
	if c.Profiles == nil {
		c.Profiles = map[string]profile.Profile{}
	}
	if c.SystemPath == nil {
		c.SystemPath = new(bool)
		*c.SystemPath = true
	}
}

// Validate tokenizes every override and builds every profile. It must be
// called before the config is used to launch anything.
func (c *Config) Validate() error {
	commands := make(map[string]execs.Command, len(c.Overrides))

	for _, name := range slices.Sorted(maps.Keys(c.Overrides)) {
		line := c.Overrides[name]
		if strings.TrimSpace(line) == "" {
			// Empty overrides fall through to path and search resolution.
			continue
		}

		cmd, err := execs.Parse(line)
		if err != nil {
			return fmt.Errorf("%w: override %q: %w", ErrInvalidConfig, name, err)
		}

		commands[name] = cmd
	}

	c.commands = commands

	env, err := expr.NewEnvironment(expr.WithLookup(c.onPath))
	if err != nil {
		return fmt.Errorf("create condition environment: %w", err)
	}

	for _, name := range c.ProfileNames() {
		err := c.Profiles[name].Build(env)
		if err != nil {
			return fmt.Errorf("%w: profile %q: %w", ErrInvalidConfig, name, err)
		}
	}

	return nil
}

// Override returns the tokenized override command for name.
func (c *Config) Override(name string) (execs.Command, bool) {
	cmd, ok := c.commands[name]

	return cmd, ok
}

// Profile returns the profile with the given name.
func (c *Config) Profile(name string) (profile.Profile, bool) {
	p, ok := c.Profiles[name]

	return p, ok
}

// ProfileNames returns all profile names in sorted order.
func (c *Config) ProfileNames() []string {
	return slices.Sorted(maps.Keys(c.Profiles))
}

// UseSystemPath reports whether $PATH is searched.
func (c *Config) UseSystemPath() bool {
	return c.SystemPath == nil || *c.SystemPath
}

// SetSystemPath enables or disables the $PATH fallback.
func (c *Config) SetSystemPath(enabled bool) {
	c.SystemPath = &enabled
}

// Dirs returns the expanded search directories.
func (c *Config) Dirs() []string {
	dirs := make([]string, 0, len(c.SearchDirs))
	for _, dir := range c.SearchDirs {
		dirs = append(dirs, os.ExpandEnv(dir))
	}

	return dirs
}

// Resolver returns a [resolve.Resolver] for the configured search
// directories, followed by $PATH when [Config.UseSystemPath] is true.
func (c *Config) Resolver() *resolve.Resolver {
	opts := []resolve.ResolverOpt{resolve.WithPreferredDirs(c.Dirs()...)}
	if c.UseSystemPath() {
		opts = append(opts, resolve.WithSystemPath(resolve.SystemPath()...))
	}

	return resolve.NewResolver(opts...)
}

func (c *Config) onPath(name string) bool {
	if _, ok := c.Override(name); ok {
		return true
	}

	_, ok := c.Resolver().Resolve(name)

	return ok
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// GetPath returns the path to the configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
