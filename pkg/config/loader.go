package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/macropower/pstart/api"
	"github.com/macropower/pstart/api/v1beta1"
	"github.com/macropower/pstart/api/v1beta1/configs"
	"github.com/macropower/pstart/pkg/yaml"
)

// ErrLoad is returned when a configuration cannot be loaded.
var ErrLoad = errors.New("load configuration")

// Validator validates configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
	colored   bool
}

// WithValidator sets a custom validator.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithColor enables colored source excerpts in errors.
func WithColor(colored bool) LoaderOpt {
	return func(o *loaderOptions) {
		o.colored = colored
	}
}

// Loader is a generic configuration loader that handles validation,
// YAML parsing, and error formatting for any config type T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] from byte data.
// The newFunc parameter is the constructor for type T (e.g., configs.New).
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	options := &loaderOptions{
		validator: defaultValidator,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithColor(options.colored),
		),
	}
}

// NewLoaderFromFile creates a [Loader] from a file path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate validates the configuration data against the schema.
func (l *Loader[T]) Validate() error {
	var anyConfig any

	dec := yaml.NewDecoder(bytes.NewReader(l.data))

	err := dec.Decode(&anyConfig)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator != nil {
		err = l.validator.Validate(anyConfig)
		if err != nil {
			return l.yamlError.Wrap(err)
		}
	}

	return nil
}

// Load parses and returns the configuration. It does not validate the data
// against the schema, see [Loader.Validate].
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	cfg := l.newFunc()

	dec := yaml.NewDecoder(bytes.NewReader(l.data))

	err := dec.Decode(cfg)
	if err != nil {
		var zero T
		return zero, l.yamlError.Wrap(err)
	}

	cfg.EnsureDefaults()

	return cfg, nil
}

// LoadFile reads the configuration at path, validates it against the
// schema, decodes it, and validates its contents.
func LoadFile(path string, opts ...LoaderOpt) (*configs.Config, error) {
	cl, err := NewLoaderFromFile(path, configs.New, configs.DefaultValidator, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	return cl.loadValid()
}

// LoadBytes is like [LoadFile], but reads the configuration from data.
func LoadBytes(data []byte, opts ...LoaderOpt) (*configs.Config, error) {
	return NewLoaderFromBytes(data, configs.New, configs.DefaultValidator, opts...).loadValid()
}

func (l *Loader[T]) loadValid() (T, error) {
	var zero T

	err := l.Validate()
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	cfg, err := l.Load()
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if v, ok := any(cfg).(interface{ Validate() error }); ok {
		err = v.Validate()
		if err != nil {
			return zero, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	}

	return cfg, nil
}
