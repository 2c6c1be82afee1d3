package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver bundles the directory lists used for repeated lookups.
type Resolver struct {
	preferred []string
	system    []string
}

// ResolverOpt configures a [Resolver].
type ResolverOpt func(*Resolver)

// WithPreferredDirs sets the directories that are searched first, in order.
func WithPreferredDirs(dirs ...string) ResolverOpt {
	return func(r *Resolver) {
		r.preferred = dirs
	}
}

// WithSystemPath sets the fallback search path. A nil or empty list disables
// the fallback.
func WithSystemPath(dirs ...string) ResolverOpt {
	return func(r *Resolver) {
		r.system = dirs
	}
}

// NewResolver creates a new [Resolver]. Without options it only resolves
// names that already denote an executable path.
func NewResolver(opts ...ResolverOpt) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve looks up name using the resolver's directory lists.
// See [Resolve].
func (r *Resolver) Resolve(name string) (string, bool) {
	return Resolve(name, r.preferred, r.system)
}

// PreferredDirs returns the preferred directories of the resolver.
func (r *Resolver) PreferredDirs() []string {
	return r.preferred
}

// SystemDirs returns the fallback search path of the resolver.
func (r *Resolver) SystemDirs() []string {
	return r.system
}

// Resolve returns the path of the first executable matching name, and true.
//
// If name contains a path separator and is itself executable, it is returned
// unchanged. Otherwise each directory in preferredDirs and then each directory
// in systemPath is joined with name and tested. Empty directory entries are
// ignored, so an empty element never refers to the working directory.
//
// When no candidate matches, Resolve returns an empty string and false.
func Resolve(name string, preferredDirs, systemPath []string) (string, bool) {
	if name == "" {
		return "", false
	}

	if hasSeparator(name) && IsExecutable(name) {
		return name, true
	}

	if p, ok := search(name, preferredDirs); ok {
		return p, true
	}

	return search(name, systemPath)
}

// SystemPath returns the ambient search path from $PATH, in order.
func SystemPath() []string {
	return filepath.SplitList(os.Getenv("PATH"))
}

// IsExecutable reports whether path is a regular file (after following
// symlinks) that the current user may execute.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if !info.Mode().IsRegular() {
		return false
	}

	return canExecute(path, info)
}

func search(name string, dirs []string) (string, bool) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		candidate := filepath.Join(dir, name)
		if IsExecutable(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func hasSeparator(name string) bool {
	if strings.ContainsRune(name, '/') {
		return true
	}

	return os.PathSeparator != '/' && strings.ContainsRune(name, os.PathSeparator)
}
