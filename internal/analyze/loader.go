package analyze

import (
	"errors"
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// ErrNotFound is returned when a pattern matches no package.
var ErrNotFound = errors.New("package not found")

// Load type-checks the package matching pattern. Dir is the directory the
// pattern is resolved in, empty for the current one.
func Load(dir, pattern string) (*types.Package, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	if len(pkgs) == 0 || pkgs[0].Types == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pattern)
	}

	return pkgs[0].Types, nil
}
