// Package dispatch is the extension-to-driver switch spec §1 names as
// deliberately out of scope ("a trivial switch") and spec §6's Go
// signatures section asks to keep as "a five-line function" — kept
// genuinely small, with the per-format heavy lifting living entirely
// in the drivers/ packages this package merely looks up.
package dispatch

import (
	"context"
	"strings"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/normalize"
)

// ParseFunc is the signature every format driver exposes: raw bytes in,
// a normalize.Raw (pre-canonicalisation) workbook out.
type ParseFunc func(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error)

// Driver pairs a ParseFunc with the driver name used in error context
// (gosheet.Error.Driver) and workbook warnings.
type Driver struct {
	Name  string
	Parse ParseFunc
}

// registry is populated by each driver package's init(), keeping
// dispatch itself free of direct imports on every drivers/* package
// (which would otherwise need to import dispatch right back for
// nothing, or dispatch would need to import all eleven drivers
// directly — either way coupling dispatch to driver internals it has
// no business knowing). Drivers self-register via Register.
var registry = map[string]Driver{}

// Register adds a driver under one or more extensions. Called from
// each driver package's init().
func Register(driver Driver, extensions ...string) {
	for _, ext := range extensions {
		registry[ext] = driver
	}
}

// DriverFor resolves a lowercase extension (without the leading dot)
// to its Driver, per spec §6's dispatch table. Returns ok=false for an
// unrecognised extension, leaving the UnsupportedExtension error
// construction to the caller (gosheet.Parse), which knows the error
// type this package intentionally doesn't import.
func DriverFor(ext string) (Driver, bool) {
	d, ok := registry[strings.ToLower(ext)]
	return d, ok
}
