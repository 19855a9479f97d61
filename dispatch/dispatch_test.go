package dispatch

import (
	"context"
	"testing"

	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/normalize"
)

func TestRegisterAndDriverFor(t *testing.T) {
	stub := Driver{Name: "stub", Parse: func(context.Context, []byte, parseopts.Options) (normalize.Raw, error) {
		return normalize.Raw{}, nil
	}}
	Register(stub, "stubext")

	d, ok := DriverFor("stubext")
	if !ok || d.Name != "stub" {
		t.Fatalf("DriverFor(stubext) = %+v, %v", d, ok)
	}

	d, ok = DriverFor("STUBEXT")
	if !ok || d.Name != "stub" {
		t.Fatalf("DriverFor should be case-insensitive, got %+v, %v", d, ok)
	}
}

func TestDriverForUnknownExtension(t *testing.T) {
	if _, ok := DriverFor("nope-"); ok {
		t.Fatal("expected ok=false for unregistered extension")
	}
}
