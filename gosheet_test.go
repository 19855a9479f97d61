package gosheet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/internal/xlog"
	"github.com/asportagro/gosheet/normalize"
)

func TestParseDispatchesByExtension(t *testing.T) {
	wb, err := Parse(context.Background(), BytesSource("a,b\n1,2\n"), ".csv", ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(wb.Worksheets) != 1 {
		t.Fatalf("expected 1 worksheet, got %d", len(wb.Worksheets))
	}
	if wb.Worksheets[0].Get(0, 0).Text != "a" {
		t.Fatalf("unexpected first cell: %+v", wb.Worksheets[0].Get(0, 0))
	}
}

func TestParseStripsLeadingDot(t *testing.T) {
	_, err := Parse(context.Background(), BytesSource("a,b\n"), "csv", ParseOptions{})
	if err != nil {
		t.Fatalf("Parse without leading dot: %v", err)
	}
}

func TestParseNilSource(t *testing.T) {
	_, err := Parse(context.Background(), nil, "csv", ParseOptions{})
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Kind != InputInvalid {
		t.Fatalf("expected InputInvalid error, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(context.Background(), BytesSource(nil), "csv", ParseOptions{})
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Kind != InputInvalid {
		t.Fatalf("expected InputInvalid error, got %v", err)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	_, err := Parse(context.Background(), BytesSource("x"), "bogusext", ParseOptions{})
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Kind != UnsupportedExtension {
		t.Fatalf("expected UnsupportedExtension error, got %v", err)
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := NewError(MalformedContainer, "xls", "bad FAT chain", nil)
	sentinel := NewError(MalformedContainer, "", "", nil)
	if !errors.Is(err, sentinel) {
		t.Fatal("expected errors.Is to match by Kind")
	}

	other := NewError(DecodeFailure, "", "", nil)
	if errors.Is(err, other) {
		t.Fatal("errors.Is should not match a different Kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(DecodeFailure, "xls", "ctx", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through to the wrapped cause")
	}
}

func TestParseRelaysDriverWarningsToLogger(t *testing.T) {
	dispatch.Register(dispatch.Driver{
		Name: "warnstub",
		Parse: func(context.Context, []byte, parseopts.Options) (normalize.Raw, error) {
			return normalize.Raw{Warnings: []string{"truncated repeated run"}}, nil
		},
	}, "warnstub")

	var buf strings.Builder
	logger := xlog.New(&buf, "")
	_, err := Parse(context.Background(), BytesSource("x"), "warnstub", ParseOptions{Logger: logger})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(buf.String(), "truncated repeated run") {
		t.Fatalf("logger did not receive driver warning, got %q", buf.String())
	}
}

func TestDefaultParseOptionsAppliedOnZeroValue(t *testing.T) {
	opts := ParseOptions{}.toParseOpts()
	def := DefaultParseOptions()
	if opts.Delimiter != def.Delimiter || opts.FirstRowAsHeader != def.FirstRowAsHeader {
		t.Fatalf("zero-value ParseOptions did not get defaults: %+v", opts)
	}
}
