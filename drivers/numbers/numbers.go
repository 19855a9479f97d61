// Package numbers implements a speculative, warning-only reader for
// Apple Numbers documents. The format is a ZIP container of Snappy-
// compressed protobuf ("IWA") blobs with no public schema; spec §1
// explicitly acknowledges "the Numbers IWA protobuf extraction" as
// speculative in the source and spec §7 says this driver "emits a
// warning record in the output and a coarse text grid rather than
// failing" — so this driver does not attempt real protobuf decoding.
// It opens the ZIP (archive/zip, stdlib, per spec's ZIP-decompression
// non-goal) and heuristically scans each .iwa member for printable
// ASCII runs, the same coarse-grid posture the spec prescribes.
package numbers

import (
	"archive/zip"
	"bytes"
	"context"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "numbers", Parse: Parse}, "numbers")
}

const (
	minRunLength = 4
	gridWidth    = 8
)

// Parse produces a single coarse worksheet of extracted printable
// strings, one per cell in row-major order, plus a workbook-level
// warning flagging the result as speculative.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return normalize.Raw{}, err
	}

	var strs []string
	for _, f := range zr.File {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		if !hasIWASuffix(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		buf := make([]byte, f.UncompressedSize64)
		n, _ := rc.Read(buf)
		rc.Close()
		strs = append(strs, extractPrintableRuns(buf[:n])...)
	}

	rows := (len(strs) + gridWidth - 1) / gridWidth
	ws := workbook.NewWorksheet("Sheet1", rows, gridWidth)
	for i, s := range strs {
		ws.Set(i/gridWidth, i%gridWidth, workbook.CellValue{Kind: workbook.KindText, Text: s})
	}

	return normalize.Raw{
		Worksheets: []*workbook.Worksheet{ws},
		Warnings:   []string{"numbers: speculative IWA text extraction, not a faithful reconstruction"},
	}, nil
}

func hasIWASuffix(name string) bool {
	return len(name) > 4 && name[len(name)-4:] == ".iwa"
}

// extractPrintableRuns finds maximal runs of printable ASCII bytes at
// least minRunLength long, the same coarse heuristic the `strings`
// Unix tool applies to unstructured binary.
func extractPrintableRuns(buf []byte) []string {
	var out []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minRunLength {
			out = append(out, string(buf[start:end]))
		}
		start = -1
	}
	for i, b := range buf {
		if b >= 0x20 && b < 0x7F {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(buf))
	return out
}
