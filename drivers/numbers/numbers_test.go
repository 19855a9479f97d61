package numbers

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asportagro/gosheet/internal/parseopts"
)

func buildIWAZip(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(contents)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseExtractsPrintableRunsAndWarns(t *testing.T) {
	payload := append([]byte{0x00, 0x01, 0x02}, []byte("Revenue")...)
	payload = append(payload, 0x00, 0x00)
	payload = append(payload, []byte("Q1 Totals")...)
	data := buildIWAZip(t, map[string][]byte{
		"Index/Document.iwa": payload,
		"Index/Metadata.plist": []byte("not scanned"),
	})

	raw, err := Parse(context.Background(), data, parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)

	ws := raw.Worksheets[0]
	assert.Equal(t, "Revenue", ws.Get(0, 0).Text)
	assert.Equal(t, "Q1 Totals", ws.Get(0, 1).Text)

	require.Len(t, raw.Warnings, 1)
	assert.Contains(t, raw.Warnings[0], "speculative")
}

func TestParseIgnoresNonIWAMembers(t *testing.T) {
	data := buildIWAZip(t, map[string][]byte{
		"readme.txt": []byte("Hello there general text"),
	})

	raw, err := Parse(context.Background(), data, parseopts.Options{})
	require.NoError(t, err)
	require.Len(t, raw.Worksheets, 1)
	assert.Equal(t, "", raw.Worksheets[0].Get(0, 0).Text)
}

func TestExtractPrintableRunsSkipsShortRuns(t *testing.T) {
	got := extractPrintableRuns([]byte("ab\x00\x00longenoughrun\x00cd"))
	assert.Equal(t, []string{"longenoughrun"}, got)
}

func TestParseRejectsNonZip(t *testing.T) {
	_, err := Parse(context.Background(), []byte("not a zip file at all"), parseopts.Options{})
	assert.Error(t, err)
}
