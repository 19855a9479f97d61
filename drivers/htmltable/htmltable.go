// Package htmltable implements the HTML-table driver: it walks the DOM
// tree golang.org/x/net/html parses looking for the opts.TableIndex'th
// <table>, grounded on the teacher/pack's use of the same package for
// shared XML/drawing-tree concerns (DESIGN.md) — x/net/html's parse
// tree is the idiomatic Go substitute for a duck-typed DOM walker, the
// same substitution spec §9 calls for more generally.
package htmltable

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/asportagro/gosheet/dispatch"
	"github.com/asportagro/gosheet/internal/parseopts"
	"github.com/asportagro/gosheet/normalize"
	"github.com/asportagro/gosheet/workbook"
)

func init() {
	dispatch.Register(dispatch.Driver{Name: "htmltable", Parse: Parse}, "html", "htm")
}

// Parse extracts the opts.TableIndex'th <table> element's rows into a
// single-worksheet raw workbook. opts.FirstRowAsHeader (default true)
// only affects the emitted column metadata — all rows, including the
// first, are still placed into Worksheet.Data.
func Parse(ctx context.Context, data []byte, opts parseopts.Options) (normalize.Raw, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return normalize.Raw{}, err
	}

	tables := findAll(doc, "table")
	idx := opts.TableIndex
	if idx < 0 || idx >= len(tables) {
		idx = 0
	}
	if len(tables) == 0 {
		return normalize.Raw{Worksheets: []*workbook.Worksheet{workbook.NewWorksheet("Sheet1", 0, 0)}}, nil
	}

	rows := extractRows(tables[idx])
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	ws := workbook.NewWorksheet("Sheet1", len(rows), cols)
	for ri, row := range rows {
		select {
		case <-ctx.Done():
			return normalize.Raw{}, ctx.Err()
		default:
		}
		for ci, text := range row {
			ws.Set(ri, ci, workbook.CellValue{Kind: workbook.KindText, Text: text})
		}
	}

	if opts.FirstRowAsHeader && len(rows) > 0 {
		for ci, text := range rows[0] {
			if text == "" {
				continue
			}
			ws.ColProps[ci] = workbook.Column{Title: text}
		}
	}

	return normalize.Raw{Worksheets: []*workbook.Worksheet{ws}}, nil
}

// extractRows walks a <table>'s <tr> rows, expanding each <td>/<th>'s
// colspan by padding the following columns with empty strings (a simple,
// best-effort merge: genuine merge-extent tracking belongs to the
// normaliser, not this shallow traversal per spec §1's "bulk but
// shallow XML traversal" framing for drawing/chart geometry — the same
// posture applies here).
func extractRows(table *html.Node) [][]string {
	var rows [][]string
	for _, tr := range findAll(table, "tr") {
		var row []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			text := strings.TrimSpace(textContent(c))
			span := attrInt(c, "colspan", 1)
			if span < 1 {
				span = 1
			}
			row = append(row, text)
			for i := 1; i < span; i++ {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attrInt(n *html.Node, name string, fallback int) int {
	for _, a := range n.Attr {
		if a.Key == name {
			if v, err := strconv.Atoi(a.Val); err == nil {
				return v
			}
		}
	}
	return fallback
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
