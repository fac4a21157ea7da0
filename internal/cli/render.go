package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// listing is a rendered table plus the raw records behind it, which --json
// prints instead.
type listing struct {
	header table.Row
	rows   []table.Row
	raw    any
}

func (l *listing) add(cells ...any) {
	l.rows = append(l.rows, table.Row(cells))
}

func (cc *CommandContext) render(l listing) error {
	if cc.JSON {
		return renderJSON(cc.Out, l.raw)
	}
	renderTable(cc.Out, l)
	return nil
}

func renderTable(w io.Writer, l listing) {
	if len(l.rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(l.header)
	for _, r := range l.rows {
		t.AppendRow(r)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(l.rows))
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func megabytes(f float64) string {
	if f <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(f * 1024 * 1024))
}

func bytesOrDash(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// clip shortens s to n runes for table cells.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
