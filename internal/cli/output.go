package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"pagebuilder/internal/domain"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// JSON reports whether machine output was requested.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Emit writes v as indented JSON, or calls text for the human format.
func (f *OutputFormatter) Emit(v any, text func(w io.Writer) error) error {
	if f.JSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(f.Writer)
}

func writePages(w io.Writer, pages []domain.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tSTATUS\tTITLE")
	for _, p := range pages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.Status, p.Title)
	}
	return tw.Flush()
}

// writeTree prints blocks as an indented outline; blocks arrive parent-first
// in sort order.
func writeTree(w io.Writer, blocks []domain.Block) error {
	children := make(map[string][]domain.Block)
	for _, b := range blocks {
		children[b.ParentID()] = append(children[b.ParentID()], b)
	}
	var walk func(parent string, depth int) error
	walk = func(parent string, depth int) error {
		for _, b := range children[parent] {
			hidden := ""
			if !b.IsVisible {
				hidden = " (hidden)"
			}
			if _, err := fmt.Fprintf(w, "%s%s %s%s\n", strings.Repeat("  ", depth), b.ComponentName, b.ID, hidden); err != nil {
				return err
			}
			if err := walk(b.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if len(blocks) == 0 {
		_, err := fmt.Fprintln(w, "(empty page)")
		return err
	}
	return walk("", 0)
}
