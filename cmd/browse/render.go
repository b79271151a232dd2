package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/kevinnadar22/announce/internal/view"
)

// printer writes view models to a terminal. It is safe for concurrent use
// since list snapshots arrive on fetch goroutines.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	colors bool
}

func newPrinter(out io.Writer, colors bool) *printer {
	return &printer{out: out, colors: colors && !color.NoColor}
}

func (p *printer) style(text string, attrs ...color.Attribute) string {
	if !p.colors {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

func (p *printer) Info(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.style(fmt.Sprintf(format, args...), color.FgCyan))
}

func (p *printer) Warning(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.style("! "+fmt.Sprintf(format, args...), color.FgYellow))
}

func (p *printer) Error(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.style("Error: "+fmt.Sprintf(format, args...), color.FgRed, color.Bold))
}

func (p *printer) List(page view.ListPage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(page.ActiveFilters) > 0 {
		parts := make([]string, 0, len(page.ActiveFilters))
		for _, f := range page.ActiveFilters {
			parts = append(parts, f.Field+"="+f.Value)
		}
		fmt.Fprintln(p.out, p.style("Filters: "+strings.Join(parts, "  "), color.Faint))
	}

	switch page.Status {
	case view.ListLoading:
		fmt.Fprintln(p.out, p.style("Loading...", color.Faint))
		return
	case view.ListFailed, view.ListEmpty:
		p.panel(page.Panel)
		return
	}

	if page.Refreshing {
		fmt.Fprintln(p.out, p.style("Refreshing...", color.Faint))
	}
	if page.Stale {
		fmt.Fprintln(p.out, p.style("! Showing saved results; the latest could not be loaded.", color.FgYellow))
	}
	for _, c := range page.Cards {
		p.card(c)
	}
	if page.Pagination != nil {
		p.pager(*page.Pagination)
	}
}

func (p *printer) card(c view.Card) {
	fmt.Fprintf(p.out, "\n%s %s\n", p.style(fmt.Sprintf("[%d]", c.ID), color.FgCyan), p.style(c.Title, color.Bold))

	meta := []string{c.MinistryTag}
	if c.Office != "" {
		meta = append(meta, c.Office)
	}
	if c.Date != "" {
		meta = append(meta, c.Date+" "+c.Time)
	}
	fmt.Fprintln(p.out, "    "+p.style(strings.Join(meta, " | "), color.Faint))
	if c.Excerpt != "" {
		fmt.Fprintln(p.out, "    "+c.Excerpt)
	}
	if row := chipRow(c.Categories); row != "" {
		fmt.Fprintln(p.out, "    "+p.style(row, color.FgGreen))
	}
	if row := chipRow(c.Languages); row != "" {
		fmt.Fprintln(p.out, "    "+p.style(row, color.FgMagenta))
	}
}

func chipRow(c view.Chips) string {
	row := strings.Join(c.Visible, ", ")
	if n := len(c.Overflow); n > 0 {
		row += fmt.Sprintf(" +%d", n)
	}
	return row
}

func (p *printer) pager(c view.Controls) {
	fmt.Fprintf(p.out, "\nShowing %d-%d of %d\n", c.Showing.From, c.Showing.To, c.Showing.Total)
	if c.Hidden() {
		return
	}

	var b strings.Builder
	if c.Prev != nil {
		b.WriteString("< ")
	}
	for _, l := range c.Links {
		switch {
		case l.Ellipsis:
			b.WriteString("... ")
		case l.Current:
			b.WriteString(p.style("["+strconv.Itoa(l.Page)+"]", color.Bold) + " ")
		default:
			b.WriteString(strconv.Itoa(l.Page) + " ")
		}
	}
	if c.Next != nil {
		b.WriteString(">")
	}
	fmt.Fprintln(p.out, strings.TrimSpace(b.String()))
}

func (p *printer) panel(panel *view.Panel) {
	if panel == nil {
		return
	}
	attr := color.FgYellow
	if panel.Kind == view.PanelServiceUnavailable || panel.Kind == view.PanelUnavailable {
		attr = color.FgRed
	}
	fmt.Fprintln(p.out, p.style(panel.Title, attr, color.Bold))
	fmt.Fprintln(p.out, panel.Message)
	if panel.Action != nil {
		fmt.Fprintln(p.out, p.style(panel.Action.Label, color.Faint))
	}
}

func (p *printer) Detail(page view.DetailPage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch page.State {
	case view.DetailLoading:
		fmt.Fprintln(p.out, p.style("Loading...", color.Faint))
		return
	case view.DetailNotFound, view.DetailError:
		p.panel(page.Panel)
		return
	case view.DetailTransitioning:
		fmt.Fprintln(p.out, p.style("Switching language...", color.Faint))
	}
	if page.Announcement == nil {
		return
	}

	a := page.Announcement
	fmt.Fprintln(p.out, p.style(a.Title, color.Bold))
	meta := []string{a.Ministry}
	if a.Office != "" {
		meta = append(meta, a.Office)
	}
	if a.Date != "" {
		meta = append(meta, a.Date+" "+a.Time)
	}
	fmt.Fprintln(p.out, p.style(strings.Join(meta, " | "), color.Faint))
	if len(a.Categories) > 0 {
		fmt.Fprintln(p.out, p.style(strings.Join(a.Categories, ", "), color.FgGreen))
	}

	if page.FromArchive {
		fmt.Fprintln(p.out, p.style("! Showing an archived copy.", color.FgYellow))
	}
	if page.SwitchFailed {
		fmt.Fprintln(p.out, p.style("! Could not switch language; showing the previous one.", color.FgYellow))
	}

	for _, s := range page.Sections {
		fmt.Fprintf(p.out, "\n%s\n", p.style(s.Title, color.FgCyan, color.Bold))
		if !s.Available {
			fmt.Fprintln(p.out, p.style(s.Fallback, color.Faint))
			continue
		}
		fmt.Fprintln(p.out, strings.TrimSpace(s.Text))
	}

	if len(page.Languages) > 0 {
		opts := make([]string, 0, len(page.Languages))
		for _, l := range page.Languages {
			label := l.Code + " " + l.Name
			if l.Selected {
				label = p.style("*"+label, color.Bold)
			}
			opts = append(opts, label)
		}
		fmt.Fprintf(p.out, "\nLanguages: %s\n", strings.Join(opts, ", "))
	}
	if a.SourceURL != "" {
		fmt.Fprintln(p.out, p.style("Source: "+a.SourceURL, color.Faint))
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
