package ui

import (
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/gubarz/cmtscan/internal/scan"
)

// TableTitle heads the console overview
const TableTitle = "Project Comments Overview"

// TableOptions controls console table rendering
type TableOptions struct {
	ShowContext bool
	Color       bool
}

// tableColors maps marker color names to tablewriter foreground codes
var tableColors = map[string]int{
	"black":   tablewriter.FgBlackColor,
	"red":     tablewriter.FgRedColor,
	"green":   tablewriter.FgGreenColor,
	"yellow":  tablewriter.FgYellowColor,
	"blue":    tablewriter.FgBlueColor,
	"magenta": tablewriter.FgMagentaColor,
	"cyan":    tablewriter.FgCyanColor,
	"white":   tablewriter.FgWhiteColor,
}

// TableHeader returns the column names for the overview table
func TableHeader(showContext bool) []string {
	if showContext {
		return []string{"Type", "Comment", "Context", "File", "Line"}
	}
	return []string{"Type", "Comment", "File", "Line"}
}

// TableRow returns the cells for one annotation
func TableRow(a scan.Annotation, showContext bool) []string {
	row := []string{a.Marker.Label, a.Body}
	if showContext {
		row = append(row, a.Context)
	}
	return append(row, a.File, strconv.Itoa(a.Line))
}

// RenderTable writes the titled overview table, sorted by marker token
func RenderTable(w io.Writer, annotations []scan.Annotation, opts TableOptions) {
	title := TableTitle
	if opts.Color {
		title = color.New(color.Bold).Sprint(title)
	}
	heading := tablewriter.NewWriter(w)
	heading.SetAutoWrapText(false)
	heading.Append([]string{title})
	heading.Render()

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetRowLine(opts.ShowContext)
	table.SetHeader(TableHeader(opts.ShowContext))

	for _, a := range scan.SortForDisplay(annotations) {
		row := TableRow(a, opts.ShowContext)
		if !opts.Color {
			table.Append(row)
			continue
		}
		fg, ok := tableColors[strings.ToLower(a.Marker.Color)]
		if !ok {
			table.Append(row)
			continue
		}
		colors := make([]tablewriter.Colors, len(row))
		colors[0] = tablewriter.Colors{fg, tablewriter.Bold}
		for i := 1; i < len(row); i++ {
			colors[i] = tablewriter.Colors{fg}
		}
		table.Rich(row, colors)
	}

	table.Render()
}
