package display

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ujichase/orbit/internal/catalog"
	"github.com/ujichase/orbit/internal/units"
)

// SearchTable renders catalog records as the `search` listing.
func SearchTable(w io.Writer, records []*catalog.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Version", "Status", "Description"})
	for _, r := range records {
		description := ""
		if r.Manifest != nil {
			description = r.Manifest.Ip.Description
		}
		t.AppendRow(table.Row{r.Name.String(), r.Version.String(), r.Tier.String(), description})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// UnitTable renders an IP's design units for `info --units`.
func UnitTable(w io.Writer, list []*units.Unit) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Identifier", "Kind", "Visibility", "File"})
	for _, u := range list {
		t.AppendRow(table.Row{u.Identifier.String(), u.Kind.String(), u.Visibility.String(), u.File})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
