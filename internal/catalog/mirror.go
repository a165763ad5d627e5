package catalog

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"comicsort/pkg/models"
)

// RenderIssueTable writes records as a page MAWSource can parse back: one
// header row of <th> cells, then one <tr> per issue.
func RenderIssueTable(w io.Writer, seriesID string, records []models.IssueRecord) error {
	doc := element(atom.Html,
		element(atom.Head, element(atom.Title, text("Series "+seriesID))),
		element(atom.Body, issueTable(records)),
	)
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	return html.Render(w, doc)
}

func issueTable(records []models.IssueRecord) *html.Node {
	table := element(atom.Table,
		element(atom.Tr,
			element(atom.Th, text("Issue")),
			element(atom.Th, text("Cover Date")),
		),
	)
	for _, r := range records {
		table.AppendChild(element(atom.Tr,
			element(atom.Td, text(r.IssueName)),
			element(atom.Td, text(r.CoverDate)),
		))
	}
	return table
}

func element(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
