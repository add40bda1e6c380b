package domain

import "strings"

// Row is one row of text cells as produced by table extraction.
type Row struct {
	Cells  []string `json:"cells"`
	Source Source   `json:"source"`
}

// Text joins the row's non-blank cells with single spaces.
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// IsBlank reports whether every cell is empty or whitespace.
func (r Row) IsBlank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Page is one page (or sheet) of an extracted document.
type Page struct {
	Number int    `json:"number"`
	Title  string `json:"title,omitempty"`
	Rows   []Row  `json:"rows"`
}

// Text returns the page's rows joined by newlines.
func (p Page) Text() string {
	lines := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		lines = append(lines, r.Text())
	}
	return strings.Join(lines, "\n")
}

// Document is the extracted content of one source file.
type Document struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// Text returns the text of all pages.
func (d Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}

// Stamp sets the recency sequence on every row's provenance and fills in
// the document name and page number where extraction left them empty.
func (d *Document) Stamp(seq int) {
	for p := range d.Pages {
		page := &d.Pages[p]
		for r := range page.Rows {
			src := &page.Rows[r].Source
			src.Seq = seq
			if src.Document == "" {
				src.Document = d.Name
			}
			if src.Page == 0 {
				src.Page = page.Number
			}
			if src.Row == 0 {
				src.Row = r + 1
			}
		}
	}
}
