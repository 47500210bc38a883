package ingest

import (
	"net/url"
	"strings"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

// URIEntry is one URL of a text/uri-list, with the label given by the
// comment line before it, if any.
type URIEntry struct {
	URL   string
	Label string
}

// ParseURIList reads a text/uri-list. A "#" comment line labels the URL on
// the following line. Lines that are not absolute URLs are skipped.
func ParseURIList(list string) []URIEntry {
	var entries []URIEntry
	var label string
	for _, line := range strings.Split(strings.ReplaceAll(list, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			label = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			continue
		}

		u, err := url.Parse(line)
		if err != nil || u.Scheme == "" {
			label = ""
			continue
		}
		entries = append(entries, URIEntry{URL: u.String(), Label: label})
		label = ""
	}
	return entries
}

// text returns the link text: the label, or a short name derived from the
// URL.
func (e URIEntry) text() string {
	if e.Label != "" {
		return e.Label
	}
	return normalize.LinkLabel(e.URL)
}

// fromURIList converts a dropped or pasted URI list. A single URL becomes
// an inline link; several become one paragraph each.
func (d *Dispatcher) fromURIList(list string, target docsysSvc.Target) *docsysSvc.IngestResult {
	entries := ParseURIList(list)

	switch target {
	case docsysSvc.TargetMarkdown:
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = "[" + escapeLinkText(e.text()) + "](" + e.URL + ")"
		}
		return &docsysSvc.IngestResult{Text: strings.Join(lines, "\n")}

	case docsysSvc.TargetPlain:
		lines := make([]string, len(entries))
		for i, e := range entries {
			if e.Label != "" {
				lines[i] = e.Label + " " + e.URL
			} else {
				lines[i] = e.URL
			}
		}
		return &docsysSvc.IngestResult{Text: strings.Join(lines, "\n")}
	}

	if len(entries) == 1 {
		e := entries[0]
		return &docsysSvc.IngestResult{Nodes: []*doctree.Node{
			doctree.NewLink(e.URL, "", doctree.NewText(e.text())),
		}}
	}
	nodes := make([]*doctree.Node, len(entries))
	for i, e := range entries {
		nodes[i] = doctree.NewElement(doctree.TypeParagraph,
			doctree.NewLink(e.URL, "", doctree.NewText(e.text())),
		)
	}
	return &docsysSvc.IngestResult{Nodes: nodes}
}

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeLinkText(s string) string {
	return linkTextEscaper.Replace(s)
}
