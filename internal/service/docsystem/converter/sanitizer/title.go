package sanitizer

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/atom"

	"github.com/DougReeder/notes-together-sub002/internal/config"
)

// titleRank orders the title buckets, best first.
type titleRank int

const (
	rankNone titleRank = iota
	rankHeading
	rankHigh
	rankOrdinary
	rankLow
)

// titleLines is the number of entries taken from the winning bucket.
const titleLines = 2

var highValueTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Blockquote: true,
	atom.Section:    true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Caption:    true,
}

var ordinaryTags = map[atom.Atom]bool{
	atom.Pre:        true,
	atom.Article:    true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Main:       true,
	atom.Aside:      true,
	atom.Address:    true,
	atom.Figure:     true,
	atom.Figcaption: true,
	atom.Hgroup:     true,
	atom.Details:    true,
	atom.Summary:    true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Dd:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Svg:        true,
}

var lowValueTags = map[atom.Atom]bool{
	atom.A:      true,
	atom.Em:     true,
	atom.I:      true,
	atom.Strong: true,
	atom.B:      true,
	atom.U:      true,
	atom.S:      true,
	atom.Strike: true,
	atom.Del:    true,
	atom.Ins:    true,
	atom.Sub:    true,
	atom.Sup:    true,
	atom.Code:   true,
	atom.Kbd:    true,
	atom.Samp:   true,
	atom.Tt:     true,
	atom.Var:    true,
	atom.Mark:   true,
	atom.Small:  true,
	atom.Span:   true,
	atom.Abbr:   true,
	atom.Cite:   true,
	atom.Dfn:    true,
	atom.Q:      true,
	atom.Time:   true,
	atom.Table:  true,
	atom.Thead:  true,
	atom.Tbody:  true,
	atom.Tfoot:  true,
	atom.Tr:     true,
	atom.Th:     true,
	atom.Td:     true,
	atom.Ruby:   true,
	atom.Rt:     true,
	atom.Rp:     true,
}

// headingLevel returns 1..6 for h1..h6, else 0.
func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// rankOf classifies a tag for title extraction. Block ranks own the text
// beneath them; low-ranked inlines own text only outside any block.
func rankOf(a atom.Atom) titleRank {
	switch {
	case headingLevel(a) > 0:
		return rankHeading
	case highValueTags[a]:
		return rankHigh
	case ordinaryTags[a]:
		return rankOrdinary
	case lowValueTags[a]:
		return rankLow
	}
	return rankNone
}

type titleEntry struct {
	rank  titleRank
	level int
	order int
	text  strings.Builder
}

// titleCollector gathers candidate texts during the sanitizing walk.
type titleCollector struct {
	entries []*titleEntry
	owners  []*titleEntry
	bare    *titleEntry
}

// open starts an entry for an element, or returns nil when the element does
// not take ownership of its text.
func (c *titleCollector) open(a atom.Atom) *titleEntry {
	rank := rankOf(a)
	switch rank {
	case rankNone:
		return nil
	case rankLow:
		if len(c.owners) > 0 {
			return nil
		}
	}
	e := c.add(rank)
	e.level = headingLevel(a)
	if a == atom.Li {
		e.text.WriteString("• ")
	}
	c.owners = append(c.owners, e)
	return e
}

// close ends the entry returned by open.
func (c *titleCollector) close(e *titleEntry) {
	if e == nil {
		return
	}
	c.owners = c.owners[:len(c.owners)-1]
}

func (c *titleCollector) add(rank titleRank) *titleEntry {
	e := &titleEntry{rank: rank, order: len(c.entries)}
	c.entries = append(c.entries, e)
	return e
}

// text appends a text run to the innermost owner.
func (c *titleCollector) text(s string) {
	var e *titleEntry
	if len(c.owners) > 0 {
		e = c.owners[len(c.owners)-1]
	} else {
		if c.bare == nil {
			c.bare = c.add(rankOrdinary)
		}
		e = c.bare
	}
	e.text.WriteString(s)
}

// alt records image alternative text as its own ordinary entry.
func (c *titleCollector) alt(s string) {
	c.add(rankOrdinary).text.WriteString(s)
}

// title picks the best non-empty bucket and joins up to titleLines of its
// entries.
func (c *titleCollector) title() string {
	buckets := map[titleRank][]*titleEntry{}
	for _, e := range c.entries {
		if t := collapse(e.text.String()); t == "" || t == "•" {
			continue
		}
		buckets[e.rank] = append(buckets[e.rank], e)
	}

	for _, rank := range []titleRank{rankHeading, rankHigh, rankOrdinary, rankLow} {
		picked := buckets[rank]
		if len(picked) == 0 {
			continue
		}
		if rank == rankHeading {
			sort.SliceStable(picked, func(i, j int) bool {
				return picked[i].level < picked[j].level
			})
		}
		if len(picked) > titleLines {
			picked = picked[:titleLines]
		}
		lines := make([]string, len(picked))
		for i, e := range picked {
			lines[i] = collapse(e.text.String())
		}
		return Truncate(strings.Join(lines, "\n"), config.TitleMax)
	}
	return ""
}

// collapse trims s and reduces runs of whitespace to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most max characters.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
