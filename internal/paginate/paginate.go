// Package paginate splits long replies into message-sized pages and tracks
// the page a reader is looking at.
package paginate

import (
	"fmt"
	"strings"
)

// DefaultMaxSize leaves headroom under Discord's 2000 character limit for
// the page footer.
const DefaultMaxSize = 1980

// Paginator accumulates lines into pages no longer than MaxSize, each
// wrapped in Prefix and Suffix.
type Paginator struct {
	Prefix  string
	Suffix  string
	MaxSize int

	pages   []string
	current []string
	size    int
}

// New returns a paginator producing code-block pages of DefaultMaxSize.
func New() *Paginator {
	return &Paginator{Prefix: "```", Suffix: "```", MaxSize: DefaultMaxSize}
}

func (p *Paginator) budget() int {
	limit := p.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	// Two newlines separate the prefix and suffix from the body.
	return limit - len(p.Prefix) - len(p.Suffix) - 2
}

// AddLine appends a line, starting a new page when it would not fit. Lines
// longer than a whole page are truncated.
func (p *Paginator) AddLine(line string) {
	budget := p.budget()
	if len(line) > budget {
		line = line[:budget]
	}
	// +1 for the newline joining it to the previous line.
	if len(p.current) > 0 && p.size+1+len(line) > budget {
		p.flush()
	}
	if len(p.current) > 0 {
		p.size++
	}
	p.current = append(p.current, line)
	p.size += len(line)
}

func (p *Paginator) flush() {
	if len(p.current) == 0 {
		return
	}
	p.pages = append(p.pages, p.Prefix+"\n"+strings.Join(p.current, "\n")+"\n"+p.Suffix)
	p.current = nil
	p.size = 0
}

// Pages returns the finished pages, closing the one in progress.
func (p *Paginator) Pages() []string {
	p.flush()
	return append([]string(nil), p.pages...)
}

// Pager tracks navigation through a fixed set of pages.
type Pager struct {
	pages []string
	index int
}

// NewPager starts at the first page.
func NewPager(pages []string) *Pager {
	return &Pager{pages: pages}
}

// Len returns the number of pages.
func (p *Pager) Len() int { return len(p.pages) }

// Index returns the zero-based current page.
func (p *Pager) Index() int { return p.index }

// Page returns the current page without a footer.
func (p *Pager) Page() string {
	if len(p.pages) == 0 {
		return ""
	}
	return p.pages[p.index]
}

// Next advances one page, stopping at the last.
func (p *Pager) Next() {
	if p.index < len(p.pages)-1 {
		p.index++
	}
}

// Prev goes back one page, stopping at the first.
func (p *Pager) Prev() {
	if p.index > 0 {
		p.index--
	}
}

// First jumps to the first page.
func (p *Pager) First() { p.index = 0 }

// Last jumps to the last page.
func (p *Pager) Last() {
	if len(p.pages) > 0 {
		p.index = len(p.pages) - 1
	}
}

// Render returns the current page with a "Page x/y" footer when there is
// more than one page.
func (p *Pager) Render() string {
	page := p.Page()
	if len(p.pages) <= 1 {
		return page
	}
	return fmt.Sprintf("%s\nPage %d/%d", page, p.index+1, len(p.pages))
}
