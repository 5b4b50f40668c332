package tui

import (
	"strings"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

// query is the full navigation state sent with every page request.
type query struct {
	Search string
	Status model.Status
	Page   int
}

func (q query) filter() model.Filter {
	return model.Filter{Search: q.Search, Status: q.Status}
}

// request is one issued page fetch. Only the response to the most recent
// request is applied.
type request struct {
	seq   uint64
	query query
}

// browser tracks search, status and page for one paginated pane and drops
// responses to superseded requests.
type browser[T any] struct {
	query  query
	seq    uint64
	page   model.Page[T]
	loaded bool
}

func newBrowser[T any]() *browser[T] {
	return &browser[T]{
		query: query{Status: model.StatusAll, Page: 1},
		page:  model.Page[T]{CurrentPage: 1, LastPage: 1},
	}
}

func (b *browser[T]) issue() request {
	b.seq++
	return request{seq: b.seq, query: b.query}
}

// search sets the term and starts over at the first page.
func (b *browser[T]) search(term string) request {
	b.query.Search = strings.TrimSpace(term)
	b.query.Page = 1
	return b.issue()
}

func (b *browser[T]) setStatus(status model.Status) request {
	if !status.Valid() {
		status = model.StatusAll
	}
	b.query.Status = status
	b.query.Page = 1
	return b.issue()
}

func (b *browser[T]) cycleStatus() request {
	return b.setStatus(b.query.Status.Next())
}

// goTo clamps page to the known bounds. It reports false when the clamped
// page is already the current one.
func (b *browser[T]) goTo(page int) (request, bool) {
	page = max(1, min(page, b.lastPage()))
	if b.loaded && page == b.page.CurrentPage {
		return request{}, false
	}
	b.query.Page = page
	return b.issue(), true
}

func (b *browser[T]) next() (request, bool) {
	if !b.hasNext() {
		return request{}, false
	}
	return b.goTo(b.page.CurrentPage + 1)
}

func (b *browser[T]) prev() (request, bool) {
	if !b.hasPrev() {
		return request{}, false
	}
	return b.goTo(b.page.CurrentPage - 1)
}

// reload repeats the current query, e.g. after a mutation.
func (b *browser[T]) reload() request {
	return b.issue()
}

// apply installs page if req is still the latest request.
func (b *browser[T]) apply(req request, page model.Page[T]) bool {
	if req.seq != b.seq {
		return false
	}
	b.page = page
	b.query.Page = page.CurrentPage
	b.loaded = true
	return true
}

// stale reports whether req has been superseded.
func (b *browser[T]) stale(req request) bool {
	return req.seq != b.seq
}

func (b *browser[T]) lastPage() int {
	return max(b.page.LastPage, 1)
}

func (b *browser[T]) hasPrev() bool {
	return b.loaded && b.page.CurrentPage > 1
}

func (b *browser[T]) hasNext() bool {
	return b.loaded && b.page.CurrentPage < b.page.LastPage
}

func (b *browser[T]) items() []T {
	return b.page.Data
}
