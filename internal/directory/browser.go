package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrStale is returned by a load whose result was superseded by a later load
var ErrStale = errors.New("listing superseded by a newer request")

// State of the listing view
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Lister loads one page of the directory
type Lister interface {
	ListProfiles(ctx context.Context, q Query) (*Listing, error)
}

// View is a snapshot of the browser
type View struct {
	State        State
	Page         int // one-based
	Search       string
	Availability string
	Listing      *Listing
	Err          error
}

// Browser holds the filter and page state of the directory listing.
// Every load takes a generation number; results of older generations are
// dropped so a slow response cannot overwrite a newer one.
type Browser struct {
	lister   Lister
	pageSize int

	mu           sync.Mutex
	generation   uint64
	state        State
	page         int
	search       string
	availability string
	listing      *Listing
	err          error
}

func NewBrowser(lister Lister, pageSize int) *Browser {
	return &Browser{
		lister:   lister,
		pageSize: pageSize,
		page:     1,
	}
}

// Load fetches the page for the current filters
func (b *Browser) Load(ctx context.Context) error {
	gen, q := b.begin(nil)
	return b.run(ctx, gen, q)
}

// SetSearch changes the search text, goes back to page 1 and reloads
func (b *Browser) SetSearch(ctx context.Context, search string) error {
	gen, q := b.begin(func() {
		b.search = strings.TrimSpace(search)
		b.page = 1
	})
	return b.run(ctx, gen, q)
}

// SetAvailability changes the availability filter, goes back to page 1 and reloads
func (b *Browser) SetAvailability(ctx context.Context, availability string) error {
	gen, q := b.begin(func() {
		b.availability = strings.ToLower(strings.TrimSpace(availability))
		b.page = 1
	})
	return b.run(ctx, gen, q)
}

// SetPage moves to a one-based page and reloads
func (b *Browser) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	gen, q := b.begin(func() { b.page = page })
	return b.run(ctx, gen, q)
}

// Open sets filters and page together and loads once
func (b *Browser) Open(ctx context.Context, page int, search, availability string) error {
	if page < 1 {
		page = 1
	}
	gen, q := b.begin(func() {
		b.search = strings.TrimSpace(search)
		b.availability = strings.ToLower(strings.TrimSpace(availability))
		b.page = page
	})
	return b.run(ctx, gen, q)
}

// Retry reloads after an error
func (b *Browser) Retry(ctx context.Context) error {
	return b.Load(ctx)
}

// View returns a snapshot of the current state
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return View{
		State:        b.state,
		Page:         b.page,
		Search:       b.search,
		Availability: b.availability,
		Listing:      b.listing,
		Err:          b.err,
	}
}

// Summary renders the results line for the current state
func (b *Browser) Summary() string {
	v := b.View()
	if v.State == StateLoading || v.Listing == nil {
		return Summary(v.State == StateLoading, 0, 0, v.Search)
	}
	return Summary(false, len(v.Listing.Items), v.Listing.TotalElements, v.Search)
}

// Pages returns the pagination window for the current listing
func (b *Browser) Pages() []int {
	v := b.View()
	if v.Listing == nil {
		return nil
	}
	return VisiblePages(v.Page, v.Listing.TotalPages)
}

func (b *Browser) begin(mutate func()) (uint64, Query) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mutate != nil {
		mutate()
	}
	b.generation++
	b.state = StateLoading
	b.err = nil
	return b.generation, Query{
		Page:         UIPageToIndex(b.page),
		Size:         b.pageSize,
		Search:       b.search,
		Availability: b.availability,
	}
}

func (b *Browser) run(ctx context.Context, gen uint64, q Query) error {
	listing, err := b.lister.ListProfiles(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		return ErrStale
	}
	if err != nil {
		b.state = StateError
		b.err = err
		return err
	}
	b.state = StateSuccess
	b.listing = listing
	return nil
}
