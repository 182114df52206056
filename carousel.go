package infoboard

import "time"

// Carousel cycles through a fixed number of pages, giving each one a dwell
// period on screen. It only tracks the page index and its timer; owners map
// the index onto whatever they paginate.
//
// A Carousel with zero pages stays at index 0 and never advances; callers
// render a fallback for that case.
type Carousel struct {
	dwell   time.Duration
	pages   int
	index   int
	elapsed time.Duration
}

// NewCarousel returns an empty Carousel showing each page for dwell.
func NewCarousel(dwell time.Duration) *Carousel {
	return &Carousel{dwell: dwell}
}

// SetPages resizes the carousel. The current index is kept when it still
// fits and snaps back to 0 when it does not.
func (c *Carousel) SetPages(pages int) {
	if pages < 0 {
		pages = 0
	}
	c.pages = pages
	if c.index >= pages {
		c.index = 0
	}
}

// Pages returns the number of pages.
func (c *Carousel) Pages() int {
	return c.pages
}

// Index returns the current page index, 0 when empty.
func (c *Carousel) Index() int {
	return c.index
}

// Advance moves the dwell timer forward by dt and flips to the next page
// once the current one has had its time, wrapping to 0 after the last. It
// reports whether the page changed.
func (c *Carousel) Advance(dt time.Duration) bool {
	if c.pages == 0 {
		return false
	}
	c.elapsed += dt
	if c.elapsed < c.dwell {
		return false
	}
	c.elapsed = 0
	c.index++
	if c.index >= c.pages {
		c.index = 0
	}
	return true
}

// Reset snaps back to the first page with a full dwell, so a slot always
// opens on the same frame.
func (c *Carousel) Reset() {
	c.index = 0
	c.elapsed = 0
}
