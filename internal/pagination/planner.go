// Cinelog - Movie Watch History Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinelog

// Package pagination turns ledger counts into navigable page links.
package pagination

// WindowSize is the maximum number of page links rendered around the current page.
const WindowSize = 5

// Elements describes the page links of one history page.
type Elements struct {
	CurrentPage int   `json:"currentPage"`
	MaxPage     int   `json:"maxPage"`
	Previous    *int  `json:"previous"`
	Next        *int  `json:"next"`
	Pages       []int `json:"pages"`
}

// Plan computes pagination elements for totalCount items split into pages of
// pageSize. requestedPage is clamped into [1, MaxPage]. A non-positive
// pageSize means everything fits on one page.
func Plan(totalCount, pageSize, requestedPage int) Elements {
	maxPage := 1
	if pageSize > 0 && totalCount > 0 {
		maxPage = (totalCount + pageSize - 1) / pageSize
	}

	current := requestedPage
	if current < 1 {
		current = 1
	}
	if current > maxPage {
		current = maxPage
	}

	e := Elements{
		CurrentPage: current,
		MaxPage:     maxPage,
		Pages:       window(current, maxPage),
	}
	if current > 1 {
		prev := current - 1
		e.Previous = &prev
	}
	if current < maxPage {
		next := current + 1
		e.Next = &next
	}
	return e
}

// window returns up to WindowSize consecutive pages, centered on current
// where the bounds allow it.
func window(current, maxPage int) []int {
	first := current - WindowSize/2
	if first+WindowSize-1 > maxPage {
		first = maxPage - WindowSize + 1
	}
	if first < 1 {
		first = 1
	}
	last := first + WindowSize - 1
	if last > maxPage {
		last = maxPage
	}

	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}
