package courtroom

import (
	"time"

	"github.com/justix/courtsim-core/core/session"
)

// EvidenceSnapshot is an immutable view of the case's evidence pages. The
// courtroom replaces the whole snapshot atomically when pages arrive;
// readers keep whatever snapshot they loaded and never observe a partial
// update.
type EvidenceSnapshot struct {
	FetchedAt time.Time
	Pages     []session.Evidence
}

// PageCount returns the number of fetched pages.
func (s *EvidenceSnapshot) PageCount() int {
	if s == nil {
		return 0
	}
	return len(s.Pages)
}

// Page returns the page at index, or the zero value when out of range.
func (s *EvidenceSnapshot) Page(index int) session.Evidence {
	if s == nil || index < 0 || index >= len(s.Pages) {
		return session.Evidence{}
	}
	return s.Pages[index]
}

// NextPage returns the index of the page after current, wrapping past the
// last page back to the first. Paging an empty snapshot stays at zero.
func (s *EvidenceSnapshot) NextPage(current int) int {
	count := s.PageCount()
	if count == 0 {
		return 0
	}
	return ((current+1)%count + count) % count
}

// PrevPage returns the index of the page before current, wrapping past the
// first page back to the last.
func (s *EvidenceSnapshot) PrevPage(current int) int {
	count := s.PageCount()
	if count == 0 {
		return 0
	}
	return ((current-1)%count + count) % count
}
