package courtroom

import (
	"testing"

	"github.com/justix/courtsim-core/core/session"
)

func TestEvidenceSnapshotPagingWrapsAround(t *testing.T) {
	snapshot := &EvidenceSnapshot{Pages: []session.Evidence{
		{URL: "page-0"}, {URL: "page-1"}, {URL: "page-2"},
	}}

	if got := snapshot.NextPage(0); got != 1 {
		t.Fatalf("expected next of 0 to be 1, got %d", got)
	}
	if got := snapshot.NextPage(2); got != 0 {
		t.Fatalf("expected next of the last page to wrap to 0, got %d", got)
	}
	if got := snapshot.PrevPage(2); got != 1 {
		t.Fatalf("expected prev of 2 to be 1, got %d", got)
	}
	if got := snapshot.PrevPage(0); got != 2 {
		t.Fatalf("expected prev of the first page to wrap to 2, got %d", got)
	}

	if got := snapshot.Page(1).URL; got != "page-1" {
		t.Fatalf("expected page-1, got %q", got)
	}
	if got := snapshot.Page(7).URL; got != "" {
		t.Fatalf("expected out-of-range page to be empty, got %q", got)
	}
}

func TestEvidenceSnapshotPagingOnEmptySnapshot(t *testing.T) {
	empty := &EvidenceSnapshot{}
	if empty.NextPage(0) != 0 || empty.PrevPage(0) != 0 {
		t.Fatal("expected paging an empty snapshot to stay at zero")
	}

	var nilSnapshot *EvidenceSnapshot
	if nilSnapshot.PageCount() != 0 {
		t.Fatal("expected a nil snapshot to report no pages")
	}
}
