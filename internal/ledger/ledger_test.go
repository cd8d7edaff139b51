package ledger

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aidacc/internal/idhash"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "tags.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func entry(subject, feed string, first byte) idhash.Entry {
	var tag idhash.Tag
	tag[0] = first
	tag[15] = 0x01
	return idhash.Entry{Subject: subject, Purpose: "type", Feed: feed, Tag: tag}
}

func TestRecordIsIdempotent(t *testing.T) {
	l := openTemp(t)
	entries := []idhash.Entry{entry("A", "feed-a", 0x01), entry("B", "feed-b", 0x02)}
	for range 2 {
		conflicts, err := l.Record(entries)
		if err != nil {
			t.Fatal(err)
		}
		if len(conflicts) != 0 {
			t.Fatalf("conflicts = %v", conflicts)
		}
	}
	if n, err := l.Len(); err != nil || n != 2 {
		t.Errorf("Len = %d, %v", n, err)
	}
	if feed, ok, err := l.Feed(entries[1].Tag); err != nil || !ok || feed != "feed-b" {
		t.Errorf("Feed = %q, %v, %v", feed, ok, err)
	}
}

func TestCollisionAndDrift(t *testing.T) {
	l := openTemp(t)
	if _, err := l.Record([]idhash.Entry{entry("A", "feed-a", 0x01)}); err != nil {
		t.Fatal(err)
	}
	collide := entry("B", "feed-b", 0x01)
	drift := entry("A", "feed-a", 0x07)
	got, err := l.Record([]idhash.Entry{collide, drift})
	if err != nil {
		t.Fatal(err)
	}
	want := []Conflict{
		{Kind: Collision, Subject: "B", Tag: collide.Tag, Feed: "feed-b", Previous: "feed-a"},
		{Kind: Drift, Subject: "A", Tag: drift.Tag, Feed: "feed-a", Previous: entry("", "", 0x01).Tag.String()},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conflicts (-want +got):\n%s", diff)
	}

	// drift is reported once, the collision keeps the first feed
	got, err = l.Record([]idhash.Entry{drift})
	if err != nil || len(got) != 0 {
		t.Errorf("second record = %v, %v", got, err)
	}
	if feed, _, _ := l.Feed(collide.Tag); feed != "feed-a" {
		t.Errorf("collided tag feed = %q, want feed-a", feed)
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Record([]idhash.Entry{entry("A", "feed-a", 0x01)}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	l, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	got, err := l.Record([]idhash.Entry{entry("A", "feed-a", 0x02)})
	if err != nil || len(got) != 1 || got[0].Kind != Drift {
		t.Errorf("conflicts after reopen = %v, %v", got, err)
	}
}
