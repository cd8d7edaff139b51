// Package ledger keeps a persistent record of every tag minted in a project.
//
// Tags are truncated digests, so two different feeds can in principle map to
// the same tag, and a changed derivation maps the same feed to a new tag. The
// ledger remembers tag → feed and feed → tag across builds and reports both
// situations.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"aidacc/internal/idhash"
)

const (
	bucketTags  = "tags"
	bucketFeeds = "feeds"
)

var initDB = map[string]func(*bolt.Tx) error{
	"initialize tag table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTags))
		return err
	},
	"initialize feed table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketFeeds))
		return err
	},
}

// ConflictKind classifies a ledger conflict.
type ConflictKind uint8

const (
	// Collision: a tag already recorded for a different feed.
	Collision ConflictKind = iota + 1
	// Drift: a feed already recorded with a different tag.
	Drift
)

func (k ConflictKind) String() string {
	switch k {
	case Collision:
		return "collision"
	case Drift:
		return "drift"
	default:
		return fmt.Sprintf("ConflictKind(%d)", uint8(k))
	}
}

// Conflict is one disagreement between a new entry and the ledger.
type Conflict struct {
	Kind    ConflictKind
	Subject string
	Tag     idhash.Tag
	Feed    string
	// Previous is the recorded feed for a Collision and the recorded tag (hex)
	// for a Drift.
	Previous string
}

func (c Conflict) String() string {
	switch c.Kind {
	case Collision:
		return fmt.Sprintf("tag %s of %s collides with recorded feed %q", c.Tag, c.Subject, c.Previous)
	case Drift:
		return fmt.Sprintf("tag of %s changed from %s to %s", c.Subject, c.Previous, c.Tag)
	}
	return c.Subject
}

// Ledger is an open tag database.
type Ledger struct {
	db   *bolt.DB
	path string
}

// Open opens or creates the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file.
func (l *Ledger) Path() string { return l.path }

// Close releases the database.
func (l *Ledger) Close() error { return l.db.Close() }

// Record stores entries and returns the conflicts they raise. A colliding
// tag keeps its first feed; a drifted feed is rebound to its new tag so the
// drift is reported once.
func (l *Ledger) Record(entries []idhash.Entry) ([]Conflict, error) {
	var conflicts []Conflict
	err := l.db.Update(func(tx *bolt.Tx) error {
		tags := tx.Bucket([]byte(bucketTags))
		feeds := tx.Bucket([]byte(bucketFeeds))
		for _, e := range entries {
			tag, feed := append([]byte(nil), e.Tag[:]...), []byte(e.Feed)

			if old := feeds.Get(feed); old != nil && string(old) != string(tag) {
				var prev idhash.Tag
				copy(prev[:], old)
				conflicts = append(conflicts, Conflict{Kind: Drift, Subject: e.Subject, Tag: e.Tag, Feed: e.Feed, Previous: prev.String()})
			}
			if err := feeds.Put(feed, tag); err != nil {
				return err
			}

			if old := tags.Get(tag); old != nil {
				if string(old) != e.Feed {
					conflicts = append(conflicts, Conflict{Kind: Collision, Subject: e.Subject, Tag: e.Tag, Feed: e.Feed, Previous: string(old)})
				}
				continue
			}
			if err := tags.Put(tag, feed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger %s: record: %w", l.path, err)
	}
	return conflicts, nil
}

// Feed returns the feed recorded for tag.
func (l *Ledger) Feed(tag idhash.Tag) (string, bool, error) {
	var (
		feed string
		ok   bool
	)
	err := l.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketTags)).Get(tag[:]); v != nil {
			feed, ok = string(v), true
		}
		return nil
	})
	return feed, ok, err
}

// Len returns the number of recorded tags.
func (l *Ledger) Len() (int, error) {
	var n int
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTags)).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}
