package assettree

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator orders asset keys the way a reader expects: locale-aware,
// ignoring case and accents, and comparing digit runs numerically so
// "part_2" sorts before "part_10".
type Collator struct {
	mu sync.Mutex // collate.Collator keeps internal buffers
	c  *collate.Collator
}

// NewCollator builds a collator for the given BCP 47 tag. Unparseable tags
// fall back to English.
func NewCollator(locale string) *Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Collator{c: collate.New(tag, collate.Loose, collate.Numeric)}
}

// Compare returns -1, 0 or 1. Strings equal under the collation are broken
// by byte order so sorting stays deterministic.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	r := c.c.CompareString(a, b)
	c.mu.Unlock()
	if r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

var (
	defaultCollatorOnce sync.Once
	defaultCollator     *Collator
)

// DefaultCollator returns the shared English collator.
func DefaultCollator() *Collator {
	defaultCollatorOnce.Do(func() {
		defaultCollator = NewCollator("en")
	})
	return defaultCollator
}
