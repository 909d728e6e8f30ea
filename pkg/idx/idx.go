// Package idx mints the ULID identifiers used across kinfolk services.
// IDs are lexicographically sortable, so newest-first listings fall out of
// a plain ORDER BY on the primary key.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical 26-character string form.
type ID string

// Zero is the empty ID, only meaningful as a placeholder.
const Zero ID = ""

// ErrInvalid reports a string that is not a canonical ULID.
var ErrInvalid = errors.New("idx: invalid ulid")

// mintMu guards the monotonic entropy source. ulid.MonotonicEntropy is not
// safe for concurrent readers.
var (
	mintMu  sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

func mint(t time.Time) ID {
	mintMu.Lock()
	defer mintMu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// New returns a fresh ID stamped with the current UTC time. IDs minted
// within the same millisecond still sort in mint order.
func New() ID {
	return mint(time.Now().UTC())
}

// NewAt returns an ID stamped with the given time. Tests use it to build
// rows with a known ordering.
func NewAt(t time.Time) ID {
	return mint(t)
}

// Parse validates s as a canonical ULID and returns it as an ID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// MustParse is Parse for hard-coded IDs; it panics on malformed input.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether id is empty.
func (id ID) IsZero() bool { return id == Zero }

// String returns the ID as its canonical 26-character string.
func (id ID) String() string { return string(id) }

// Time extracts the millisecond timestamp embedded in the ID. Zero or
// malformed IDs yield the zero time.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// Compare orders two IDs lexically: -1 if a < b, 0 if equal, +1 if a > b.
// For valid ULIDs this is creation order.
func Compare(a, b ID) int {
	return strings.Compare(string(a), string(b))
}
