package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier used for audit and
// history rows. Sorting by id gives insertion order without a sequence.
func New() string {
	return ulid.Make().String()
}
