package reactive

import "strconv"

// Version marks successive states of an observable. Versions are totally
// ordered; NullVersion is below every real version.
type Version uint64

const (
	// NullVersion means "never observed".
	NullVersion Version = 0

	// FirstVersion is the version of a freshly created observable.
	FirstVersion Version = 1
)

// Next returns the version following v.
func (v Version) Next() Version {
	return v + 1
}

// IsNull reports whether v is the null version.
func (v Version) IsNull() bool {
	return v == NullVersion
}

// After reports whether v is strictly newer than other.
func (v Version) After(other Version) bool {
	return v > other
}

// String returns "null" or the decimal counter.
func (v Version) String() string {
	if v.IsNull() {
		return "null"
	}
	return "v" + strconv.FormatUint(uint64(v), 10)
}
