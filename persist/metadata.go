package persist

import "time"

// TimestampPrefix starts every metadata string TimestampMetadata produces.
const TimestampPrefix = "computed "

// TimestampMetadata is a ready-made metadata provider recording when each
// result was written: the prefix followed by an RFC 3339 UTC timestamp, a
// fixed 29 characters in total.
func TimestampMetadata() string {
	return TimestampPrefix + time.Now().UTC().Format(time.RFC3339)
}
