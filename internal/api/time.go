package api

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp decodes the server's ISO-8601 datetimes, which arrive both
// with a timezone suffix (RFC 3339) and without one (naive UTC).
type Timestamp struct {
	time.Time
}

// naiveLayout matches datetimes serialized without a zone; they are UTC.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts RFC 3339 and zone-less ISO-8601 strings, plus null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON emits RFC 3339 in UTC; the zero value becomes null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}
