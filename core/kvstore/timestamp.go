package kvstore

import "time"

// TimestampLayout is the persisted time format: UTC with nine fraction digits,
// so every value has the same width and text order is time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp is a time.Time that encodes with TimestampLayout.
// Decoding accepts any RFC 3339 value.
type Timestamp time.Time

func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).UTC().Format(TimestampLayout)), nil
}

func (t *Timestamp) UnmarshalText(data []byte) error {
	parsed, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}
