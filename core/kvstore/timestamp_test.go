package kvstore_test

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
)

func TestTimestamp(t *testing.T) {
	t.Parallel()

	t.Run("fixed width utc", func(t *testing.T) {
		t.Parallel()

		east := time.FixedZone("UTC+3", 3*3600)
		ts := kvstore.Timestamp(time.Date(2026, 1, 1, 13, 0, 0, 0, east))
		data, err := json.Marshal(ts)
		require.NoError(t, err)
		assert.Equal(t, `"2026-01-01T10:00:00.000000000Z"`, string(data))
	})

	t.Run("same second instants sort in time order", func(t *testing.T) {
		t.Parallel()

		base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		instants := []time.Time{
			base.Add(123450 * time.Microsecond),
			base.Add(123400 * time.Microsecond),
			base.Add(500 * time.Millisecond),
			base,
			base.Add(7 * time.Nanosecond),
		}

		var encoded []string
		for _, in := range instants {
			text, err := kvstore.Timestamp(in).MarshalText()
			require.NoError(t, err)
			encoded = append(encoded, string(text))
		}
		sort.Strings(encoded)

		var decoded []time.Time
		for _, s := range encoded {
			var ts kvstore.Timestamp
			require.NoError(t, ts.UnmarshalText([]byte(s)))
			decoded = append(decoded, time.Time(ts))
		}
		for i := 1; i < len(decoded); i++ {
			assert.True(t, decoded[i-1].Before(decoded[i]), "%s before %s", encoded[i-1], encoded[i])
		}
	})

	t.Run("decodes variable width rfc3339", func(t *testing.T) {
		t.Parallel()

		var ts kvstore.Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2026-01-01T10:00:00.1234+02:00"`), &ts))
		want := time.Date(2026, 1, 1, 8, 0, 0, 123400000, time.UTC)
		assert.True(t, want.Equal(time.Time(ts)))
		assert.Equal(t, time.UTC, time.Time(ts).Location())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()

		var ts kvstore.Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})
}
