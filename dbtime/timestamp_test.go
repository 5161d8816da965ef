package dbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeStamp_ZeroValue(t *testing.T) {
	var ts TimeStamp

	assert.True(t, ts.IsZero())
	assert.Equal(t, "unset", ts.String())
}

func TestTimeStamp_FromTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("TEST", 3*60*60)
	local := time.Date(2026, 7, 30, 12, 0, 0, 0, loc)

	ts := FromTime(local)

	assert.Equal(t, time.UTC, ts.Time().Location())
	assert.Equal(t, 9, ts.Time().Hour())
}

func TestTimeStamp_Ordering(t *testing.T) {
	earlier := FromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	later := FromTime(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	assert.True(t, earlier.Before(later))
	assert.True(t, later.After(earlier))
	assert.False(t, earlier.Equal(later))
	assert.True(t, earlier.Equal(earlier))
}

func TestTimeStamp_TextRoundTrip(t *testing.T) {
	want := FromTime(time.Date(2026, 7, 30, 8, 30, 0, 0, time.UTC))

	data, err := want.MarshalText()
	assert.NoError(t, err)

	var got TimeStamp
	assert.NoError(t, got.UnmarshalText(data))
	assert.True(t, want.Equal(got))
}

func TestTimeStamp_TextRoundTrip_Zero(t *testing.T) {
	data, err := Zero.MarshalText()
	assert.NoError(t, err)
	assert.Empty(t, data)

	var got TimeStamp
	got.t = FromTime(time.Now()).t
	assert.NoError(t, got.UnmarshalText(data))
	assert.True(t, got.IsZero())
}
