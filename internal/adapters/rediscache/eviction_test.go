package rediscache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mutgos/dbcore/dbid"
)

func TestRecencyKey_ScopedPerSite(t *testing.T) {
	assert.Equal(t, "mutgos:site:1:recency", recencyKey(1))
	assert.Equal(t, "mutgos:site:2:recency", recencyKey(2))
	assert.NotEqual(t, recencyKey(1), recencyKey(2))
}

func TestRecencyKey_MemberRoundTripsThroughDbid(t *testing.T) {
	id := dbid.New(3, 7)

	parsed, err := dbid.Parse(id.String(), 3)
	assert.NoError(t, err)
	assert.True(t, id.Equal(parsed))
}
