package notifybus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mutgos/dbcore/dbid"
)

func TestRoutingKey_ScopedPerEntity(t *testing.T) {
	assert.Equal(t, "entity.1.5", routingKey(dbid.New(1, 5)))
	assert.Equal(t, "entity.2.5", routingKey(dbid.New(2, 5)))
}

func TestChangeEvent_MarshalsChangedFields(t *testing.T) {
	body, err := json.Marshal(changeEvent{
		SiteID:        1,
		EntityID:      5,
		ChangedFields: []string{"name", "owner"},
	})
	assert.NoError(t, err)

	var decoded changeEvent
	assert.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, []string{"name", "owner"}, decoded.ChangedFields)
	assert.EqualValues(t, 5, decoded.EntityID)
}
