package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	driver "go.mongodb.org/mongo-driver/mongo"

	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

func TestTranslateMongoError_Nil(t *testing.T) {
	assert.NoError(t, translateMongoError(nil, "whatever"))
}

func TestTranslateMongoError_NoDocuments(t *testing.T) {
	err := translateMongoError(driver.ErrNoDocuments, "loading entity %s", "1.5")

	var dbErr dberrors.Error
	assert.True(t, errors.As(err, &dbErr))
	assert.Equal(t, dberrors.KindNotFound, dbErr.Kind)
}

func TestTranslateMongoError_FallsBackToDatabaseError(t *testing.T) {
	err := translateMongoError(errors.New("connection reset"), "finding entities in site %d", 1)

	var dbErr dberrors.Error
	assert.True(t, errors.As(err, &dbErr))
	assert.Equal(t, dberrors.KindDatabaseError, dbErr.Kind)
}

func TestDecodeEntityName_RoundTripsThroughMarshalEntity(t *testing.T) {
	id := dbid.New(1, 5)

	entity, err := dbtype.NewEntity(id, dbtype.TypeThing, id, "a brass lantern")
	assert.NoError(t, err)

	data, err := dbtype.MarshalEntity(entity)
	assert.NoError(t, err)

	name, err := decodeEntityName(data)
	assert.NoError(t, err)
	assert.Equal(t, "a brass lantern", name)
}

func TestDecodeEntityName_BadData(t *testing.T) {
	_, err := decodeEntityName([]byte("not msgpack"))
	assert.Error(t, err)
}
