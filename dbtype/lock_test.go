package dbtype

import (
	"testing"

	"github.com/mutgos/dbcore/dbid"
	"github.com/stretchr/testify/assert"
)

type fakeGroups map[dbid.Id][]dbid.Id

func (g fakeGroups) IsMember(group, candidate dbid.Id) bool {
	for _, m := range g[group] {
		if m.Equal(candidate) {
			return true
		}
	}

	return false
}

type fakeProps map[string]PropertyData

func (p fakeProps) ReadProperty(candidate dbid.Id, path string) (PropertyData, bool) {
	v, ok := p[path]

	return v, ok
}

func TestLock_ByID(t *testing.T) {
	target := dbid.New(1, 5)
	lock := NewByID(target, false)

	ok, err := lock.Evaluate(target, nil, nil)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Evaluate(dbid.New(1, 6), nil, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_ByID_Negated(t *testing.T) {
	target := dbid.New(1, 5)
	lock := NewByID(target, true)

	ok, err := lock.Evaluate(target, nil, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_ByGroup(t *testing.T) {
	group := dbid.New(1, 1)
	member := dbid.New(1, 2)
	nonMember := dbid.New(1, 3)

	groups := fakeGroups{group: {member}}
	lock := NewByGroup(group, false)

	ok, err := lock.Evaluate(member, groups, nil)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Evaluate(nonMember, groups, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_ByGroup_MissingChecker(t *testing.T) {
	lock := NewByGroup(dbid.New(1, 1), false)

	_, err := lock.Evaluate(dbid.New(1, 2), nil, nil)
	assert.Error(t, err)
}

func TestLock_ByProperty(t *testing.T) {
	props := fakeProps{"rank": NewString("officer")}
	lock := NewByProperty("rank", NewString("officer"), false)

	ok, err := lock.Evaluate(dbid.New(1, 2), nil, props)
	assert.NoError(t, err)
	assert.True(t, ok)

	lock = NewByProperty("rank", NewString("captain"), false)
	ok, err = lock.Evaluate(dbid.New(1, 2), nil, props)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLock_ZeroValueIsInvalidAndPasses(t *testing.T) {
	var lock Lock
	assert.Equal(t, LockInvalid, lock.Kind())

	ok, err := lock.Evaluate(dbid.New(1, 2), nil, nil)
	assert.NoError(t, err)
	assert.True(t, ok, "an unset lock must pass any candidate")
}

func TestLock_Invalid_IgnoresNegate(t *testing.T) {
	lock := Lock{kind: LockInvalid, negate: true}

	ok, err := lock.Evaluate(dbid.New(1, 2), nil, nil)
	assert.NoError(t, err)
	assert.True(t, ok, "negate must not be applied when the lock is invalid")
}
