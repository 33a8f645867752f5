package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorOnSuccessClearsRecord(t *testing.T) {
	c := New()
	key := Key{Controller: "kanidm", Namespace: "default", Name: "my-idm"}

	c.OnFailure(key)
	require.Equal(t, 1, c.ConsecutiveFailures(key))

	c.OnSuccess(key)
	assert.Equal(t, 0, c.ConsecutiveFailures(key))
	assert.True(t, c.ReadyAt(key).IsZero())
}

func TestCoordinatorOnFailureIncrementsAndCaps(t *testing.T) {
	c := New()
	key := Key{Controller: "kanidmgroup", Namespace: "ns", Name: "g"}

	var last time.Duration
	for i := 0; i < 40; i++ {
		d := c.OnFailure(key)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, c.cap)
		last = d
	}
	_ = last
	assert.Equal(t, 40, c.ConsecutiveFailures(key))
}

func TestCoordinatorReadyAtAdvancesIntoFuture(t *testing.T) {
	c := New()
	key := Key{Controller: "kanidmperson", Namespace: "ns", Name: "p"}

	before := time.Now()
	c.OnFailure(key)
	readyAt := c.ReadyAt(key)

	assert.True(t, readyAt.After(before) || readyAt.Equal(before))
}

func TestCoordinatorKeysAreIndependent(t *testing.T) {
	c := New()
	a := Key{Controller: "kanidm", Namespace: "ns", Name: "a"}
	b := Key{Controller: "kanidm", Namespace: "ns", Name: "b"}

	c.OnFailure(a)
	c.OnFailure(a)
	c.OnFailure(b)

	assert.Equal(t, 2, c.ConsecutiveFailures(a))
	assert.Equal(t, 1, c.ConsecutiveFailures(b))
}
