package denylist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("www"))
	assert.True(t, IsReserved("WWW"))
	assert.True(t, IsReserved(" mail "))
	assert.True(t, IsReserved("pulsar"))
	assert.False(t, IsReserved("hsts"))
	assert.False(t, IsReserved(""))
}
