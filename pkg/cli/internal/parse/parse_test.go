package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPort(t *testing.T) {
	host, port, err := HostPort("localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 8080, port)

	host, port, err = HostPort(":9000")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 9000, port)

	host, _, err = HostPort("[::1]:80")
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
}

func TestHostPortInvalid(t *testing.T) {
	for _, addr := range []string{"localhost", "localhost:http", "localhost:0", "localhost:70000", ""} {
		_, _, err := HostPort(addr)
		assert.Error(t, err, addr)
	}
}
