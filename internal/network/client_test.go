package network

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDirect(t *testing.T) {
	client, err := NewClient("", 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, transport.DialContext)
}

func TestNewClientSOCKS5(t *testing.T) {
	client, err := NewClient("127.0.0.1:9050", time.Minute)
	require.NoError(t, err)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.DialContext)
	assert.Nil(t, transport.Proxy)
}
