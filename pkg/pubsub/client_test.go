package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecomarket/ecocoins-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/eco/topics/eco-orders", TopicResourceName("eco", "eco-orders"))
	assert.Equal(t, "projects/other/topics/x", TopicResourceName("eco", "projects/other/topics/x"))
	assert.Empty(t, TopicResourceName("", "eco-orders"))
	assert.Empty(t, TopicResourceName("eco", "  "))
}

func TestNormalizeNamesDropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeNames([]string{" a ", "", "b"}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, []string{"eco-orders"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("eco-orders"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
