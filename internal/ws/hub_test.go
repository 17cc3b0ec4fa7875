package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishQueuesJSON(t *testing.T) {
	h := NewHub(zap.NewNop())

	h.Publish(map[string]any{"type": "stock_update", "newQuantity": 8})

	msg := <-h.Broadcast
	var got map[string]any
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "stock_update", got["type"])
	assert.Equal(t, float64(8), got["newQuantity"])
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := NewHub(zap.NewNop())
	for i := 0; i < broadcastBuffer+10; i++ {
		h.Publish(i)
	}
	assert.Len(t, h.Broadcast, broadcastBuffer)
}

func TestHub_CloseStopsRun(t *testing.T) {
	h := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()
	h.Close()
	<-stopped
	assert.Equal(t, 0, h.ClientCount())
}
