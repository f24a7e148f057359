package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"tatte-go/config"
)

func TestNewDisabledIsNop(t *testing.T) {
	p, err := New(config.MQTTConfig{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, Nop{}, p)
	require.NoError(t, p.Publish(Event{Phase: "enroll"}))
	p.Close()
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(Event{Phase: "enroll", Kind: "started", Total: 3}))
	require.NoError(t, r.Publish(Event{Phase: "enroll", Kind: "finished", Done: 3, Total: 3}))
	got := r.Events()
	require.Len(t, got, 2)
	require.Equal(t, "finished", got[1].Kind)
}

func TestTopicAndPayload(t *testing.T) {
	require.Equal(t, "tatte/harness/search", Topic("tatte/harness", "search"))

	data, err := json.Marshal(Event{RunID: "r1", Phase: "detect", Kind: "progress", Done: 1, Total: 2})
	require.NoError(t, err)
	require.Contains(t, string(data), `"run_id":"r1"`)
	require.NotContains(t, string(data), "fields")
}

func TestPublishWithoutConnection(t *testing.T) {
	p := &MQTTPublisher{config: config.MQTTConfig{Topic: "t"}}
	require.Error(t, p.Publish(Event{Phase: "enroll"}))
	p.Close()
}
