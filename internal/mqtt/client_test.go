package mqtt

import (
	"strings"
	"testing"

	"github.com/berfenger/rfxcom2mqtt/internal/util"

	"github.com/stretchr/testify/assert"
)

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Duplicate() bool   { return false }
func (m testMessage) Qos() byte         { return 1 }
func (m testMessage) Retained() bool    { return false }
func (m testMessage) Topic() string     { return m.topic }
func (m testMessage) MessageID() uint16 { return 1 }
func (m testMessage) Payload() []byte   { return m.payload }
func (m testMessage) Ack()              {}

func TestOptsFromConfig(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	opts := OptsFromConfig(&cfg)

	assert.True(opts.WillEnabled)
	assert.True(opts.WillRetained)
	assert.Equal("rfxcom2mqtt/bridge/state", opts.WillTopic)
	assert.Equal([]byte("offline"), opts.WillPayload)
	assert.Equal("tcp://localhost:1883", opts.Servers[0].String())
	assert.True(strings.HasPrefix(opts.ClientID, "rfxcom2mqtt_"), opts.ClientID)
	assert.Len(opts.ClientID, len("rfxcom2mqtt_")+8)
}

func TestClientIdIsUnique(t *testing.T) {

	assert := assert.New(t)

	assert.NotEqual(clientId(), clientId())
}

func TestRecoverHandler(t *testing.T) {

	assert := assert.New(t)

	var received []string
	var panicked []string
	handler := RecoverHandler(func(topic string, payload []byte) {
		if string(payload) == "boom" {
			panic("boom")
		}
		received = append(received, topic)
	}, func(topic string, r any) {
		panicked = append(panicked, topic)
	})

	handler(nil, testMessage{topic: "rfxcom2mqtt/cmd/a", payload: []byte("boom")})
	handler(nil, testMessage{topic: "rfxcom2mqtt/cmd/b", payload: []byte("on")})

	assert.Equal([]string{"rfxcom2mqtt/cmd/a"}, panicked)
	assert.Equal([]string{"rfxcom2mqtt/cmd/b"}, received)
}
