package main

import (
	"testing"

	"github.com/berfenger/rfxcom2mqtt/pkg/rfxcom"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigStarts(t *testing.T) {

	assert := assert.New(t)

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := initConfig()
	require.NoError(t, err)
	assert.Equal(rfxcom.DUMMY_PORT, cfg.Rfxcom.UsbPort)
	assert.Equal("rfxcom2mqtt", cfg.MQTT.BaseTopic)

	// the default port must yield a transceiver
	_, err = rfxcom.CreateTransceiver(cfg.Rfxcom.UsbPort)
	assert.NoError(err)
}
