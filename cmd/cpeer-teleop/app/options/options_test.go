package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	o := NewTeleopOptions()
	require.NoError(t, o.Complete())
	assert.NoError(t, o.Validate())
	assert.Equal(t, o.ActorOptions.Name, o.Log.Name)
}

func TestFlagsParse(t *testing.T) {
	o := NewTeleopOptions()
	fss := o.Flags()

	require.NoError(t, fss.FlagSet("actor").Parse([]string{"--actor.target=lauv-noptilus-2", "--actor.node-id=16386"}))
	require.NoError(t, fss.FlagSet("mqtt").Parse([]string{"--mqtt.topic-root=imc/test"}))

	assert.Equal(t, "lauv-noptilus-2", o.ActorOptions.Target)
	assert.Equal(t, uint16(0x4002), o.ActorOptions.NodeID)
	assert.Equal(t, "imc/test", o.MqttOptions.TopicRoot)
}

func TestValidateAggregatesErrors(t *testing.T) {
	o := NewTeleopOptions()
	o.ActorOptions.Target = ""
	o.Log.Level = "loud"

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--actor.target is required")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConfig(t *testing.T) {
	o := NewTeleopOptions()
	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.ActorOptions, cfg.ActorOptions)
	assert.Same(t, o.S3Options, cfg.S3Options)
	assert.NotNil(t, cfg.In)
}
