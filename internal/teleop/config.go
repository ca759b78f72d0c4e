package teleop

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/autopeer-io/teleop/internal/pkg/actor"
	"github.com/autopeer-io/teleop/internal/teleop/bus"
	"github.com/autopeer-io/teleop/internal/teleop/journal"
	"github.com/autopeer-io/teleop/internal/teleop/server"
	"github.com/autopeer-io/teleop/pkg/imc"
	"github.com/autopeer-io/teleop/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/teleop/pkg/mqtt/topic"
	"github.com/autopeer-io/teleop/pkg/options"
)

// SysType is the system type in the actor's Announce.
const SysType = "CCU"

type Config struct {
	ActorOptions *options.ActorOptions
	MqttOptions  *options.MqttOptions
	HttpOptions  *options.HttpOptions
	S3Options    *options.S3Options

	// In is the operator input, Out receives operator notices.
	In  io.Reader
	Out io.Writer
}

// NewTeleop wires the MQTT bus, the journal, the actor and the status server.
func (cfg *Config) NewTeleop(ctx context.Context) (*Teleop, error) {
	self := imc.NodeID(cfg.ActorOptions.NodeID)

	mqttClient, topicBuilder, err := cfg.initMqttClientAndTopicBuilder(self)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	j, err := journal.New(ctx, cfg.ActorOptions.Name, cfg.S3Options)
	if err != nil {
		return nil, fmt.Errorf("failed to init command journal: %w", err)
	}

	announce := &imc.Announce{
		SysName:  cfg.ActorOptions.Name,
		SysType:  SysType,
		Services: "imc+mqtt://" + topicBuilder.Root(),
	}

	a := actor.New(actor.Config{
		Name:      cfg.ActorOptions.Name,
		NodeID:    self,
		QueueSize: cfg.ActorOptions.QueueSize,
	}, bus.New(self, announce, mqttClient, topicBuilder), &VehicleState{})

	k, err := NewKeyboardActor(a, cfg.ActorOptions.Target, cfg.ActorOptions.PeerTimeout, j, cfg.out())
	if err != nil {
		return nil, err
	}

	k.AddTask(
		k.ConsoleTask(actor.NewLineReader(cfg.in())),
		k.HeartbeatTask(cfg.ActorOptions.HeartbeatInterval),
		actor.NewTask("journal", true, j.Run),
	)

	t := &Teleop{keyboard: k}
	if cfg.HttpOptions != nil && cfg.HttpOptions.Addr != "" {
		t.server = server.NewServer(cfg.HttpOptions, k)
	}
	return t, nil
}

func (cfg *Config) initMqttClientAndTopicBuilder(self imc.NodeID) (mqtt.Client, *mqtttopic.Builder, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("cpeer-teleop-%s", cfg.ActorOptions.Name)
	}

	// An empty retained payload removes the announce if we vanish.
	mqttConfig.WillTopic = bus.AnnounceTopic(topicBuilder, self)
	mqttConfig.WillPayload = nil
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}

	return mqttClient, topicBuilder, nil
}

func (cfg *Config) in() io.Reader {
	if cfg.In != nil {
		return cfg.In
	}
	return os.Stdin
}

func (cfg *Config) out() io.Writer {
	if cfg.Out != nil {
		return cfg.Out
	}
	return os.Stdout
}
