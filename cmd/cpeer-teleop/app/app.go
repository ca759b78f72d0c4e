package app

import (
	"fmt"

	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"
	"k8s.io/klog/v2"

	"github.com/autopeer-io/teleop/cmd/cpeer-teleop/app/options"
	"github.com/autopeer-io/teleop/pkg/app"
	"github.com/autopeer-io/teleop/pkg/log"
)

const (
	commandName = "cpeer-teleop"
	commandDesc = `The Autopeer teleop console drives one vehicle over the IMC message
bus. It follows the vehicle's estimated state, keeps it alive with
heartbeats and turns operator commands (start, stop, status, exit) read
from standard input into plan and abort requests.`
)

func NewApp() *app.App {
	opts := options.NewTeleopOptions()
	application := app.NewApp(
		commandName,
		"Launch the Autopeer teleop console",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.TeleopOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()
		// apiserver and component-base log through klog.
		klog.SetLogger(log.Logr())

		log.Info("Starting "+commandName, "config", viper.ConfigFileUsed(),
			"target", opts.ActorOptions.Target, "broker", opts.MqttOptions.Broker)

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		teleop, err := cfg.NewTeleop(ctx)
		if err != nil {
			return fmt.Errorf("failed to create teleop: %w", err)
		}

		return teleop.Run(ctx)
	}
}
