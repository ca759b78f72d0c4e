package options

import (
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/teleop/internal/teleop"
	"github.com/autopeer-io/teleop/pkg/app"
	"github.com/autopeer-io/teleop/pkg/log"
	"github.com/autopeer-io/teleop/pkg/options"
)

type TeleopOptions struct {
	ActorOptions *options.ActorOptions `json:"actor" mapstructure:"actor"`
	MqttOptions  *options.MqttOptions  `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions  *options.HttpOptions  `json:"http" mapstructure:"http"`
	S3Options    *options.S3Options    `json:"s3" mapstructure:"s3"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*TeleopOptions)(nil)

func NewTeleopOptions() *TeleopOptions {
	o := &TeleopOptions{
		ActorOptions: options.NewActorOptions(),
		MqttOptions:  options.NewMqttOptions(),
		HttpOptions:  options.NewHttpOptions(),
		S3Options:    options.NewS3Options(),
		Log:          log.NewOptions(),
	}

	return o
}

func (o *TeleopOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.ActorOptions.AddFlags(fss.FlagSet("actor"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *TeleopOptions) Complete() error {
	if o.Log.Name == "" {
		o.Log.Name = o.ActorOptions.Name
	}
	return nil
}

func (o *TeleopOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.ActorOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *TeleopOptions) Config() (*teleop.Config, error) {
	return &teleop.Config{
		ActorOptions: o.ActorOptions,
		MqttOptions:  o.MqttOptions,
		HttpOptions:  o.HttpOptions,
		S3Options:    o.S3Options,
		In:           os.Stdin,
		Out:          os.Stdout,
	}, nil
}
