package config

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//EnvPrefix prefixes environment overrides, e.g. FACEDETECT_MODEL_TOPOLOGY
const EnvPrefix = "FACEDETECT"

//ErrInvalid is returned for configurations that can not be run
var ErrInvalid = errors.New("invalid configuration")

type Model struct {
	Topology string   `mapstructure:"topology"`
	Weights  string   `mapstructure:"weights"`
	Inputs   []string `mapstructure:"inputs"`
	Outputs  []string `mapstructure:"outputs"` //empty fetches every output the network declares
}

type Inference struct {
	Backend string `mapstructure:"backend"`
	Target  string `mapstructure:"target"`
}

type Detection struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	InputWidth          int     `mapstructure:"input_width"`
	InputHeight         int     `mapstructure:"input_height"`
	Scale               float64 `mapstructure:"scale"`
	Labels              bool    `mapstructure:"labels"`
}

type Camera struct {
	Device string `mapstructure:"device"`
}

type Display struct {
	Enabled bool   `mapstructure:"enabled"`
	Window  string `mapstructure:"window"`
	PollMs  int    `mapstructure:"poll_ms"`
	ExitKey int    `mapstructure:"exit_key"`
}

type Output struct {
	Snapshot string `mapstructure:"snapshot"`
}

type HTTP struct {
	Port string `mapstructure:"port"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

//Config is everything needed to run one detection
type Config struct {
	Model     Model     `mapstructure:"model"`
	Inference Inference `mapstructure:"inference"`
	Detection Detection `mapstructure:"detection"`
	Camera    Camera    `mapstructure:"camera"`
	Display   Display   `mapstructure:"display"`
	Output    Output    `mapstructure:"output"`
	HTTP      HTTP      `mapstructure:"http"`
	Log       Log       `mapstructure:"log"`
}

//Poll returns the display key poll interval
func (c Config) Poll() time.Duration {
	return time.Duration(c.Display.PollMs) * time.Millisecond
}

var defaults = map[string]interface{}{
	"model.topology":                 "",
	"model.weights":                  "",
	"model.inputs":                   []string{},
	"model.outputs":                  []string{},
	"inference.backend":              "openvino",
	"inference.target":               "cpu",
	"detection.confidence_threshold": 0.7,
	"detection.input_width":          300,
	"detection.input_height":         300,
	"detection.scale":                1.0,
	"detection.labels":               false,
	"camera.device":                  "0",
	"display.enabled":                true,
	"display.window":                 "window",
	"display.poll_ms":                10,
	"display.exit_key":               27,
	"output.snapshot":                "",
	"http.port":                      "",
	"log.level":                      "info",
}

//New returns a viper instance with defaults and environment overrides registered
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

//ReadFile reads given YAML file into v. With an empty path 'config.yaml' is searched in the working directory
//and its absence is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "could not read config file '%s'", path)
		}
		return nil
	}

	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(err, "could not read config file")
	}
	return nil
}

//ReadYAML reads configuration from r into v
func ReadYAML(v *viper.Viper, r io.Reader) error {
	v.SetConfigType("yaml")
	return errors.Wrap(v.ReadConfig(r), "could not parse config")
}

//Decode builds a validated Config out of v
func Decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "could not decode config")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

//Load reads path (see ReadFile), applies environment overrides and validates the result
func Load(path string) (Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return Decode(v)
}

//Validate reports the first option that makes c unusable
func (c Config) Validate() error {
	switch {
	case c.Model.Topology == "":
		return errors.Wrap(ErrInvalid, "model.topology is required")
	case c.Model.Weights == "":
		return errors.Wrap(ErrInvalid, "model.weights is required")
	case math.IsNaN(c.Detection.ConfidenceThreshold) || c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1:
		return errors.Wrapf(ErrInvalid, "detection.confidence_threshold must be in [0,1], got %v", c.Detection.ConfidenceThreshold)
	case c.Detection.InputWidth <= 0 || c.Detection.InputHeight <= 0:
		return errors.Wrapf(ErrInvalid, "detection input size must be positive, got %dx%d", c.Detection.InputWidth, c.Detection.InputHeight)
	case c.Detection.Scale <= 0:
		return errors.Wrapf(ErrInvalid, "detection.scale must be positive, got %v", c.Detection.Scale)
	case c.Camera.Device == "":
		return errors.Wrap(ErrInvalid, "camera.device is required")
	case c.Display.Enabled && c.Display.PollMs <= 0:
		return errors.Wrapf(ErrInvalid, "display.poll_ms must be positive, got %d", c.Display.PollMs)
	}
	return nil
}
