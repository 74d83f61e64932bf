// Package config assembles the player configuration from, in increasing
// priority: built-in defaults, an optional YAML file, SEGPLAY_* environment
// variables, and command-line flags.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"segplay/internal/source"
	"segplay/pkg/spec"
)

const envPrefix = "SEGPLAY_"

// Config represents the complete player configuration
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Output   OutputConfig   `yaml:"output"`
	Control  ControlConfig  `yaml:"control"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlaybackConfig controls segmentation and the transport loop
type PlaybackConfig struct {
	SourceFilePath string        `yaml:"source_file_path"`
	StepMs         int64         `yaml:"step_ms"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	Codec          string        `yaml:"codec"`
	OpusBitrate    int           `yaml:"opus_bitrate"`
	Loop           bool          `yaml:"loop"`
}

// OutputConfig selects the sink
type OutputConfig struct {
	Sink          string        `yaml:"sink"` // speaker or clock
	SpeakerBuffer time.Duration `yaml:"speaker_buffer"`
	VolumeDB      float64       `yaml:"volume_db"`
}

// ControlConfig selects the interactive front end and the control socket
type ControlConfig struct {
	Input  string `yaml:"input"` // keys, line or none
	Socket string `yaml:"control_socket"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `yaml:"metrics_addr"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

const (
	SinkSpeaker = "speaker"
	SinkClock   = "clock"

	InputKeys = "keys"
	InputLine = "line"
	InputNone = "none"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			StepMs:       spec.DefaultStepMs,
			TickInterval: spec.DefaultTickInterval,
			Codec:        spec.CodecAuto,
			OpusBitrate:  spec.DefaultOpusBitrate,
		},
		Output: OutputConfig{
			Sink:          SinkSpeaker,
			SpeakerBuffer: spec.DefaultSpeakerBuf,
		},
		Control: ControlConfig{
			Input: InputKeys,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration for a command line. args excludes the program
// name; the first positional argument, if any, is the source file. The YAML
// file comes from -config or SEGPLAY_CONFIG.
func Load(args []string, stderr io.Writer) (*Config, error) {
	var (
		cfgPath string
		f       Config
		fs      = flag.NewFlagSet(spec.AppName, flag.ContinueOnError)
	)
	fs.SetOutput(stderr)
	fs.StringVar(&cfgPath, "config", os.Getenv(envPrefix+"CONFIG"), "YAML config file")
	fs.StringVar(&f.Playback.SourceFilePath, "source", "", "audio file to play")
	fs.Int64Var(&f.Playback.StepMs, "step", 0, "segment length and seek step in ms")
	fs.DurationVar(&f.Playback.TickInterval, "tick", 0, "control loop interval")
	fs.StringVar(&f.Playback.Codec, "codec", "", "segment codec: auto, opus or pcm")
	fs.IntVar(&f.Playback.OpusBitrate, "bitrate", 0, "opus bitrate in bit/s")
	fs.BoolVar(&f.Playback.Loop, "loop", false, "restart at the end of the track")
	fs.StringVar(&f.Output.Sink, "sink", "", "output: speaker or clock")
	fs.DurationVar(&f.Output.SpeakerBuffer, "buffer", 0, "speaker buffer length")
	fs.Float64Var(&f.Output.VolumeDB, "volume", 0, "gain, beep base-2 volume")
	fs.StringVar(&f.Control.Input, "input", "", "front end: keys, line or none")
	fs.StringVar(&f.Control.Socket, "socket", "", "control socket path, empty to disable")
	fs.StringVar(&f.Metrics.Addr, "metrics", "", "Prometheus listen address, empty to disable")
	fs.StringVar(&f.Logging.Level, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.Logging.Format, "log-format", "", "console or json")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if cfgPath != "" {
		if err := cfg.loadFile(cfgPath); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "source":
			cfg.Playback.SourceFilePath = f.Playback.SourceFilePath
		case "step":
			cfg.Playback.StepMs = f.Playback.StepMs
		case "tick":
			cfg.Playback.TickInterval = f.Playback.TickInterval
		case "codec":
			cfg.Playback.Codec = f.Playback.Codec
		case "bitrate":
			cfg.Playback.OpusBitrate = f.Playback.OpusBitrate
		case "loop":
			cfg.Playback.Loop = f.Playback.Loop
		case "sink":
			cfg.Output.Sink = f.Output.Sink
		case "buffer":
			cfg.Output.SpeakerBuffer = f.Output.SpeakerBuffer
		case "volume":
			cfg.Output.VolumeDB = f.Output.VolumeDB
		case "input":
			cfg.Control.Input = f.Control.Input
		case "socket":
			cfg.Control.Socket = f.Control.Socket
		case "metrics":
			cfg.Metrics.Addr = f.Metrics.Addr
		case "log-level":
			cfg.Logging.Level = f.Logging.Level
		case "log-format":
			cfg.Logging.Format = f.Logging.Format
		}
	})
	if fs.NArg() > 0 {
		cfg.Playback.SourceFilePath = fs.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrFatalConfig, err)
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrFatalConfig, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file %s: %v", source.ErrFatalConfig, path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", source.ErrFatalConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	p := &c.Playback
	p.SourceFilePath = envStr("SOURCE_FILE_PATH", p.SourceFilePath)
	p.StepMs = int64(envInt("STEP_MS", int(p.StepMs)))
	p.TickInterval = envDuration("TICK_INTERVAL", p.TickInterval)
	p.Codec = envStr("CODEC", p.Codec)
	p.OpusBitrate = envInt("OPUS_BITRATE", p.OpusBitrate)
	p.Loop = envBool("LOOP", p.Loop)

	o := &c.Output
	o.Sink = envStr("SINK", o.Sink)
	o.SpeakerBuffer = envDuration("SPEAKER_BUFFER", o.SpeakerBuffer)
	o.VolumeDB = envFloat("VOLUME_DB", o.VolumeDB)

	c.Control.Input = envStr("INPUT", c.Control.Input)
	c.Control.Socket = envStr("CONTROL_SOCKET", c.Control.Socket)
	c.Metrics.Addr = envStr("METRICS_ADDR", c.Metrics.Addr)
	c.Logging.Level = envStr("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envStr("LOG_FORMAT", c.Logging.Format)
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	if err := c.Control.Validate(); err != nil {
		return fmt.Errorf("control config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func (p *PlaybackConfig) Validate() error {
	if p.SourceFilePath == "" {
		return fmt.Errorf("source_file_path cannot be empty")
	}
	if p.StepMs <= 0 {
		return fmt.Errorf("step_ms must be positive, got %d", p.StepMs)
	}
	if p.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", p.TickInterval)
	}
	switch p.Codec {
	case spec.CodecAuto, spec.CodecOpus, spec.CodecPCM:
	default:
		return fmt.Errorf("codec must be auto, opus or pcm, got %q", p.Codec)
	}
	if p.OpusBitrate < 6000 || p.OpusBitrate > 510000 {
		return fmt.Errorf("opus_bitrate must be between 6000 and 510000, got %d", p.OpusBitrate)
	}
	return nil
}

func (o *OutputConfig) Validate() error {
	switch o.Sink {
	case SinkSpeaker:
		if o.SpeakerBuffer <= 0 {
			return fmt.Errorf("speaker_buffer must be positive, got %v", o.SpeakerBuffer)
		}
	case SinkClock:
	default:
		return fmt.Errorf("sink must be speaker or clock, got %q", o.Sink)
	}
	return nil
}

func (c *ControlConfig) Validate() error {
	switch c.Input {
	case InputKeys, InputLine, InputNone:
		return nil
	}
	return fmt.Errorf("input must be keys, line or none, got %q", c.Input)
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be debug, info, warn or error, got %q", l.Level)
	}
	switch l.Format {
	case "console", "json":
	default:
		return fmt.Errorf("format must be console or json, got %q", l.Format)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
