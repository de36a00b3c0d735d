// Package config holds the YAML configuration of the sampler.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type ServerCfg struct {
	Addr string `yaml:"addr"` // e.g. :8080
}

type BackendCfg struct {
	URL            string `yaml:"url"`
	InitialTimeout int    `yaml:"initial_timeout_sec"`
	CollectWindow  int    `yaml:"collect_window_sec"`
}

type AudioCfg struct {
	SampleRate int `yaml:"sample_rate"`
	BufferMs   int `yaml:"buffer_ms"` // playback device buffer
}

type Config struct {
	Server  ServerCfg  `yaml:"server"`
	Backend BackendCfg `yaml:"backend"`
	Audio   AudioCfg   `yaml:"audio"`
	Tempo   float64    `yaml:"tempo"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  ServerCfg{Addr: ":8080"},
		Backend: BackendCfg{URL: "ws://localhost:8765/generate", InitialTimeout: 30, CollectWindow: 12},
		Audio:   AudioCfg{SampleRate: 48000, BufferMs: 50},
		Tempo:   120,
	}
}

// Load reads a config file over the defaults: fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
