package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration, loaded from a YAML file.
// A few paths can be overridden from the environment so deployments can
// relocate the model and ffmpeg without editing the file.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Recognizer struct {
		Backend   string `yaml:"backend"` // "vosk" or "vosk-server"
		ModelPath string `yaml:"model_path"`
		ServerURL string `yaml:"server_url"`
		// EmptyOnError keeps the legacy behavior of returning an empty
		// transcript when recognition fails instead of a 500.
		EmptyOnError bool `yaml:"empty_on_error"`
	} `yaml:"recognizer"`
	Transcript struct {
		TriggerWord          string  `yaml:"trigger_word"`
		RaisedVoiceThreshold float64 `yaml:"raised_voice_threshold"`
	} `yaml:"transcript"`
	Media struct {
		FFmpegPath string `yaml:"ffmpeg_path"`
	} `yaml:"media"`
	Fetch struct {
		ScratchDir string `yaml:"scratch_dir"`
	} `yaml:"fetch"`
	Transcription struct {
		OutputDir       string `yaml:"output_dir"`
		SaveTranscripts bool   `yaml:"save_transcripts"`
	} `yaml:"transcription"`
	LogLevel string `yaml:"log_level"`
}

func Load(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := &Config{}
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()
	config.applyEnv()

	if config.Recognizer.Backend == "vosk" && config.Recognizer.ModelPath == "" {
		return nil, fmt.Errorf("recognizer.model_path is required for the vosk backend")
	}
	if config.Recognizer.Backend == "vosk-server" && config.Recognizer.ServerURL == "" {
		return nil, fmt.Errorf("recognizer.server_url is required for the vosk-server backend")
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Recognizer.Backend == "" {
		c.Recognizer.Backend = "vosk"
	}
	if c.Transcript.TriggerWord == "" {
		c.Transcript.TriggerWord = "день"
	}
	if c.Transcript.RaisedVoiceThreshold == 0 {
		c.Transcript.RaisedVoiceThreshold = 0.6
	}
	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = "ffmpeg"
	}
	if c.Fetch.ScratchDir == "" {
		c.Fetch.ScratchDir = os.TempDir()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Recognizer.ModelPath = v
	}
	if v := os.Getenv("FFMPEG_BINARY"); v != "" {
		c.Media.FFmpegPath = v
	}
	if v := os.Getenv("VOSK_SERVER_URL"); v != "" {
		c.Recognizer.ServerURL = v
	}
}
