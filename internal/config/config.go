package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `yaml:"analysis"`

	// Detection settings
	Detection DetectionConfig `yaml:"detection"`

	// Render settings
	Render RenderConfig `yaml:"render"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type AnalysisConfig struct {
	AudioChunkMs   int     `yaml:"audio_chunk_ms"`
	VideoCropRatio float64 `yaml:"video_crop_ratio"`
	VideoScale     float64 `yaml:"video_analysis_scale"`
}

type DetectionConfig struct {
	SilenceThresholdDB float64 `yaml:"silence_threshold_db"`
	MotionThreshold    float64 `yaml:"motion_threshold"`
	MinSilenceMs       int64   `yaml:"min_silence_duration_ms"`
	MinStaticMs        int64   `yaml:"min_static_duration_ms"`
}

type RenderConfig struct {
	PreCutSeconds    float64  `yaml:"pre_cut_seconds"`
	PostCutSeconds   float64  `yaml:"post_cut_seconds"`
	SpeedupFactor    float64  `yaml:"speedup_factor"`
	SpeedupVolumePct int      `yaml:"speedup_volume_percent"`
	EncoderPriority  []string `yaml:"encoder_priority"`
	MaxConcatStreams int      `yaml:"max_concat_streams"`
	UseFastPath      bool     `yaml:"use_fast_path"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			AudioChunkMs:   100,
			VideoCropRatio: 0.25,
			VideoScale:     0.25,
		},
		Detection: DetectionConfig{
			SilenceThresholdDB: -40.0,
			MotionThreshold:    2.0,
			MinSilenceMs:       500,
			MinStaticMs:        500,
		},
		Render: RenderConfig{
			PreCutSeconds:    2.0,
			PostCutSeconds:   1.0,
			SpeedupFactor:    5.0,
			SpeedupVolumePct: 50,
			EncoderPriority:  []string{"h264_nvenc", "hevc_videotoolbox", "libx264"},
			MaxConcatStreams: 50,
			UseFastPath:      true,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "fast",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".movieautocut", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
