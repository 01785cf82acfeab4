// Package config loads CLI configuration from the environment.
// Every knob has a usable default so the tool runs with nothing but
// AWS credentials set; invalid values fall back to the default.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration sections for the CLI.
type Config struct {
	Audio         AudioConfig
	Transcribe    TranscribeConfig
	Batch         BatchConfig
	Kafka         KafkaConfig
	Limits        SessionLimits
	Observability ObservabilityConfig
}

// AudioConfig describes the microphone capture format.
type AudioConfig struct {
	SampleRateHz int    // PCM sample rate
	Channels     int    // capture channels (mono by default)
	ChunkFrames  int    // frames per chunk sent to the STT stream
	DeviceName   string // substring match against capture device names; empty = default device
}

// TranscribeConfig describes the streaming STT session.
type TranscribeConfig struct {
	Provider      string // "aws" or "mock"
	Region        string
	LanguageCode  string
	MediaEncoding string // pcm, ogg-opus, flac
	ShowPartials  bool
}

// BatchConfig describes batch transcription jobs.
type BatchConfig struct {
	S3Bucket     string
	S3Prefix     string
	PollInterval time.Duration
}

// KafkaConfig describes optional transcript event publishing.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
}

// SessionLimits are guardrails on a single streaming session segment.
// They bound resource usage when the service misbehaves or the mic is
// left running unattended.
type SessionLimits struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
	MaxPartials   int
}

// ObservabilityConfig controls logging and the optional status server.
type ObservabilityConfig struct {
	LogLevel   string // debug, info, warn, error
	LogFormat  string // json, console
	StatusAddr string
	Status     bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRateHz: envOrDefaultInt("AUDIO_SAMPLE_RATE_HZ", 16000),
			Channels:     envOrDefaultInt("AUDIO_CHANNELS", 1),
			ChunkFrames:  envOrDefaultInt("AUDIO_CHUNK_FRAMES", 1024),
			DeviceName:   os.Getenv("AUDIO_DEVICE"),
		},
		Transcribe: TranscribeConfig{
			Provider:      envOrDefault("STT_PROVIDER", "aws"),
			Region:        envOrDefault("AWS_REGION", "us-east-1"),
			LanguageCode:  envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			MediaEncoding: envOrDefault("STT_MEDIA_ENCODING", "pcm"),
			ShowPartials:  envOrDefaultBool("STT_SHOW_PARTIALS", false),
		},
		Batch: BatchConfig{
			S3Bucket:     os.Getenv("BATCH_S3_BUCKET"),
			S3Prefix:     envOrDefault("BATCH_S3_PREFIX", "transcribe-cli/uploads"),
			PollInterval: envOrDefaultDuration("BATCH_POLL_INTERVAL", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envOrDefaultList("KAFKA_BROKERS"),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "transcripts.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "transcripts.final"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", "transcribe-cli"),
		},
		Limits: SessionLimits{
			MaxAudioBytes: envOrDefaultInt64("SESSION_MAX_AUDIO_BYTES", 50*1024*1024),
			MaxDuration:   envOrDefaultDuration("SESSION_MAX_DURATION", 4*time.Hour),
			MaxPartials:   envOrDefaultInt("SESSION_MAX_PARTIALS", 500),
		},
		Observability: ObservabilityConfig{
			LogLevel:   envOrDefault("LOG_LEVEL", "info"),
			LogFormat:  envOrDefault("LOG_FORMAT", "console"),
			StatusAddr: envOrDefault("STATUS_ADDR", "127.0.0.1:8686"),
			Status:     envOrDefaultBool("STATUS_ENABLED", false),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
