package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"AUDIO_SAMPLE_RATE_HZ", "AUDIO_CHANNELS", "AUDIO_CHUNK_FRAMES", "AUDIO_DEVICE",
		"STT_PROVIDER", "AWS_REGION", "STT_LANGUAGE_CODE", "STT_MEDIA_ENCODING", "STT_SHOW_PARTIALS",
		"BATCH_S3_BUCKET", "BATCH_S3_PREFIX", "BATCH_POLL_INTERVAL",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_PARTIAL", "KAFKA_TOPIC_FINAL", "KAFKA_PRINCIPAL",
		"SESSION_MAX_AUDIO_BYTES", "SESSION_MAX_DURATION", "SESSION_MAX_PARTIALS",
		"LOG_LEVEL", "LOG_FORMAT", "STATUS_ADDR", "STATUS_ENABLED",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Audio.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Audio.SampleRateHz)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("expected default channels 1, got %d", cfg.Audio.Channels)
	}
	if cfg.Audio.ChunkFrames != 1024 {
		t.Errorf("expected default chunk frames 1024, got %d", cfg.Audio.ChunkFrames)
	}

	if cfg.Transcribe.Provider != "aws" {
		t.Errorf("expected default provider 'aws', got %s", cfg.Transcribe.Provider)
	}
	if cfg.Transcribe.Region != "us-east-1" {
		t.Errorf("expected default region 'us-east-1', got %s", cfg.Transcribe.Region)
	}
	if cfg.Transcribe.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.Transcribe.LanguageCode)
	}
	if cfg.Transcribe.MediaEncoding != "pcm" {
		t.Errorf("expected default encoding 'pcm', got %s", cfg.Transcribe.MediaEncoding)
	}
	if cfg.Transcribe.ShowPartials {
		t.Error("expected partials hidden by default")
	}

	if cfg.Batch.PollInterval != 5*time.Second {
		t.Errorf("expected default poll interval 5s, got %v", cfg.Batch.PollInterval)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicFinal != "transcripts.final" {
		t.Errorf("expected default final topic 'transcripts.final', got %s", cfg.Kafka.TopicFinal)
	}

	if cfg.Limits.MaxAudioBytes != 50*1024*1024 {
		t.Errorf("expected default max audio bytes 50MB, got %d", cfg.Limits.MaxAudioBytes)
	}
	if cfg.Limits.MaxDuration != 4*time.Hour {
		t.Errorf("expected default max duration 4h, got %v", cfg.Limits.MaxDuration)
	}
	if cfg.Limits.MaxPartials != 500 {
		t.Errorf("expected default max partials 500, got %d", cfg.Limits.MaxPartials)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.Status {
		t.Error("expected status server disabled by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("AUDIO_SAMPLE_RATE_HZ", "8000")
	os.Setenv("AUDIO_CHUNK_FRAMES", "800")
	os.Setenv("AUDIO_DEVICE", "USB Microphone")
	os.Setenv("STT_PROVIDER", "mock")
	os.Setenv("AWS_REGION", "eu-west-1")
	os.Setenv("STT_LANGUAGE_CODE", "es-ES")
	os.Setenv("STT_SHOW_PARTIALS", "true")
	os.Setenv("BATCH_S3_BUCKET", "my-audio-bucket")
	os.Setenv("BATCH_POLL_INTERVAL", "10s")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	os.Setenv("SESSION_MAX_PARTIALS", "1000")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		for _, v := range []string{
			"AUDIO_SAMPLE_RATE_HZ", "AUDIO_CHUNK_FRAMES", "AUDIO_DEVICE",
			"STT_PROVIDER", "AWS_REGION", "STT_LANGUAGE_CODE", "STT_SHOW_PARTIALS",
			"BATCH_S3_BUCKET", "BATCH_POLL_INTERVAL",
			"KAFKA_ENABLED", "KAFKA_BROKERS", "SESSION_MAX_PARTIALS", "LOG_LEVEL",
		} {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.Audio.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.Audio.SampleRateHz)
	}
	if cfg.Audio.ChunkFrames != 800 {
		t.Errorf("expected chunk frames 800, got %d", cfg.Audio.ChunkFrames)
	}
	if cfg.Audio.DeviceName != "USB Microphone" {
		t.Errorf("expected device 'USB Microphone', got %s", cfg.Audio.DeviceName)
	}
	if cfg.Transcribe.Provider != "mock" {
		t.Errorf("expected provider 'mock', got %s", cfg.Transcribe.Provider)
	}
	if cfg.Transcribe.Region != "eu-west-1" {
		t.Errorf("expected region 'eu-west-1', got %s", cfg.Transcribe.Region)
	}
	if cfg.Transcribe.LanguageCode != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", cfg.Transcribe.LanguageCode)
	}
	if !cfg.Transcribe.ShowPartials {
		t.Error("expected partials shown")
	}
	if cfg.Batch.S3Bucket != "my-audio-bucket" {
		t.Errorf("expected bucket 'my-audio-bucket', got %s", cfg.Batch.S3Bucket)
	}
	if cfg.Batch.PollInterval != 10*time.Second {
		t.Errorf("expected poll interval 10s, got %v", cfg.Batch.PollInterval)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "kafka-1:9092" || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("expected trimmed broker list, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Limits.MaxPartials != 1000 {
		t.Errorf("expected max partials 1000, got %d", cfg.Limits.MaxPartials)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("AUDIO_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("STT_SHOW_PARTIALS", "invalid")
	os.Setenv("SESSION_MAX_AUDIO_BYTES", "invalid")
	os.Setenv("SESSION_MAX_DURATION", "invalid")
	os.Setenv("BATCH_POLL_INTERVAL", "later")

	defer func() {
		for _, v := range []string{
			"AUDIO_SAMPLE_RATE_HZ", "STT_SHOW_PARTIALS",
			"SESSION_MAX_AUDIO_BYTES", "SESSION_MAX_DURATION", "BATCH_POLL_INTERVAL",
		} {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.Audio.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Audio.SampleRateHz)
	}
	if cfg.Transcribe.ShowPartials {
		t.Error("expected default partials setting on invalid input")
	}
	if cfg.Limits.MaxAudioBytes != 50*1024*1024 {
		t.Errorf("expected default max audio bytes on invalid input, got %d", cfg.Limits.MaxAudioBytes)
	}
	if cfg.Limits.MaxDuration != 4*time.Hour {
		t.Errorf("expected default max duration on invalid input, got %v", cfg.Limits.MaxDuration)
	}
	if cfg.Batch.PollInterval != 5*time.Second {
		t.Errorf("expected default poll interval on invalid input, got %v", cfg.Batch.PollInterval)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultList(t *testing.T) {
	key := "TEST_LIST_VAR"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if got := envOrDefaultList(key); got != nil {
		t.Errorf("expected nil for unset var, got %v", got)
	}

	os.Setenv(key, "a, b ,,c")
	got := envOrDefaultList(key)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected [a b c], got %v", got)
	}
}
