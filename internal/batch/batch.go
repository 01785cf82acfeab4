// Package batch transcribes recorded audio files through the
// asynchronous job API: upload to S3, start a transcription job, poll
// until it settles, then fetch and parse the result document.
package batch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"

	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/observability/metrics"
)

// Config describes where uploads land and how jobs are run.
type Config struct {
	Region       string
	LanguageCode string
	S3Bucket     string
	S3Prefix     string
	PollInterval time.Duration
}

// Result is a completed batch transcription.
type Result struct {
	JobName    string
	Text       string
	Confidence float64 // mean word confidence over the whole file
	MediaURI   string
	Duration   time.Duration
}

// Client runs batch transcription jobs.
type Client struct {
	transcribe *transcribe.Client
	s3         *s3.Client
	httpc      *http.Client
	cfg        Config
	m          *metrics.Metrics
}

// New builds a client using the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("no S3 bucket configured for batch uploads")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Client{
		transcribe: transcribe.NewFromConfig(awsCfg),
		s3:         s3.NewFromConfig(awsCfg),
		httpc:      &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		m:          metrics.Default,
	}, nil
}

// Transcribe uploads the file, runs a job over it, and returns the
// parsed transcript. It blocks until the job settles or ctx ends.
func (c *Client) Transcribe(ctx context.Context, path string) (*Result, error) {
	format, err := mediaFormatFor(path)
	if err != nil {
		return nil, err
	}

	jobName := "transcribe-cli-" + uuid.NewString()
	logger := logging.WithJob(jobName)
	started := time.Now()

	uri, err := c.upload(ctx, path, jobName)
	if err != nil {
		c.m.RecordBatchJob(false, time.Since(started).Seconds())
		return nil, err
	}
	logger.Info().Str("mediaUri", uri).Msg("Audio uploaded")

	_, err = c.transcribe.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		LanguageCode:         transcribetypes.LanguageCode(c.cfg.LanguageCode),
		MediaFormat:          format,
		Media: &transcribetypes.Media{
			MediaFileUri: aws.String(uri),
		},
	})
	if err != nil {
		c.m.RecordBatchJob(false, time.Since(started).Seconds())
		return nil, fmt.Errorf("start transcription job: %w", err)
	}
	c.m.RecordBatchJobStart()
	logger.Info().Msg("Transcription job started")

	job, err := c.waitForJob(ctx, jobName)
	if err != nil {
		c.m.RecordBatchJob(false, time.Since(started).Seconds())
		return nil, err
	}

	out, err := c.fetchOutput(ctx, aws.ToString(job.Transcript.TranscriptFileUri))
	if err != nil {
		c.m.RecordBatchJob(false, time.Since(started).Seconds())
		return nil, err
	}

	duration := time.Since(started)
	c.m.RecordBatchJob(true, duration.Seconds())
	logger.Info().
		Dur("duration", duration.Round(time.Millisecond)).
		Float64("confidence", out.Confidence).
		Msg("Transcription job completed")

	return &Result{
		JobName:    jobName,
		Text:       out.Text,
		Confidence: out.Confidence,
		MediaURI:   uri,
		Duration:   duration,
	}, nil
}

// upload puts the audio file under the configured bucket prefix and
// returns its s3:// URI.
func (c *Client) upload(ctx context.Context, path, jobName string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := objectKey(c.cfg.S3Prefix, jobName, path)
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.S3Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to s3://%s/%s: %w", path, c.cfg.S3Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", c.cfg.S3Bucket, key), nil
}

// objectKey builds the upload key. An empty prefix must not leave a
// leading slash, which S3 would treat as an empty folder name.
func objectKey(prefix, jobName, path string) string {
	key := jobName + "/" + filepath.Base(path)
	if p := strings.Trim(prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}

// waitForJob polls until the job leaves QUEUED/IN_PROGRESS.
func (c *Client) waitForJob(ctx context.Context, jobName string) (*transcribetypes.TranscriptionJob, error) {
	logger := logging.WithJob(jobName)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		out, err := c.transcribe.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return nil, fmt.Errorf("poll transcription job: %w", err)
		}

		job := out.TranscriptionJob
		switch job.TranscriptionJobStatus {
		case transcribetypes.TranscriptionJobStatusCompleted:
			return job, nil
		case transcribetypes.TranscriptionJobStatusFailed:
			return nil, fmt.Errorf("transcription job failed: %s", aws.ToString(job.FailureReason))
		default:
			logger.Debug().
				Str("status", string(job.TranscriptionJobStatus)).
				Msg("Job still running")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// fetchOutput downloads and parses the job's result document. The
// TranscriptFileUri is a pre-signed HTTPS URL.
func (c *Client) fetchOutput(ctx context.Context, uri string) (*Output, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch transcript: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return ParseOutput(body)
}

// mediaFormatFor maps a file extension to the job's media format.
func mediaFormatFor(path string) (transcribetypes.MediaFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "wav":
		return transcribetypes.MediaFormatWav, nil
	case "mp3":
		return transcribetypes.MediaFormatMp3, nil
	case "mp4", "m4a":
		return transcribetypes.MediaFormatMp4, nil
	case "flac":
		return transcribetypes.MediaFormatFlac, nil
	case "ogg":
		return transcribetypes.MediaFormatOgg, nil
	case "amr":
		return transcribetypes.MediaFormatAmr, nil
	case "webm":
		return transcribetypes.MediaFormatWebm, nil
	default:
		return "", fmt.Errorf("unsupported media format %q", filepath.Ext(path))
	}
}
