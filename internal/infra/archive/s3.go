// Package archive stores delivery records in S3-compatible object storage
// for long-term retention beyond the relational delivery log.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/shopmesh/events/internal/config"
	"github.com/shopmesh/events/pkg/domain/webhook"
	"github.com/shopmesh/events/pkg/logger"
)

// S3Archiver writes one JSON object per delivery record.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	logger *logger.Logger
}

// NewS3Archiver creates an archiver against the configured bucket. A custom
// endpoint switches the client to path-style addressing for MinIO and other
// S3-compatible stores.
func NewS3Archiver(ctx context.Context, cfg *appconfig.ArchiveConfig, log *logger.Logger) (*S3Archiver, error) {
	if cfg == nil {
		return nil, errors.New("archive config is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: log,
	}, nil
}

// archivedDelivery is the stored representation of a delivery record.
type archivedDelivery struct {
	ID           string          `json:"id"`
	WebhookID    string          `json:"webhook_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       string          `json:"status"`
	ResponseCode *int            `json:"response_code,omitempty"`
	ResponseBody string          `json:"response_body,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Attempt      int             `json:"attempt"`
	DurationMs   *int64          `json:"duration_ms,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
}

// Archive uploads the delivery record. Keys are partitioned by day so
// retention policies can expire whole prefixes.
func (a *S3Archiver) Archive(ctx context.Context, d *webhook.Delivery) error {
	record := archivedDelivery{
		ID:           d.ID.String(),
		WebhookID:    d.WebhookID.String(),
		EventType:    d.EventType.String(),
		Payload:      json.RawMessage(d.Payload),
		Status:       string(d.Status),
		ResponseCode: d.ResponseCode,
		ResponseBody: d.ResponseBody,
		ErrorMessage: d.ErrorMessage,
		Attempt:      d.Attempt,
		DurationMs:   d.DurationMs,
		CreatedAt:    d.CreatedAt,
		DeliveredAt:  d.DeliveredAt,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal delivery record: %w", err)
	}

	key := a.objectKey(d)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put delivery record: %w", err)
	}

	a.logger.Debug("delivery archived", "key", key, "bucket", a.bucket)
	return nil
}

func (a *S3Archiver) objectKey(d *webhook.Delivery) string {
	key := fmt.Sprintf("%s/%s/%s.json",
		d.CreatedAt.UTC().Format("2006/01/02"),
		d.EventType.String(),
		d.ID.String(),
	)
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}
	return key
}
