// Package evidence guarda o material que embasa a resolução de um mercado num
// bucket S3 compatível (AWS, MinIO, R2). O motor só conhece a referência
// devolvida, nunca o conteúdo.
package evidence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RefPrefix identifica referências por hash de conteúdo.
const RefPrefix = "sha256:"

var ErrEmptyEvidence = errors.New("empty evidence")

type S3Config struct {
	Endpoint       string // vazio = AWS
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// api é o subconjunto do cliente S3 usado aqui.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type Store struct {
	client api
	bucket string
}

func NewS3(ctx context.Context, cfg S3Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("evidence: bucket name is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("evidence: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(normaliseEndpoint(cfg.Endpoint))
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return newStore(client, cfg.Bucket), nil
}

func newStore(c api, bucket string) *Store {
	return &Store{client: c, bucket: bucket}
}

// Put grava o blob sob a chave derivada do seu SHA-256 e devolve
// "sha256:<hex>". Mesmo conteúdo, mesma referência.
func (s *Store) Put(ctx context.Context, blob []byte, contentType string) (string, error) {
	if len(blob) == 0 {
		return "", ErrEmptyEvidence
	}
	sum := sha256.Sum256(blob)
	digest := hex.EncodeToString(sum[:])
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ObjectKey(digest)),
		Body:        bytes.NewReader(blob),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("evidence: put object %s: %w", digest, err)
	}
	return RefPrefix + digest, nil
}

// Health verifica acesso ao bucket.
func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("evidence: bucket %s: %w", s.bucket, err)
	}
	return nil
}

// ObjectKey agrupa por prefixo do hash para não concentrar tudo num diretório.
func ObjectKey(digest string) string {
	return "evidence/" + digest[:2] + "/" + digest
}

func normaliseEndpoint(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if strings.HasPrefix(endpoint, "localhost") || strings.HasPrefix(endpoint, "127.0.0.1") {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}
