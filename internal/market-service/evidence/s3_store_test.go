package evidence

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	key, bucket, contentType string
	body                     []byte
	putErr, headErr          error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.key, f.bucket, f.contentType = *in.Key, *in.Bucket, *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func TestPutReturnsContentHash(t *testing.T) {
	fake := &fakeS3{}
	s := newStore(fake, "evidence-bucket")

	ref, err := s.Put(context.Background(), []byte("hello"), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	const digest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if ref != RefPrefix+digest {
		t.Errorf("ref = %s", ref)
	}
	if fake.key != "evidence/2c/"+digest || fake.bucket != "evidence-bucket" || fake.contentType != "text/plain" {
		t.Errorf("put = %+v", fake)
	}
	if string(fake.body) != "hello" {
		t.Errorf("body = %q", fake.body)
	}
}

func TestPutErrors(t *testing.T) {
	s := newStore(&fakeS3{}, "b")
	if _, err := s.Put(context.Background(), nil, ""); !errors.Is(err, ErrEmptyEvidence) {
		t.Errorf("empty blob: %v", err)
	}

	s = newStore(&fakeS3{putErr: errors.New("denied")}, "b")
	if _, err := s.Put(context.Background(), []byte("x"), ""); err == nil || !strings.Contains(err.Error(), "denied") {
		t.Errorf("put failure: %v", err)
	}
}

func TestHealth(t *testing.T) {
	if err := newStore(&fakeS3{headErr: errors.New("no bucket")}, "b").Health(context.Background()); err == nil {
		t.Error("expected health error")
	}
	if err := newStore(&fakeS3{}, "b").Health(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://s3.example.com": "https://s3.example.com",
		"localhost:9000":         "http://localhost:9000",
		"e2.idrive.com":          "https://e2.idrive.com",
	}
	for in, want := range tests {
		if got := normaliseEndpoint(in); got != want {
			t.Errorf("normaliseEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}
