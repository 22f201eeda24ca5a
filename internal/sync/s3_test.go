package sync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket, f.key, f.contentType = *in.Bucket, *in.Key, *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Destination_Write(t *testing.T) {
	fake := &fakeS3{}
	dest := &S3Destination{client: fake, bucket: "backups", key: DefaultS3Key}

	if err := dest.Write(context.Background(), []byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if fake.bucket != "backups" || fake.key != DefaultS3Key {
		t.Errorf("put to %s/%s", fake.bucket, fake.key)
	}
	if fake.contentType != "application/x-ndjson" || string(fake.body) != "payload" {
		t.Errorf("unexpected upload: %q %q", fake.contentType, fake.body)
	}
	if dest.Name() != "s3://backups/confvault/store.jsonl" {
		t.Errorf("Name = %q", dest.Name())
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	dest := &S3Destination{client: &fakeS3{err: errors.New("denied")}, bucket: "b", key: "k"}
	if err := dest.Write(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewS3Destination_RequiresBucket(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), "", "", "us-east-1", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
