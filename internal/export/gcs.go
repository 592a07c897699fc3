package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSSink writes objects to a Google Cloud Storage bucket.
type GCSSink struct {
	client *storage.Client
	bucket string
}

// NewGCSSink wraps an existing storage client. Credentials come from the
// application default chain used to create it.
func NewGCSSink(client *storage.Client, bucket string) *GCSSink {
	return &GCSSink{client: client, bucket: bucket}
}

func (s *GCSSink) Destination() string {
	return "gs://" + s.bucket
}

// Put checks that the bucket exists and uploads data as one object.
func (s *GCSSink) Put(ctx context.Context, key string, data []byte, contentType string) error {
	bkt := s.client.Bucket(s.bucket)
	if _, err := bkt.Attrs(ctx); err != nil {
		return s.classify(key, fmt.Errorf("failed to read bucket attributes: %w", err))
	}

	w := bkt.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return s.classify(key, fmt.Errorf("failed to upload object: %w", err))
	}
	if err := w.Close(); err != nil {
		return s.classify(key, fmt.Errorf("failed to finalize object: %w", err))
	}

	return nil
}

func (s *GCSSink) classify(key string, err error) *Error {
	return &Error{Kind: gcsErrorKind(err), Destination: s.Destination(), Key: key, Err: err}
}

func gcsErrorKind(err error) ErrorKind {
	if errors.Is(err, storage.ErrBucketNotExist) || errors.Is(err, storage.ErrObjectNotExist) {
		return KindNotFound
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusForbidden, http.StatusUnauthorized:
			return KindForbidden
		case http.StatusNotFound:
			return KindNotFound
		}
	}

	return KindOther
}
