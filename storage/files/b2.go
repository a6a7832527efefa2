package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
)

// B2Storage keeps uploaded files in a public Backblaze B2 bucket.
type B2Storage struct {
	client *b2.Client
	bucket *b2.Bucket
	prefix string // public URL prefix of the bucket's objects
}

var _ core.FileStorage = (*B2Storage)(nil)

func NewB2Storage(ctx context.Context, keyID, appKey, bucketName string) (*B2Storage, error) {
	client, err := b2.NewClient(ctx, keyID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &B2Storage{
		client: client,
		bucket: bucket,
		prefix: fmt.Sprintf("%s/file/%s/", bucket.BaseURL(), bucket.Name()),
	}, nil
}

func (s *B2Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	obj := s.bucket.Object(name)
	newWriter := func(ctx context.Context) io.WriteCloser { return obj.NewWriter(ctx) }
	if err := copyObject(ctx, newWriter, r); err != nil {
		return "", err
	}
	return s.prefix + name, nil
}

// copyObject streams r into a new object.
// When the copy fails the writer's context is canceled before Close, so the partial object is discarded.
func copyObject(ctx context.Context, newWriter func(context.Context) io.WriteCloser, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := newWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return errors.Wrap(err, "writing object")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing object writer")
	}
	return nil
}

func (s *B2Storage) Delete(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(ref, s.prefix)
	if key == ref || key == "" {
		return core.ErrFileNotFound
	}
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if b2.IsNotExist(err) {
			return core.ErrFileNotFound
		}
		return errors.Wrap(err, "deleting object")
	}
	return nil
}
