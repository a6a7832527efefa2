package filestore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
)

// New returns the file storage backend selected in conf.
func New(ctx context.Context, conf *core.Config) (core.FileStorage, error) {
	switch conf.Storage.Backend {
	case core.StorageLocal, "":
		return NewLocalStorage(conf.Storage.UploadDir)
	case core.StorageB2:
		return NewB2Storage(ctx, conf.Storage.B2KeyID, conf.Storage.B2AppKey, conf.Storage.B2Bucket)
	}
	return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
}
