package core

import (
	"context"
	"errors"
	"io"
)

var ErrFileNotFound = errors.New("file not found")

// FileStorage persists uploaded files and returns the reference saved on records (relative path or URL).
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (ref string, err error)
	// Delete removes the file behind ref; ErrFileNotFound is returned when it is already gone.
	Delete(ctx context.Context, ref string) error
}
