package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// objectWriter records the state of its context when closed.
type objectWriter struct {
	ctx       context.Context
	buf       bytes.Buffer
	closedErr error
	closed    bool
}

func (w *objectWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *objectWriter) Close() error {
	w.closed = true
	w.closedErr = w.ctx.Err()
	return nil
}

func newObjectWriter(w *objectWriter) func(context.Context) io.WriteCloser {
	return func(ctx context.Context) io.WriteCloser {
		w.ctx = ctx
		return w
	}
}

func Test_copyObject(t *testing.T) {
	t.Run("commits a complete copy", func(t *testing.T) {
		w := &objectWriter{}
		require.NoError(t, copyObject(context.Background(), newObjectWriter(w), strings.NewReader("my work")))
		assert.True(t, w.closed)
		assert.NoError(t, w.closedErr)
		assert.Equal(t, "my work", w.buf.String())
	})

	t.Run("cancels a failed copy before closing", func(t *testing.T) {
		w := &objectWriter{}
		readErr := errors.New("connection reset")
		err := copyObject(context.Background(), newObjectWriter(w), iotest.ErrReader(readErr))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.True(t, w.closed)
		assert.Equal(t, context.Canceled, w.closedErr)
	})
}
