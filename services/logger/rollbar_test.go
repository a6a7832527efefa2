package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seatech/enthusiasm/core"
)

func TestRollbarLogger(t *testing.T) {
	conf := core.NewTestConfig(t.TempDir())
	conf.Debug = true

	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), conf)

	logger.Error("saving student", errors.New("boom"), core.Person{ID: "42", Email: "alice@example.com"})
	out := buf.String()
	assert.Contains(t, out, "saving student\n")
	assert.Contains(t, out, "boom\n")
	assert.NotContains(t, out, "alice@example.com")

	args := logger.prepare("msg", []interface{}{core.Person{ID: "1"}, "extra", core.Person{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", "extra"}, args)
}
