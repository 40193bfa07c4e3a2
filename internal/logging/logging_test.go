package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"info level", false, false},
		{"debug level", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.debug)

			log.Debug(ctx, "dbg", "a", 1)
			log.Info(ctx, "inf", "b", 2)
			log.Warn(ctx, "wrn", "c", 3)
			log.Error(ctx, "err", "d", 4)

			out := buf.String()
			assert.Contains(t, out, "level=INFO msg=inf b=2")
			assert.Contains(t, out, "level=WARN msg=wrn c=3")
			assert.Contains(t, out, "level=ERROR msg=err d=4")
			if tt.wantDebug {
				assert.Contains(t, out, "level=DEBUG msg=dbg a=1")
			} else {
				assert.NotContains(t, out, "msg=dbg")
			}
		})
	}
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false).With("request_id", "123", "user", "alice")

	log.Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, s := range []string{"msg=hello", "request_id=123", "user=alice", "k=v"} {
		assert.Contains(t, out, s)
	}
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().With("x", 1).Error(context.TODO(), "dropped")
	})
}
