package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/tokentip/pkg/settings"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	lgr, zl := New(&buf, -1)
	lgr.V(1).Info("tooltip shown", "token", "t1")
	require.NoError(t, zl.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "tooltip shown", entry[MessageKey])
	require.Equal(t, "t1", entry["token"])
	require.Equal(t, settings.ModuleID, entry[ModuleKey])
	require.Contains(t, entry, TimeStampKey)
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr, zl := New(&buf, 0)
	lgr.V(1).Info("hidden")
	require.NoError(t, zl.Sync())
	require.Empty(t, buf.String())

	lgr.Error(errors.New("boom"), "code row failed")
	require.NoError(t, zl.Sync())
	require.Contains(t, buf.String(), "code row failed")
}

func TestGetIsSingleton(t *testing.T) {
	require.Same(t, Get(0), Get(-1))
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	lgr := logr.Discard()

	withLog := WithLogger(ctx, &lgr)
	require.Same(t, &lgr, FromContext(withLog))
	require.Equal(t, withLog, WithLogger(withLog, &lgr))
}

func TestFromContextFallsBack(t *testing.T) {
	orig := globalLogr
	globalLogr = nil
	t.Cleanup(func() { globalLogr = orig })

	require.Same(t, &noop, FromContext(context.Background()))

	gl := logr.Discard()
	globalLogr = &gl
	require.Same(t, &gl, FromContext(context.Background()))
}

func TestForCommand(t *testing.T) {
	var buf bytes.Buffer
	lgr, zl := New(&buf, 0)
	ForCommand(&lgr, "render").Info("start")
	require.NoError(t, zl.Sync())
	require.Contains(t, buf.String(), `"command":"render"`)
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"enotty", syscall.ENOTTY, true},
		{"einval wrapped", &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}, true},
		{"windows handle", errors.New("sync /dev/stderr: The handle is invalid."), true},
		{"other", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isIgnorableSyncError(tt.err))
		})
	}
}

func TestSyncWithoutLogger(t *testing.T) {
	orig := globalZap
	globalZap = nil
	t.Cleanup(func() { globalZap = orig })
	require.NotPanics(t, Sync)
}
