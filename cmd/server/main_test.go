package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bufferedLogger only writes when synced, like a production logger under load.
func bufferedLogger(t *testing.T) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ws := &zapcore.BufferedWriteSyncer{WS: zapcore.AddSync(&out), FlushInterval: time.Hour}
	t.Cleanup(func() { ws.Stop() })
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ws, zap.DebugLevel)
	return zap.New(core), &out
}

func TestFinish_FlushesFailureBeforeExit(t *testing.T) {
	logger, out := bufferedLogger(t)

	// WHEN run fails
	code := finish(logger, errors.New("listening: address already in use"))

	// THEN the failure is on the writer before the process would exit
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "server failed")
	assert.Contains(t, out.String(), "address already in use")
}

func TestFinish_CleanShutdown(t *testing.T) {
	logger, out := bufferedLogger(t)
	logger.Info("server stopped")

	code := finish(logger, nil)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "server stopped")
	assert.NotContains(t, out.String(), "server failed")
}
