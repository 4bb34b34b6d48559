package logger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/feral-file/ff-image-optimizer/internal/logger"
)

func TestInitialize(t *testing.T) {
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))
	assert.NotNil(t, logger.Default())

	require.NoError(t, logger.Initialize(logger.Config{Debug: false}))
	assert.NotNil(t, logger.Default())
}

func TestNamed_TagsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	logger.Named("tinify").Error("Credentials are invalid (HTTP 401/Unauthorized)")
	logger.ErrorCtx(context.Background(), errors.New("plain failure"))
	logger.Error(nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "tinify", entries[0].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Credentials are invalid (HTTP 401/Unauthorized)", entries[0].Message)
	assert.Equal(t, "plain failure", entries[1].Message)
	assert.Equal(t, "error occurred", entries[2].Message)
}

func TestReplace_Restores(t *testing.T) {
	original := logger.Default()
	restore := logger.Replace(zap.NewNop())
	assert.NotSame(t, original, logger.Default())
	restore()
	assert.Same(t, original, logger.Default())
}
