package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNopBeforeInit(t *testing.T) {
	assert := assert.New(t)
	assert.NotPanics(func() {
		Info("dropped", zap.Int("n", 1))
		Named(nil, "test").Warn("dropped")
	})
}

func TestInitLoggerWritesJSON(t *testing.T) {
	assert := assert.New(t)
	saved := Logger
	defer func() {
		Logger = saved
		SugarLogger = saved.Sugar()
	}()

	cfg := DefaultConfig()
	cfg.FileName = filepath.Join(t.TempDir(), "test.log")
	cfg.Level = "DEBUG"
	assert.NoError(InitLogger(cfg))

	Debug("hello", zap.String("component", "logger"))
	With(zap.Int("n", 7)).Info("child")
	assert.NoError(Sync())

	data, err := os.ReadFile(cfg.FileName)
	assert.NoError(err)
	out := string(data)
	assert.True(strings.Contains(out, `"level":"DEBUG"`))
	assert.True(strings.Contains(out, `"msg":"hello"`))
	assert.True(strings.Contains(out, `"component":"logger"`))
	assert.True(strings.Contains(out, `"n":7`))
}

func TestInitLoggerBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "LOUD"
	assert.Error(t, InitLogger(cfg))
}
