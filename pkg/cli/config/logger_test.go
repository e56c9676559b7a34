package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/cli/config"
	"github.com/secmon-lab/threatline/pkg/utils/logging"
)

type credential struct {
	User     string
	Password string `masq:"secret"`
}

func TestLogger_Configure(t *testing.T) {
	before := logging.Default()
	t.Cleanup(func() { logging.SetDefault(before) })

	path := filepath.Join(t.TempDir(), "threatline.log")
	closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
	gt.NoError(t, err).Required()

	logging.Default().Debug("login", "cred", credential{User: "blue", Password: "hunter2"})
	closer()

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.String(t, string(data)).Contains(`"msg":"login"`)
	gt.String(t, string(data)).Contains("blue")
	gt.Bool(t, strings.Contains(string(data), "hunter2")).False()
}

func TestLogger_ConfigureInvalid(t *testing.T) {
	before := logging.Default()
	t.Cleanup(func() { logging.SetDefault(before) })

	t.Run("unknown level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json", "stdout").Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout").Configure()
		gt.Value(t, err).NotNil()
		gt.Value(t, logging.Default()).Equal(before)
	})

	t.Run("console format", func(t *testing.T) {
		closer, err := config.NewLoggerForTest("warn", "console", "stderr").Configure()
		gt.NoError(t, err).Required()
		closer()
	})
}
