package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/cli/config"
)

func TestGemini_Configure(t *testing.T) {
	t.Run("returns nil client when project ID is empty", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "us-central1")
		client, err := cfg.Configure(t.Context())
		gt.NoError(t, err)
		gt.Value(t, client).Nil()
	})

	t.Run("suggester is disabled without project ID", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "us-central1")
		suggester, err := cfg.ConfigureSuggester(t.Context())
		gt.NoError(t, err)
		gt.Value(t, suggester).Nil()
	})

	t.Run("returns flags", func(t *testing.T) {
		cfg := config.NewGeminiForTest("", "")
		gt.Array(t, cfg.Flags()).Length(3)
	})
}

func TestSlack_Configure(t *testing.T) {
	t.Run("disabled when nothing is set", func(t *testing.T) {
		notifier, err := config.NewSlackForTest("", "", "").Configure()
		gt.NoError(t, err)
		gt.Value(t, notifier).Nil()
	})

	t.Run("token without channel", func(t *testing.T) {
		_, err := config.NewSlackForTest("xoxb-test", "", "").Configure()
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("channel without token", func(t *testing.T) {
		_, err := config.NewSlackForTest("", "C0123", "").Configure()
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("configured", func(t *testing.T) {
		cfg := config.NewSlackForTest("xoxb-test", "C0123", "https://threatline.example.com/")
		gt.Bool(t, cfg.IsConfigured()).True()

		notifier, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, notifier).NotNil()
	})
}

func TestRepository_Configure(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		repo, closer, err := config.NewRepositoryForTest(config.BackendMemory, "", "").Configure(t.Context())
		gt.NoError(t, err).Required()
		defer closer()
		gt.Value(t, repo).NotNil()
	})

	t.Run("firestore requires project ID", func(t *testing.T) {
		_, _, err := config.NewRepositoryForTest(config.BackendFirestore, "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("postgres requires DSN", func(t *testing.T) {
		_, _, err := config.NewRepositoryForTest(config.BackendPostgres, "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := config.NewRepositoryForTest("mysql", "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidBackend)
	})
}

func TestStorage_Configure(t *testing.T) {
	t.Run("disabled when nothing is set", func(t *testing.T) {
		store, closer, err := config.NewStorageForTest("", "", "").Configure(t.Context())
		gt.NoError(t, err).Required()
		defer closer()
		gt.Value(t, store).Nil()
	})

	t.Run("local directory", func(t *testing.T) {
		store, closer, err := config.NewStorageForTest("", "", t.TempDir()).Configure(t.Context())
		gt.NoError(t, err).Required()
		defer closer()
		gt.Value(t, store).NotNil().Required()

		gt.NoError(t, store.Put(t.Context(), "projects/p1/register/v1.md", []byte("# Register"), "text/markdown")).Required()
		data, err := store.Get(t.Context(), "projects/p1/register/v1.md")
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal("# Register")
	})
}

func TestSentry_Configure(t *testing.T) {
	var cfg config.Sentry
	gt.Bool(t, cfg.IsEnabled()).False()

	flush, err := cfg.Configure()
	gt.NoError(t, err).Required()
	flush()
}
