package storage_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/wyxpro/mindcare/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	t.Run("connection string", func(t *testing.T) {
		cfg := &storage.Config{ContainerName: "reports", ConnectionString: azuriteConnString}
		sys, err := storage.New(cfg, discard())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if sys == nil {
			t.Fatal("New() returned nil system")
		}
	})

	t.Run("invalid connection string", func(t *testing.T) {
		cfg := &storage.Config{ContainerName: "reports", ConnectionString: "not-a-connection-string"}
		if _, err := storage.New(cfg, discard()); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		if _, err := storage.New(&storage.Config{ContainerName: "reports"}, discard()); !errors.Is(err, storage.ErrDisabled) {
			t.Errorf("err = %v, want ErrDisabled", err)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"reports/u/r.json", nil},
		{"reports/u/r..json", nil},
		{"", storage.ErrEmptyKey},
		{"reports/../secrets", storage.ErrInvalidKey},
		{"..", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := storage.ValidateKey(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{storage.ErrDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults disabled", func(t *testing.T) {
		cfg := &storage.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		if cfg.ContainerName != "reports" || cfg.Enabled() {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("env account url", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_ACCOUNT_URL", "https://acct.blob.core.windows.net/")
		cfg := &storage.Config{}
		if err := cfg.Finalize(&storage.Env{AccountURL: "TEST_STORAGE_ACCOUNT_URL"}); err != nil {
			t.Fatal(err)
		}
		if !cfg.Enabled() {
			t.Error("expected enabled")
		}
	})

	t.Run("both backends", func(t *testing.T) {
		cfg := &storage.Config{ConnectionString: azuriteConnString, AccountURL: "https://acct.blob.core.windows.net/"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("merge", func(t *testing.T) {
		cfg := &storage.Config{ContainerName: "reports"}
		cfg.Merge(&storage.Config{ContainerName: "archive"})
		if cfg.ContainerName != "archive" {
			t.Errorf("ContainerName = %s", cfg.ContainerName)
		}
	})
}
