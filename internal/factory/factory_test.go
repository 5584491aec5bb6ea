package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/maxedonia/ela-mate-web/internal/config"
	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/storage"
)

func TestCreateBackend(t *testing.T) {
	f := NewBackendFactory()

	b, err := f.CreateBackend(NativeBackend)
	if err != nil {
		t.Fatalf("CreateBackend(native) failed: %v", err)
	}
	if b.Name() != "native" {
		t.Errorf("Expected native backend, got %s", b.Name())
	}

	if _, err := f.CreateBackend("vips"); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestCreateBackend_OpenCVMatchesBuild(t *testing.T) {
	b, err := NewBackendFactory().CreateBackend(OpenCVBackend)
	if err != nil {
		if !errors.Is(err, imaging.ErrOpenCVUnavailable) {
			t.Errorf("Expected ErrOpenCVUnavailable, got %v", err)
		}
		return
	}
	if b.Name() != "opencv" {
		t.Errorf("Expected opencv backend, got %s", b.Name())
	}
}

func TestCreateStorage(t *testing.T) {
	f := NewStorageFactory(StorageOptions{FetchTimeout: time.Second, MaxBytes: 1024})

	if s, err := f.CreateStorage(HTTPStorage); err != nil || s == nil {
		t.Errorf("Expected HTTP storage, got %v", err)
	}
	if s, err := f.CreateStorage(LocalStorage); err != nil || s == nil {
		t.Errorf("Expected local storage, got %v", err)
	}
	if _, err := f.CreateStorage(AzureStorage); err == nil {
		t.Error("Expected azure storage to require credentials")
	}
	if _, err := f.CreateStorage("ftp"); err == nil {
		t.Error("Expected error for unknown storage type")
	}
}

func TestNewRouter(t *testing.T) {
	cf := NewComponentFactory(&config.Config{ImageFetchTimeout: time.Second, MaxRequestBodySize: 1024})

	router, err := NewRouter(cf.StorageFactory, HTTPStorage, LocalStorage)
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	for scheme, want := range map[string]bool{"http": true, "https": true, "file": true, "azblob": false} {
		if got := router.Supports(scheme); got != want {
			t.Errorf("Supports(%q) = %v, want %v", scheme, got, want)
		}
	}

	if _, err := NewRouter(cf.StorageFactory, AzureStorage); err == nil {
		t.Error("Expected router construction to fail without azure credentials")
	}

	var _ storage.ImageFetcher = router
}
