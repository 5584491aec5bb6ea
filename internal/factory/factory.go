package factory

import (
	"fmt"
	"time"

	"github.com/maxedonia/ela-mate-web/internal/config"
	"github.com/maxedonia/ela-mate-web/internal/imaging"
	"github.com/maxedonia/ela-mate-web/internal/storage"
)

// BackendType represents the image-processing backends
type BackendType string

const (
	// NativeBackend uses the pure Go codec and filters
	NativeBackend BackendType = config.BackendNative
	// OpenCVBackend uses gocv; only available in builds with the gocv tag
	OpenCVBackend BackendType = config.BackendOpenCV
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// BackendFactory creates imaging backends
type BackendFactory interface {
	CreateBackend(backendType BackendType) (imaging.Backend, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// backendFactory implements BackendFactory
type backendFactory struct{}

// NewBackendFactory creates a new backend factory
func NewBackendFactory() BackendFactory {
	return &backendFactory{}
}

// CreateBackend creates a backend based on the specified type
func (f *backendFactory) CreateBackend(backendType BackendType) (imaging.Backend, error) {
	switch backendType {
	case NativeBackend:
		return imaging.NewNative(), nil
	case OpenCVBackend:
		return imaging.NewOpenCV()
	default:
		return nil, fmt.Errorf("unsupported imaging backend: %s", backendType)
	}
}

// StorageOptions configures the fetchers built by the storage factory
type StorageOptions struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	AzureAccount string
	AzureKey     string
	LocalRoot    string
}

// storageFactory implements StorageFactory
type storageFactory struct {
	opts StorageOptions
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(opts StorageOptions) StorageFactory {
	return &storageFactory{opts: opts}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.opts.FetchTimeout, f.opts.MaxBytes), nil
	case AzureStorage:
		if f.opts.AzureAccount == "" || f.opts.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires account name and key")
		}
		return storage.NewAzureBlobFetcher(f.opts.AzureAccount, f.opts.AzureKey, f.opts.MaxBytes)
	case LocalStorage:
		return storage.NewLocalFileFetcher(f.opts.LocalRoot, f.opts.MaxBytes), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// NewRouter builds a scheme router over the requested storage types.
// HTTP serves http and https, Azure serves azblob and local serves file.
func NewRouter(f StorageFactory, types ...StorageType) (*storage.Router, error) {
	router := storage.NewRouter()
	for _, t := range types {
		fetcher, err := f.CreateStorage(t)
		if err != nil {
			return nil, err
		}
		switch t {
		case HTTPStorage:
			router.Register(fetcher, "http", "https")
		case AzureStorage:
			router.Register(fetcher, "azblob")
		case LocalStorage:
			router.Register(fetcher, "file")
		}
	}
	return router, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	BackendFactory BackendFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a component factory configured from cfg
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		BackendFactory: NewBackendFactory(),
		StorageFactory: NewStorageFactory(StorageOptions{
			FetchTimeout: cfg.ImageFetchTimeout,
			MaxBytes:     cfg.MaxRequestBodySize,
			AzureAccount: cfg.AzureStorageAccount,
			AzureKey:     cfg.AzureStorageKey,
		}),
	}
}
