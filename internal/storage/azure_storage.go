package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
)

// AzureBlobFetcher downloads images from an Azure storage account
type AzureBlobFetcher struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureBlobFetcher authenticates against accountName with a shared key
func NewAzureBlobFetcher(accountName, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureBlobFetcher{client: client, maxBytes: maxBytes}, nil
}

// Fetch downloads the blob named by location
func (s *AzureBlobFetcher) Fetch(ctx context.Context, location string) (*Blob, error) {
	containerName, blobName, err := ParseBlobLocation(location)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("blob not found", err)
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	blob := &Blob{Data: data}
	if resp.ContentType != nil {
		blob.ContentType = *resp.ContentType
	}
	return blob, nil
}

// ParseBlobLocation splits azblob://container/path/to/blob, or an https URL on
// an account endpoint, into container and blob names.
func ParseBlobLocation(location string) (containerName, blobName string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "azblob":
		containerName = u.Host
		blobName = strings.TrimPrefix(u.Path, "/")
	case "https":
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(parts) == 2 {
			containerName, blobName = parts[0], parts[1]
		}
	default:
		return "", "", apperrors.NewValidationError(fmt.Sprintf("unsupported blob scheme %q", u.Scheme), nil)
	}

	if containerName == "" || blobName == "" {
		return "", "", apperrors.NewValidationError("blob URL must name a container and a blob", nil)
	}
	return containerName, blobName, nil
}
