package gcloudstorage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

const (
	// only used for the signed url generation
	ServiceAccount = "SERVICE_ACCOUNT"
)

type SignedURL func(bucket, name string, opts *storage.SignedURLOptions) (string, error)

type GCloudStorage struct {
	Client    *storage.Client
	SignedURL SignedURL
}

func NewGCloudStorage(ctx context.Context) (*GCloudStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %v", err)
	}

	store := &GCloudStorage{
		Client:    client,
		SignedURL: storage.SignedURL,
	}

	return store, nil
}
