package gcloudstorage

import (
	"context"
	"fmt"
	"io/ioutil"
	"time"

	"cloud.google.com/go/storage"
	dicomweb "gitlab.com/medical-research/dicomweb-client"
	"golang.org/x/oauth2/google"
)

// Ensure service implements interface.
var _ dicomweb.CloudStorageService = (*CloudStorageService)(nil)

// CloudStorageService represents a service for exporting retrieved DICOM
// instances to a cloud storage bucket
type CloudStorageService struct {
	GCloudStorage *GCloudStorage
}

// NewCloudStorageService returns a new instance of CloudStorageService
func NewCloudStorageService(gcloudStorage *GCloudStorage) *CloudStorageService {
	return &CloudStorageService{
		GCloudStorage: gcloudStorage,
	}
}

// UploadObject writes the given instance bytes to an object in the bucket
func (s *CloudStorageService) UploadObject(ctx context.Context, bucket *dicomweb.CloudStorageBucket, object *dicomweb.CloudStorageObject, data []byte) error {
	w := s.GCloudStorage.Client.Bucket(bucket.Name).Object(object.Name).NewWriter(ctx)
	w.ContentType = "application/dicom"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Close: %v", err)
	}
	return nil
}

// GeneratePresignedBucketURL Generates a presigned bucket URL with limited possible operations for a limited period of time
func (s *CloudStorageService) GeneratePresignedBucketURL(bucket *dicomweb.CloudStorageBucket, object *dicomweb.CloudStorageObject, method string) (*dicomweb.SignedBucketURL, error) {

	serviceAccount, err := dicomweb.GetEnvVar(ServiceAccount)
	if err != nil {
		return nil, err
	}
	jsonKey, err := ioutil.ReadFile(serviceAccount)
	if err != nil {
		return nil, fmt.Errorf("ioutil.ReadFile: %v", err)
	}
	conf, err := google.JWTConfigFromJSON(jsonKey)
	if err != nil {
		return nil, fmt.Errorf("google.JWTConfigFromJSON: %v", err)
	}
	opts := &storage.SignedURLOptions{
		Scheme: storage.SigningSchemeV4,
		Method: method,
		Headers: []string{
			"Content-Type:application/octet-stream",
		},
		GoogleAccessID: conf.Email,
		PrivateKey:     conf.PrivateKey,
		Expires:        time.Now().Add(15 * time.Minute),
	}
	u, err := s.GCloudStorage.SignedURL(bucket.Name, object.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("storage.SignedURL: %v", err)
	}
	return &dicomweb.SignedBucketURL{URL: u}, nil
}
