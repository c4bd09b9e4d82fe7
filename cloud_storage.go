package dicomweb

import "context"

// CloudStorageObject represents a single instance of a cloud storage object
type CloudStorageObject struct {
	Name      string          `json:"name"`
	SignedURL SignedBucketURL `json:"signedURL"`
}

type SignedBucketURL struct {
	URL string `json:"url"`
}

// CloudStorageBucket represents a single instance of a cloud storage bucket
type CloudStorageBucket struct {
	Name string `json:"name"`
}

// CloudStorageService is an implementable interface with the operations used
// to export retrieved DICOM instances to a storage bucket
type CloudStorageService interface {

	// Writes the given instance bytes to an object in the bucket
	UploadObject(ctx context.Context, bucket *CloudStorageBucket, object *CloudStorageObject, data []byte) error

	// Generates a presigned bucket URL with limited possible operations for a limited period of time
	GeneratePresignedBucketURL(bucket *CloudStorageBucket, object *CloudStorageObject, method string) (*SignedBucketURL, error)
}
