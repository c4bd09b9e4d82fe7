package dicomweb

import (
	"context"
	"time"
)

// DefaultTimeout is the HTTP timeout applied to an operation when the caller
// does not override it with WithTimeout.
const DefaultTimeout = 3600 * time.Second

// BulkData represents a unit of binary payload referenced from DICOM JSON
// metadata during a StowRsJson call. The URI names the multipart part that
// carries the bytes (its Content-Location) and ContentType must be a MIME
// type of the form "type/subtype".
type BulkData struct {
	URI         string
	ContentType string
	Data        []byte
}

// Tag identifies a DICOM attribute by its hex tag number, e.g. "0020000D"
// for StudyInstanceUID. The client treats the number as opaque; no tag
// dictionary semantics are interpreted.
type Tag struct {
	Number string
}

// RequestOptions holds the per-call settings of a DICOMweb operation.
type RequestOptions struct {
	// HTTP timeout for the whole call including retries.
	Timeout time.Duration

	// Value of the Accept header. Only used by WadoRs; empty means no
	// Accept header is sent.
	Accept string
}

// RequestOption configures a single DICOMweb operation.
type RequestOption func(*RequestOptions)

// WithTimeout overrides the default HTTP timeout for one call.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *RequestOptions) { o.Timeout = d }
}

// WithAccept sets the Accept header for a WadoRs call.
func WithAccept(accept string) RequestOption {
	return func(o *RequestOptions) { o.Accept = accept }
}

// NewRequestOptions applies the supplied options over the defaults.
func NewRequestOptions(opts ...RequestOption) *RequestOptions {
	o := &RequestOptions{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DicomWebClient is an implementable interface with the DICOMweb operations
// performed against a DICOM store: QIDO-RS query, WADO-RS retrieve, STOW-RS
// store (raw and JSON variants) and delete.
type DicomWebClient interface {

	// Performs a QIDO-RS request and returns the parsed JSON response,
	// one metadata mapping per matched resource. A 204 response yields
	// an empty slice, not an error.
	QidoRs(ctx context.Context, qidoURL string, opts ...RequestOption) ([]map[string]interface{}, error)

	// Performs a WADO-RS request and returns the content of the first
	// (and only) part of the multipart response.
	WadoRs(ctx context.Context, wadoURL string, opts ...RequestOption) ([]byte, error)

	// Stores the serialized DICOM instances via STOW-RS.
	StowRs(ctx context.Context, stowURL string, instances [][]byte, opts ...RequestOption) error

	// Stores the instances via the STOW-RS JSON variant: one DICOM JSON
	// metadata mapping per instance plus the bulkdata each references.
	StowRsJson(ctx context.Context, stowURL string, instances []map[string]interface{}, bulkdata []BulkData, opts ...RequestOption) error

	// Performs a DELETE request on the given resource URL. Can be an
	// instance, series or study.
	DeleteRs(ctx context.Context, deleteURL string, opts ...RequestOption) error
}

// DicomStore represents a single instance of a DICOM store.
// A single DICOM store holds multiple DICOM instances.
type DicomStore struct {
	StoreID string
}

// DicomStoreService is an implementable interface with the administrative
// operations on DICOM stores themselves, as opposed to the instances held
// inside them.
type DicomStoreService interface {

	// Creates a new DICOM store to hold DICOM instances.
	CreateDicomStore(ctx context.Context, storeID string) (*DicomStore, error)

	// Deletes an existing DICOM store.
	DeleteDicomStore(ctx context.Context, storeID string) error

	// Lists all DICOM stores in the dataset.
	GetDicomStoreList(ctx context.Context) ([]*DicomStore, error)
}
