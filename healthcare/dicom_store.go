package healthcare

import (
	"context"
	"fmt"

	dicomweb "gitlab.com/medical-research/dicomweb-client"
	healthcare "google.golang.org/api/healthcare/v1"
)

// Ensure service implements interface.
var _ dicomweb.DicomStoreService = (*DicomStoreService)(nil)

// DicomStoreService represents a service for managing DICOM stores through
// the Cloud Healthcare API discovery client. Store administration is the one
// surface where the discovery client is used; the DICOMweb operations
// themselves go through DicomWebService.
type DicomStoreService struct {
	StoreService *healthcare.ProjectsLocationsDatasetsDicomStoresService

	// Dataset resource name in the form
	// projects/<project>/locations/<location>/datasets/<dataset>.
	Dataset string
}

// NewDicomStoreService returns a new instance of DicomStoreService bound to
// the given dataset.
func NewDicomStoreService(ctx context.Context, dataset string) (*DicomStoreService, error) {
	svc, err := healthcare.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("healthcare.NewService: %v", err)
	}

	return &DicomStoreService{
		StoreService: svc.Projects.Locations.Datasets.DicomStores,
		Dataset:      dataset,
	}, nil
}

// CreateDicomStore creates a new DICOM store in the dataset to hold DICOM
// instances.
func (s *DicomStoreService) CreateDicomStore(ctx context.Context, storeID string) (*dicomweb.DicomStore, error) {
	store := &healthcare.DicomStore{}

	resp, err := s.StoreService.Create(s.Dataset, store).DicomStoreId(storeID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("Create: %v", err)
	}
	return &dicomweb.DicomStore{StoreID: resp.Name}, nil
}

// DeleteDicomStore deletes an existing DICOM store.
func (s *DicomStoreService) DeleteDicomStore(ctx context.Context, storeID string) error {
	name := fmt.Sprintf("%s/dicomStores/%s", s.Dataset, storeID)
	if _, err := s.StoreService.Delete(name).Context(ctx).Do(); err != nil {
		return fmt.Errorf("Delete: %v", err)
	}
	return nil
}

// GetDicomStoreList lists all DICOM stores in the dataset.
func (s *DicomStoreService) GetDicomStoreList(ctx context.Context) ([]*dicomweb.DicomStore, error) {
	resp, err := s.StoreService.List(s.Dataset).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("List: %v", err)
	}

	dicomStores := make([]*dicomweb.DicomStore, 0, len(resp.DicomStores))
	for _, store := range resp.DicomStores {
		dicomStores = append(dicomStores, &dicomweb.DicomStore{StoreID: store.Name})
	}
	return dicomStores, nil
}
