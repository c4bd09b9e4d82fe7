package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/rollbar/rollbar-go"
	dicomweb "gitlab.com/medical-research/dicomweb-client"
	"gitlab.com/medical-research/dicomweb-client/gcloudstorage"
	"gitlab.com/medical-research/dicomweb-client/healthcare"
	"gitlab.com/medical-research/dicomweb-client/http"
)

// Environment variables read at startup.
const (
	RollBarToken = "ROLLBAR_TOKEN"
	HTTPAddress  = "HTTP_ADDRESS"
	Domain       = "DOMAIN"

	ProjectID    = "GCLOUD_PROJECT_ID"
	Location     = "GCLOUD_PROJECT_LOCATION"
	DatasetID    = "GCLOUD_PROJECT_DATASET_ID"
	DicomStoreID = "GCLOUD_DICOM_STORE"
	ExportBucket = "GCLOUD_EXPORT_BUCKET"
)

func main() {
	// Setup signal handlers.
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() { <-c; cancel() }()

	// Instantiate a new type to represent our application.
	// This type lets us shared setup code with our end-to-end tests.
	m, err := NewMain(ctx)
	if err != nil {
		log.Panicf("new main could not be created: %v", err)
		os.Exit(1)
	}

	// Execute program.
	if err := m.Run(ctx); err != nil {
		m.Close()
		fmt.Fprintln(os.Stderr, err)
		dicomweb.ReportError(ctx, err)
		os.Exit(1)
	}

	// Wait for CTRL-C.
	<-ctx.Done()

	// Clean up program.
	if err := m.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// HTTP server for handling HTTP communication.
	// DICOMweb services are attached to it before running.
	HTTPServer *http.Server

	DicomWebService *healthcare.DicomWebService
	CloudStorage    *gcloudstorage.GCloudStorage
}

// NewMain returns a new instance of Main.
func NewMain(ctx context.Context) (*Main, error) {

	dicomWebService, err := healthcare.NewDicomWebService(ctx, nil)
	if err != nil {
		return nil, err
	}

	cloudStorage, err := gcloudstorage.NewGCloudStorage(ctx)
	if err != nil {
		return nil, err
	}

	return &Main{
		DicomWebService: dicomWebService,
		CloudStorage:    cloudStorage,
		HTTPServer:      http.NewServer(),
	}, nil
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.HTTPServer != nil {
		if err := m.HTTPServer.Close(); err != nil {
			return err
		}
	}

	return nil
}

// Run executes the program. The configuration should already be set up before
// calling this function.
func (m *Main) Run(ctx context.Context) (err error) {
	// Initialize error tracking.
	rollbarToken := dicomweb.MustGetEnvVar(RollBarToken)

	rollbar.SetToken(rollbarToken)
	rollbar.SetEnvironment("development")
	rollbar.SetServerRoot("gitlab.com/medical-research/dicomweb-client")
	log.Printf("rollbar error tracking enabled")

	dicomweb.ReportError = func(ctx context.Context, err error, args ...interface{}) {
		rollbar.Error(append([]interface{}{err}, args...)...)
	}
	dicomweb.ReportPanic = func(err interface{}) {
		rollbar.Critical(fmt.Errorf("panic: %v", err))
	}

	// The DICOM store the facade fronts.
	dataset := fmt.Sprintf("projects/%s/locations/%s/datasets/%s",
		dicomweb.MustGetEnvVar(ProjectID),
		dicomweb.MustGetEnvVar(Location),
		dicomweb.MustGetEnvVar(DatasetID),
	)
	dicomWebURL := dicomweb.PathStrToURL(fmt.Sprintf("%s/dicomStores/%s/dicomWeb", dataset, dicomweb.MustGetEnvVar(DicomStoreID)))

	// Instantiate the services backing the HTTP routes.
	dicomStoreService, err := healthcare.NewDicomStoreService(ctx, dataset)
	if err != nil {
		return err
	}
	cloudStorageService := gcloudstorage.NewCloudStorageService(m.CloudStorage)

	// Copy configuration settings to the HTTP server.
	m.HTTPServer.Addr = os.Getenv(HTTPAddress)
	m.HTTPServer.Domain = os.Getenv(Domain)
	m.HTTPServer.DicomWebURL = dicomWebURL
	m.HTTPServer.ExportBucket = os.Getenv(ExportBucket)
	m.HTTPServer.DicomWebClient = m.DicomWebService
	m.HTTPServer.DicomStoreService = dicomStoreService
	m.HTTPServer.CloudStorageService = cloudStorageService

	// Start the HTTP server.
	if err := m.HTTPServer.Open(); err != nil {
		return err
	}

	// If TLS enabled, redirect non-TLS connections to TLS.
	if m.HTTPServer.UseTLS() {
		go func() {
			log.Fatal(http.ListenAndServeTLSRedirect(m.HTTPServer.Domain))
		}()
	}

	// Enable internal debug endpoints.
	go func() { log.Fatal(http.ListenAndServeDebug()) }()

	log.Printf("running: url=%q dicomweb=%q", m.HTTPServer.URL(), dicomWebURL)

	return nil
}
