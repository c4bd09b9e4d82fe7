// Package healthcare implements the DICOMweb client against the Google Cloud
// Healthcare API.
package healthcare

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CloudPlatformScope is the OAuth scope the Cloud Healthcare API requires.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// DicomWebService represents a Cloud Healthcare implementation of
// dicomweb.DicomWebClient. Construct instances with NewDicomWebService, or
// populate the fields directly in tests.
//
// A single DicomWebService is safe for concurrent use provided its token
// source is.
type DicomWebService struct {
	// Transport performs the HTTP round trips and is expected to attach
	// the authorization header. A nil Transport falls back to
	// http.DefaultTransport (no authorization), which is only useful
	// against test servers.
	Transport http.RoundTripper

	// Retry decides which responses are retried and how. A nil Retry
	// falls back to DefaultRetryPolicy.
	Retry *RetryPolicy
}

// NewDicomWebService returns a new instance of DicomWebService authorized by
// the given token source. A nil token source falls back to the application
// default credentials with the cloud-platform scope.
func NewDicomWebService(ctx context.Context, ts oauth2.TokenSource) (*DicomWebService, error) {
	if ts == nil {
		var err error
		ts, err = google.DefaultTokenSource(ctx, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("google.DefaultTokenSource: %v", err)
		}
	}

	return &DicomWebService{
		Transport: &oauth2.Transport{Source: ts},
		Retry:     DefaultRetryPolicy(),
	}, nil
}

func (s *DicomWebService) roundTripper() http.RoundTripper {
	if s.Transport != nil {
		return s.Transport
	}
	return http.DefaultTransport
}

func (s *DicomWebService) retryPolicy() *RetryPolicy {
	if s.Retry != nil {
		return s.Retry
	}
	return DefaultRetryPolicy()
}
