package healthcare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/textproto"

	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

// Ensure service implements interface.
var _ dicomweb.DicomWebClient = (*DicomWebService)(nil)

// QidoRs performs a QIDO-RS request and returns the parsed JSON response, one
// metadata mapping per matched resource, or an empty slice on a 204 response.
func (s *DicomWebService) QidoRs(ctx context.Context, qidoURL string, opts ...dicomweb.RequestOption) ([]map[string]interface{}, error) {
	o := dicomweb.NewRequestOptions(opts...)

	outcome, err := s.retryPolicy().Do(ctx, func() (*httpOutcome, error) {
		return s.invokeHTTPRequest(ctx, qidoURL, http.MethodGet, nil, nil, o.Timeout)
	})
	if err != nil {
		return nil, err
	}
	if notHTTP2xx(outcome.status) {
		return nil, &dicomweb.UnexpectedResponseError{Op: "QidoRs", Status: outcome.status, URL: qidoURL, Content: outcome.content}
	}
	if outcome.status == http.StatusNoContent { // Empty query
		return []map[string]interface{}{}, nil
	}

	var resp []map[string]interface{}
	if err := json.Unmarshal(outcome.content, &resp); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %v", err)
	}
	return resp, nil
}

// WadoRs performs a WADO-RS request, parses the multipart response and
// returns the content of its first (and only) part.
func (s *DicomWebService) WadoRs(ctx context.Context, wadoURL string, opts ...dicomweb.RequestOption) ([]byte, error) {
	o := dicomweb.NewRequestOptions(opts...)

	var headers map[string]string
	if o.Accept != "" {
		headers = map[string]string{"Accept": o.Accept}
	}

	outcome, err := s.retryPolicy().Do(ctx, func() (*httpOutcome, error) {
		return s.invokeHTTPRequest(ctx, wadoURL, http.MethodGet, nil, headers, o.Timeout)
	})
	if err != nil {
		return nil, err
	}
	if notHTTP2xx(outcome.status) {
		return nil, &dicomweb.UnexpectedResponseError{Op: "WadoRs", Status: outcome.status, URL: wadoURL, Content: outcome.content}
	}

	parts, err := decodeMultipartRelated(outcome.content, outcome.header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("WadoRs: %v", err)
	}
	if len(parts) != 1 {
		return nil, &dicomweb.UnexpectedResponseError{
			Op:      "WadoRs",
			Status:  outcome.status,
			URL:     wadoURL,
			Content: []byte(fmt.Sprintf("multipart response expected to have a single part. Actual: %d", len(parts))),
		}
	}
	return parts[0].content, nil
}

// StowRs stores the serialized DICOM instances via STOW-RS, one
// application/dicom part per instance.
func (s *DicomWebService) StowRs(ctx context.Context, stowURL string, instances [][]byte, opts ...dicomweb.RequestOption) error {
	parts := make([]requestPart, 0, len(instances))
	for _, instance := range instances {
		parts = append(parts, dicomPart(instance))
	}
	return s.stowRs(ctx, "StowRs", stowURL, "dicom", parts, dicomweb.NewRequestOptions(opts...))
}

// StowRsJson stores the instances via the STOW-RS JSON variant. The first
// part carries the DICOM JSON metadata of all instances; every bulkdata
// entry referenced from that metadata follows as its own part.
func (s *DicomWebService) StowRsJson(ctx context.Context, stowURL string, instances []map[string]interface{}, bulkdata []dicomweb.BulkData, opts ...dicomweb.RequestOption) error {
	metadata, err := json.Marshal(instances)
	if err != nil {
		return fmt.Errorf("json.Marshal: %v", err)
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "application/dicom+json")
	parts := []requestPart{{header: header, data: metadata}}

	for _, b := range bulkdata {
		part, err := bulkDataPart(b)
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}
	return s.stowRs(ctx, "StowRsJson", stowURL, "dicom+json", parts, dicomweb.NewRequestOptions(opts...))
}

// DeleteRs performs a DELETE request on the given resource URL. The resource
// can be an instance, series or study.
func (s *DicomWebService) DeleteRs(ctx context.Context, deleteURL string, opts ...dicomweb.RequestOption) error {
	o := dicomweb.NewRequestOptions(opts...)

	outcome, err := s.retryPolicy().Do(ctx, func() (*httpOutcome, error) {
		return s.invokeHTTPRequest(ctx, deleteURL, http.MethodDelete, nil, nil, o.Timeout)
	})
	if err != nil {
		return err
	}
	if notHTTP2xx(outcome.status) {
		return &dicomweb.UnexpectedResponseError{Op: "DeleteRs", Status: outcome.status, URL: deleteURL, Content: outcome.content}
	}
	return nil
}

// stowRs encodes the parts into a multipart/related body and POSTs it.
func (s *DicomWebService) stowRs(ctx context.Context, op, stowURL, applicationType string, parts []requestPart, o *dicomweb.RequestOptions) error {
	contentType, body, err := encodeMultipartRelated(parts, applicationType)
	if err != nil {
		return err
	}
	headers := map[string]string{"Content-Type": contentType}

	outcome, err := s.retryPolicy().Do(ctx, func() (*httpOutcome, error) {
		return s.invokeHTTPRequest(ctx, stowURL, http.MethodPost, body, headers, o.Timeout)
	})
	if err != nil {
		return err
	}
	if notHTTP2xx(outcome.status) {
		return &dicomweb.UnexpectedResponseError{Op: op, Status: outcome.status, URL: stowURL, Content: outcome.content}
	}
	return nil
}
