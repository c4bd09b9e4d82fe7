package healthcare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

// httpOutcome is the result of one HTTP round trip: the final status code,
// the response headers and the fully read body.
type httpOutcome struct {
	status  int
	header  http.Header
	content []byte
}

// invokeHTTPRequest performs exactly one network round trip against the
// DICOMweb API. Connection-level failures (DNS, TLS, timeout before any
// response) are returned as errors; any received response, whatever its
// status, becomes an httpOutcome for the caller to judge.
func (s *DicomWebService) invokeHTTPRequest(ctx context.Context, uri, method string, body []byte, headers map[string]string, timeout time.Duration) (*httpOutcome, error) {
	if timeout <= 0 {
		timeout = dicomweb.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %v", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	client := &http.Client{Transport: s.roundTripper()}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v", method, uri, err)
	}
	defer resp.Body.Close()

	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %v", err)
	}

	return &httpOutcome{
		status:  resp.StatusCode,
		header:  resp.Header,
		content: content,
	}, nil
}

func notHTTP2xx(status int) bool {
	return status/100 != 2
}
