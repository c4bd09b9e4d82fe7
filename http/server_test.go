package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"testing"

	dicomweb "gitlab.com/medical-research/dicomweb-client"
	dicomwebhttp "gitlab.com/medical-research/dicomweb-client/http"
)

const testDicomWebURL = "https://healthcare.googleapis.com/v1/projects/p/locations/l/datasets/d/dicomStores/s/dicomWeb"

// Ensure mock implements interface.
var _ dicomweb.DicomWebClient = (*mockDicomWebClient)(nil)

type mockDicomWebClient struct {
	QidoRsFn     func(ctx context.Context, qidoURL string, opts ...dicomweb.RequestOption) ([]map[string]interface{}, error)
	WadoRsFn     func(ctx context.Context, wadoURL string, opts ...dicomweb.RequestOption) ([]byte, error)
	StowRsFn     func(ctx context.Context, stowURL string, instances [][]byte, opts ...dicomweb.RequestOption) error
	StowRsJsonFn func(ctx context.Context, stowURL string, instances []map[string]interface{}, bulkdata []dicomweb.BulkData, opts ...dicomweb.RequestOption) error
	DeleteRsFn   func(ctx context.Context, deleteURL string, opts ...dicomweb.RequestOption) error
}

func (m *mockDicomWebClient) QidoRs(ctx context.Context, qidoURL string, opts ...dicomweb.RequestOption) ([]map[string]interface{}, error) {
	return m.QidoRsFn(ctx, qidoURL, opts...)
}

func (m *mockDicomWebClient) WadoRs(ctx context.Context, wadoURL string, opts ...dicomweb.RequestOption) ([]byte, error) {
	return m.WadoRsFn(ctx, wadoURL, opts...)
}

func (m *mockDicomWebClient) StowRs(ctx context.Context, stowURL string, instances [][]byte, opts ...dicomweb.RequestOption) error {
	return m.StowRsFn(ctx, stowURL, instances, opts...)
}

func (m *mockDicomWebClient) StowRsJson(ctx context.Context, stowURL string, instances []map[string]interface{}, bulkdata []dicomweb.BulkData, opts ...dicomweb.RequestOption) error {
	return m.StowRsJsonFn(ctx, stowURL, instances, bulkdata, opts...)
}

func (m *mockDicomWebClient) DeleteRs(ctx context.Context, deleteURL string, opts ...dicomweb.RequestOption) error {
	return m.DeleteRsFn(ctx, deleteURL, opts...)
}

// mustOpenServer starts a facade server on a random port backed by the given
// client.
func mustOpenServer(t *testing.T, dwc dicomweb.DicomWebClient) *dicomwebhttp.Server {
	t.Helper()

	s := dicomwebhttp.NewServer()
	s.Addr = ":0"
	s.DicomWebURL = testDicomWebURL
	s.DicomWebClient = dwc
	if err := s.Open(); err != nil {
		t.Fatalf("server could not be opened: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServer_GetStudyMetadata(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		var gotURL string
		dwc := &mockDicomWebClient{
			QidoRsFn: func(ctx context.Context, qidoURL string, opts ...dicomweb.RequestOption) ([]map[string]interface{}, error) {
				gotURL = qidoURL
				return []map[string]interface{}{
					{"0020000D": map[string]interface{}{"vr": "UI", "Value": []interface{}{"1.2.3"}}},
				}, nil
			},
		}
		s := mustOpenServer(t, dwc)

		resp, err := http.Get(s.URL() + "/studies/1.2.3/metadata")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if want := testDicomWebURL + "/studies?StudyInstanceUID=1.2.3&includefield=all"; gotURL != want {
			t.Errorf("QidoRs URL = %q, want %q", gotURL, want)
		}

		var metadata map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
			t.Fatalf("response decode error = %v", err)
		}
		if _, ok := metadata["0020000D"]; !ok {
			t.Errorf("metadata = %v, missing StudyInstanceUID element", metadata)
		}
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		dwc := &mockDicomWebClient{
			QidoRsFn: func(ctx context.Context, qidoURL string, opts ...dicomweb.RequestOption) ([]map[string]interface{}, error) {
				return []map[string]interface{}{}, nil
			},
		}
		s := mustOpenServer(t, dwc)

		resp, err := http.Get(s.URL() + "/studies/1.2.3/metadata")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}

		var errResp dicomwebhttp.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			t.Fatalf("response decode error = %v", err)
		}
		if errResp.Error == "" {
			t.Error("error response carries no message")
		}
	})
}

func TestServer_QueryStudies(t *testing.T) {
	var gotURL string
	dwc := &mockDicomWebClient{
		QidoRsFn: func(ctx context.Context, qidoURL string, opts ...dicomweb.RequestOption) ([]map[string]interface{}, error) {
			gotURL = qidoURL
			return []map[string]interface{}{}, nil
		},
	}
	s := mustOpenServer(t, dwc)

	resp, err := http.Get(s.URL() + "/studies?PatientID=42&limit=10")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if want := testDicomWebURL + "/studies?PatientID=42&limit=10"; gotURL != want {
		t.Errorf("QidoRs URL = %q, want %q", gotURL, want)
	}
}

func TestServer_StoreInstance(t *testing.T) {
	t.Run("stores the posted instance", func(t *testing.T) {
		payload := []byte("0123456789")

		var gotURL string
		var gotInstances [][]byte
		dwc := &mockDicomWebClient{
			StowRsFn: func(ctx context.Context, stowURL string, instances [][]byte, opts ...dicomweb.RequestOption) error {
				gotURL = stowURL
				gotInstances = instances
				return nil
			},
		}
		s := mustOpenServer(t, dwc)

		resp, err := http.Post(s.URL()+"/studies", "application/dicom", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := ioutil.ReadAll(resp.Body)
			t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, http.StatusOK, body)
		}
		if want := testDicomWebURL + "/studies"; gotURL != want {
			t.Errorf("StowRs URL = %q, want %q", gotURL, want)
		}
		if len(gotInstances) != 1 || !bytes.Equal(gotInstances[0], payload) {
			t.Errorf("StowRs instances = %v, want one instance %v", gotInstances, payload)
		}
	})

	t.Run("rejects other content types", func(t *testing.T) {
		dwc := &mockDicomWebClient{}
		s := mustOpenServer(t, dwc)

		resp, err := http.Post(s.URL()+"/studies", "application/json", bytes.NewReader([]byte("{}")))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})
}

func TestServer_DeleteStudy(t *testing.T) {
	var gotURL string
	dwc := &mockDicomWebClient{
		DeleteRsFn: func(ctx context.Context, deleteURL string, opts ...dicomweb.RequestOption) error {
			gotURL = deleteURL
			return nil
		},
	}
	s := mustOpenServer(t, dwc)

	req, err := http.NewRequest(http.MethodDelete, s.URL()+"/studies/1.2.3", nil)
	if err != nil {
		t.Fatalf("NewRequest error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if want := testDicomWebURL + "/studies/1.2.3"; gotURL != want {
		t.Errorf("DeleteRs URL = %q, want %q", gotURL, want)
	}
}
