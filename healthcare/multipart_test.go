package healthcare

import (
	"bytes"
	"mime"
	"strings"
	"testing"

	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x44, 0x49, 0x43, 0x4d, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05}

	contentType, body, err := encodeMultipartRelated([]requestPart{dicomPart(payload)}, "dicom")
	if err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}

	parts, err := decodeMultipartRelated(body, contentType)
	if err != nil {
		t.Fatalf("decodeMultipartRelated() error = %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("part count = %d, want 1", len(parts))
	}
	if got := parts[0].header.Get("Content-Type"); got != "application/dicom" {
		t.Errorf("part Content-Type = %q, want %q", got, "application/dicom")
	}
	if !bytes.Equal(parts[0].content, payload) {
		t.Errorf("part content = %v, want %v", parts[0].content, payload)
	}
}

func TestEncodeMultipartRelated_BodyShape(t *testing.T) {
	payload := []byte("0123456789")

	contentType, body, err := encodeMultipartRelated([]requestPart{dicomPart(payload)}, "dicom")
	if err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("ParseMediaType() error = %v", err)
	}
	if mediaType != "multipart/related" {
		t.Errorf("media type = %q, want %q", mediaType, "multipart/related")
	}
	if got := params["type"]; got != "application/dicom" {
		t.Errorf("type param = %q, want %q", got, "application/dicom")
	}

	boundary := params["boundary"]
	if boundary == "" {
		t.Fatal("content type carries no boundary")
	}
	if !bytes.Contains(body, []byte("--"+boundary+"\r\n")) {
		t.Error("body is missing the part delimiter")
	}
	if !bytes.HasSuffix(bytes.TrimRight(body, "\r\n"), []byte("--"+boundary+"--")) {
		t.Error("body is missing the closing delimiter")
	}
	if !bytes.Contains(body, payload) {
		t.Error("body does not carry the part payload")
	}
}

func TestEncodeMultipartRelated_FreshBoundaryPerCall(t *testing.T) {
	first, _, err := encodeMultipartRelated([]requestPart{dicomPart([]byte("a"))}, "dicom")
	if err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}
	second, _, err := encodeMultipartRelated([]requestPart{dicomPart([]byte("a"))}, "dicom")
	if err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}
	if first == second {
		t.Errorf("boundary reused across calls: %q", first)
	}
}

func TestBulkDataPart(t *testing.T) {
	tests := []struct {
		name        string
		bulkdata    dicomweb.BulkData
		wantErrCode string
	}{
		{
			name: "valid MIME type",
			bulkdata: dicomweb.BulkData{
				URI:         "bulkdata/pixeldata",
				ContentType: "image/jpeg",
				Data:        []byte{0xff, 0xd8},
			},
		},
		{
			name: "MIME type without a subtype",
			bulkdata: dicomweb.BulkData{
				URI:         "bulkdata/pixeldata",
				ContentType: "image",
			},
			wantErrCode: dicomweb.EINVALID,
		},
		{
			name: "MIME type with too many segments",
			bulkdata: dicomweb.BulkData{
				URI:         "bulkdata/pixeldata",
				ContentType: "image/jpeg/extra",
			},
			wantErrCode: dicomweb.EINVALID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, err := bulkDataPart(tt.bulkdata)
			if tt.wantErrCode != "" {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				if code := dicomweb.ErrorCode(err); code != tt.wantErrCode {
					t.Errorf("ErrorCode() = %q, want %q", code, tt.wantErrCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("bulkDataPart() error = %v", err)
			}
			if got := part.header.Get("Content-Location"); got != tt.bulkdata.URI {
				t.Errorf("Content-Location = %q, want %q", got, tt.bulkdata.URI)
			}
			if got := part.header.Get("Content-Type"); got != tt.bulkdata.ContentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.bulkdata.ContentType)
			}
			if !bytes.Equal(part.data, tt.bulkdata.Data) {
				t.Errorf("data = %v, want %v", part.data, tt.bulkdata.Data)
			}
		})
	}
}

func TestDecodeMultipartRelated_MultipleParts(t *testing.T) {
	parts := []requestPart{dicomPart([]byte("first")), dicomPart([]byte("second"))}
	contentType, body, err := encodeMultipartRelated(parts, "dicom")
	if err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}

	decoded, err := decodeMultipartRelated(body, contentType)
	if err != nil {
		t.Fatalf("decodeMultipartRelated() error = %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("part count = %d, want 2", len(decoded))
	}
	if string(decoded[0].content) != "first" || string(decoded[1].content) != "second" {
		t.Errorf("part order not preserved: %q, %q", decoded[0].content, decoded[1].content)
	}
}

func TestDecodeMultipartRelated_BadContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{name: "not multipart", contentType: "application/json"},
		{name: "missing boundary", contentType: "multipart/related"},
		{name: "unparseable", contentType: "multipart/related; boundary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeMultipartRelated([]byte("ignored"), tt.contentType); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestEncodeMultipartRelated_DoesNotMutateCallerBuffers(t *testing.T) {
	payload := []byte("immutable payload")
	original := string(payload)

	if _, _, err := encodeMultipartRelated([]requestPart{dicomPart(payload)}, "dicom"); err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}
	if string(payload) != original {
		t.Errorf("caller buffer mutated: %q", payload)
	}
}

func TestEncodeMultipartRelated_ContentTypeDeclaresJSONVariant(t *testing.T) {
	contentType, _, err := encodeMultipartRelated(nil, "dicom+json")
	if err != nil {
		t.Fatalf("encodeMultipartRelated() error = %v", err)
	}
	if !strings.Contains(contentType, `type="application/dicom+json"`) {
		t.Errorf("content type = %q, missing JSON application type", contentType)
	}
}
