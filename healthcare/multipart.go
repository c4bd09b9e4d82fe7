package healthcare

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

// requestPart is a single segment of a multipart/related request body.
type requestPart struct {
	header textproto.MIMEHeader
	data   []byte
}

// responsePart is one decoded segment of a multipart response body.
type responsePart struct {
	header  textproto.MIMEHeader
	content []byte
}

// dicomPart wraps one serialized DICOM instance for the raw STOW-RS variant.
func dicomPart(data []byte) requestPart {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "application/dicom")
	return requestPart{header: header, data: data}
}

// bulkDataPart builds the part carrying one bulkdata entry, named by its URI
// through the Content-Location header. The MIME type must split into exactly
// two "/"-separated segments.
func bulkDataPart(b dicomweb.BulkData) (requestPart, error) {
	if len(strings.Split(b.ContentType, "/")) != 2 {
		return requestPart{}, dicomweb.Errorf(dicomweb.EINVALID, `MIME type must be in form "type/sub-type"`)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", b.ContentType)
	header.Set("Content-Location", b.URI)
	return requestPart{header: header, data: b.Data}, nil
}

// encodeMultipartRelated assembles the given parts into a multipart/related
// body under a fresh random boundary. It returns the value of the
// Content-Type header declaring the body alongside the body itself. The
// caller's part payloads are written out as-is, never mutated.
func encodeMultipartRelated(parts []requestPart, applicationType string) (contentType string, body []byte, err error) {
	// Use a random boundary string.
	boundary := uuid.New().String()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return "", nil, fmt.Errorf("SetBoundary: %v", err)
	}
	for _, part := range parts {
		pw, err := w.CreatePart(part.header)
		if err != nil {
			return "", nil, fmt.Errorf("CreatePart: %v", err)
		}
		if _, err := pw.Write(part.data); err != nil {
			return "", nil, fmt.Errorf("part write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("multipart close: %v", err)
	}

	contentType = fmt.Sprintf(`multipart/related; type="application/%s"; boundary=%q`, applicationType, boundary)
	return contentType, buf.Bytes(), nil
}

// decodeMultipartRelated splits a multipart response body into its ordered
// parts using the boundary declared by the response's Content-Type header.
func decodeMultipartRelated(content []byte, contentType string) ([]responsePart, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("ParseMediaType: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("expected a multipart media type, got %q", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("media type %q carries no boundary", contentType)
	}

	r := multipart.NewReader(bytes.NewReader(content), boundary)
	var parts []responsePart
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("NextPart: %v", err)
		}
		data, err := ioutil.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("could not read part: %v", err)
		}
		parts = append(parts, responsePart{header: p.Header, content: data})
	}
	return parts, nil
}
