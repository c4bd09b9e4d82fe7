package http

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

// handleQueryStudies handles the "GET /studies" route. The request's query
// string is forwarded to the QIDO-RS studies endpoint as-is.
func (s *Server) handleQueryStudies(w http.ResponseWriter, r *http.Request) {
	qidoURL := dicomweb.DicomPathJoin(s.DicomWebURL, "studies")
	if r.URL.RawQuery != "" {
		qidoURL += "?" + r.URL.RawQuery
	}

	resp, err := s.DicomWebClient.QidoRs(r.Context(), qidoURL)
	if err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, resp, http.StatusOK)
}

// handleGetStudyMetadata handles the "GET /studies/{studyUID}/metadata" route.
func (s *Server) handleGetStudyMetadata(w http.ResponseWriter, r *http.Request) {
	studyUID := mux.Vars(r)["studyUID"]

	metadata, err := dicomweb.GetStudyMetadata(r.Context(), s.DicomWebClient, s.DicomWebURL, studyUID)
	if err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, metadata, http.StatusOK)
}

// handleGetInstancesMetadata handles the "GET /studies/{studyUID}/instances"
// route. Repeated "includefield" parameters select the tags to fetch and
// "limit" bounds the number of instances returned.
func (s *Server) handleGetInstancesMetadata(w http.ResponseWriter, r *http.Request) {
	studyUID := mux.Vars(r)["studyUID"]

	var tagList []dicomweb.Tag
	for _, field := range r.URL.Query()["includefield"] {
		tagList = append(tagList, dicomweb.Tag{Number: field})
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, r, dicomweb.Errorf(dicomweb.EINVALID, "invalid limit %q", v))
			return
		}
		limit = n
	}

	resp, err := dicomweb.GetInstancesMetadata(r.Context(), s.DicomWebClient, s.DicomWebURL, studyUID, tagList, limit)
	if err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, resp, http.StatusOK)
}

// handleStoreInstance handles the "POST /studies" route. The request body is
// a single serialized DICOM instance.
func (s *Server) handleStoreInstance(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "application/dicom" {
		Error(w, r, dicomweb.Errorf(dicomweb.EINVALID, "unsupported content type %q", ct))
		return
	}

	instance, err := ioutil.ReadAll(r.Body)
	if err != nil {
		Error(w, r, dicomweb.Errorf(dicomweb.EINVALID, "request body could not be read"))
		return
	}
	if len(instance) == 0 {
		Error(w, r, dicomweb.Errorf(dicomweb.EINVALID, "empty request body"))
		return
	}

	stowURL := dicomweb.DicomPathJoin(s.DicomWebURL, "studies")
	if err := s.DicomWebClient.StowRs(r.Context(), stowURL, [][]byte{instance}); err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, map[string]string{"status": "stored"}, http.StatusOK)
}

// handleDeleteStudy handles the "DELETE /studies/{studyUID}" route.
func (s *Server) handleDeleteStudy(w http.ResponseWriter, r *http.Request) {
	studyUID := mux.Vars(r)["studyUID"]

	deleteURL := dicomweb.DicomPathJoin(s.DicomWebURL, "studies", studyUID)
	if err := s.DicomWebClient.DeleteRs(r.Context(), deleteURL); err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

// handleListDicomStores handles the "GET /stores" route.
func (s *Server) handleListDicomStores(w http.ResponseWriter, r *http.Request) {
	stores, err := s.DicomStoreService.GetDicomStoreList(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, stores, http.StatusOK)
}

// handleCreateDicomStore handles the "POST /stores/{storeID}" route.
func (s *Server) handleCreateDicomStore(w http.ResponseWriter, r *http.Request) {
	storeID := mux.Vars(r)["storeID"]

	store, err := s.DicomStoreService.CreateDicomStore(r.Context(), storeID)
	if err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, store, http.StatusCreated)
}

// handleDeleteDicomStore handles the "DELETE /stores/{storeID}" route.
func (s *Server) handleDeleteDicomStore(w http.ResponseWriter, r *http.Request) {
	storeID := mux.Vars(r)["storeID"]

	if err := s.DicomStoreService.DeleteDicomStore(r.Context(), storeID); err != nil {
		Error(w, r, err)
		return
	}

	WriteJSONResponse(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

// ExportRequest identifies the instance to retrieve and the bucket object to
// export it to.
type ExportRequest struct {
	StudyUID    string `json:"studyUID"`
	SeriesUID   string `json:"seriesUID"`
	InstanceUID string `json:"instanceUID"`
	Object      string `json:"object"`
}

// ExportResponse carries the signed download URL of the exported object.
type ExportResponse struct {
	*dicomweb.SignedBucketURL
	Object string `json:"object"`
}

// handleExportInstance handles the "POST /export" route: retrieve one
// instance via WADO-RS, write it to the export bucket and hand back a signed
// download URL.
func (s *Server) handleExportInstance(w http.ResponseWriter, r *http.Request) {
	req := &ExportRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		Error(w, r, dicomweb.Errorf(dicomweb.EINVALID, "invalid request"))
		return
	}
	if req.StudyUID == "" || req.SeriesUID == "" || req.InstanceUID == "" || req.Object == "" {
		Error(w, r, dicomweb.Errorf(dicomweb.EINVALID, "studyUID, seriesUID, instanceUID and object are required"))
		return
	}

	wadoURL := dicomweb.DicomPathJoin(s.DicomWebURL, "studies", req.StudyUID, "series", req.SeriesUID, "instances", req.InstanceUID)
	instance, err := s.DicomWebClient.WadoRs(r.Context(), wadoURL, dicomweb.WithAccept(`multipart/related; type="application/dicom"`))
	if err != nil {
		Error(w, r, err)
		return
	}

	bucket := &dicomweb.CloudStorageBucket{Name: s.ExportBucket}
	object := &dicomweb.CloudStorageObject{Name: req.Object}
	if err := s.CloudStorageService.UploadObject(r.Context(), bucket, object, instance); err != nil {
		Error(w, r, fmt.Errorf("UploadObject: %v", err))
		return
	}

	signedURL, err := s.CloudStorageService.GeneratePresignedBucketURL(bucket, object, "GET")
	if err != nil {
		Error(w, r, dicomweb.Errorf(dicomweb.EINTERNAL, "signed URL could not be generated"))
		return
	}

	WriteJSONResponse(w, &ExportResponse{SignedBucketURL: signedURL, Object: req.Object}, http.StatusOK)
}
