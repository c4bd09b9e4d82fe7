package dicomweb

import (
	"context"
	"fmt"
	"strings"
)

// GetStudyMetadata fetches the study-level tags of a single study and returns
// its metadata mapping. dicomwebURL is the URL of the DICOMweb API for the
// DICOM store containing the study, i.e.
// https://.../dicomStores/<dicom_store_name>/dicomWeb.
//
// A query that matches no study returns an ENOTFOUND error rather than an
// empty result.
func GetStudyMetadata(ctx context.Context, dwc DicomWebClient, dicomwebURL, studyUID string) (map[string]interface{}, error) {
	qidoStudyURL := fmt.Sprintf("%s/studies?StudyInstanceUID=%s&includefield=all", dicomwebURL, studyUID)
	resp, err := dwc.QidoRs(ctx, qidoStudyURL)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, Errorf(ENOTFOUND, "study %q not found", studyUID)
	}
	return resp[0], nil
}

// GetInstancesMetadata fetches the specified tags for all instances in the
// given study, up to limit instances.
func GetInstancesMetadata(ctx context.Context, dwc DicomWebClient, dicomwebURL, studyUID string, tagList []Tag, limit int) ([]map[string]interface{}, error) {
	qidoStudyURL := DicomPathJoin(dicomwebURL, "studies", studyUID, "instances")

	fields := make([]string, 0, len(tagList))
	for _, tag := range tagList {
		fields = append(fields, "includefield="+tag.Number)
	}
	suffix := strings.Join(fields, "&")
	if suffix != "" {
		suffix += "&"
	}
	suffix += fmt.Sprintf("limit=%d", limit)

	return dwc.QidoRs(ctx, fmt.Sprintf("%s/?%s", qidoStudyURL, suffix))
}
