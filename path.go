package dicomweb

import "strings"

// CloudHealthcareAPIURL is the fixed root of the Cloud Healthcare API that
// all DICOMweb paths are joined onto.
const CloudHealthcareAPIURL = "https://healthcare.googleapis.com/v1"

// DicomPathJoin joins the given path elements with single slashes, trimming
// any slashes the elements already carry at the seams.
func DicomPathJoin(elems ...string) string {
	trimmed := make([]string, 0, len(elems))
	for i, elem := range elems {
		if i > 0 {
			elem = strings.TrimPrefix(elem, "/")
		}
		if i < len(elems)-1 {
			elem = strings.TrimSuffix(elem, "/")
		}
		trimmed = append(trimmed, elem)
	}
	return strings.Join(trimmed, "/")
}

// PathStrToURL constructs the full URL for a DICOMweb path or query string in
// the form of 'projects/<project_id>/.../dicomStores/...'.
func PathStrToURL(pathStr string) string {
	return DicomPathJoin(CloudHealthcareAPIURL, pathStr)
}
