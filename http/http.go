package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

// Generic HTTP metrics.
var (
	errorCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dicomweb_http_error_count",
		Help: "Total number of errors by error code",
	}, []string{"code"})
)

// Error prints & optionally logs an error message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	// Extract error code & message.
	code, message := dicomweb.ErrorCode(err), dicomweb.ErrorMessage(err)

	// Track metrics by code.
	errorCount.WithLabelValues(code).Inc()

	// Log & report internal errors.
	if code == dicomweb.EINTERNAL {
		dicomweb.ReportError(r.Context(), err, r)
		LogError(r, err)
	}

	w.Header().Set("Content-type", "application/json")
	w.WriteHeader(ErrorStatusCode(code))
	if err := json.NewEncoder(w).Encode(&ErrorResponse{Error: message}); err != nil {
		LogError(r, err)
	}
}

// ErrorResponse represents a JSON structure for error output.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LogError logs an error with the HTTP route information.
func LogError(r *http.Request, err error) {
	log.Printf("[http] error: %s %s: %s", r.Method, r.URL.Path, err)
}

// lookup of application error codes to HTTP status codes.
var codes = map[string]int{
	dicomweb.ECONFLICT:       http.StatusConflict,
	dicomweb.EINVALID:        http.StatusBadRequest,
	dicomweb.ENOTFOUND:       http.StatusNotFound,
	dicomweb.ENOTIMPLEMENTED: http.StatusNotImplemented,
	dicomweb.EUNAUTHORIZED:   http.StatusUnauthorized,
	dicomweb.EINTERNAL:       http.StatusInternalServerError,
}

// ErrorStatusCode returns the associated HTTP status code for a dicomweb error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// FromErrorStatusCode returns the associated dicomweb code for an HTTP status code.
func FromErrorStatusCode(code int) string {
	for k, v := range codes {
		if v == code {
			return k
		}
	}
	return dicomweb.EINTERNAL
}

// WriteJSONResponse writes the content supplied via the `source` parameter to
// the supplied http ResponseWriter. The response is returned with the indicated
// status.
func WriteJSONResponse(w http.ResponseWriter, source interface{}, status int) {
	content, err := json.Marshal(source)
	if err != nil {
		msg := fmt.Sprintf("error when marshalling %#v to JSON bytes: %#v", source, err)
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(content); err != nil {
		log.Printf("[http] error: could not write JSON response: %v", err)
	}
}
