package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/response"
)

const APIKeyHeader = "X-API-Key"

// KeyVerifier checks a scanner API key.
type KeyVerifier interface {
	VerifyScannerKey(key string) error
}

// ScannerKeyRequired rejects ingestion requests without a valid X-API-Key. The
// rejection uses the flat scan result shape scanners parse.
func ScannerKeyRequired(verifier KeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.VerifyScannerKey(r.Header.Get(APIKeyHeader)); err != nil {
				response.JSON(w, http.StatusUnauthorized, attendance.ScanResult{
					Status:  attendance.ScanStatusError,
					Message: "Invalid API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
