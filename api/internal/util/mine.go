package util

import (
	"net/http"
	"strings"
)

// IsPDF checks the %PDF- magic bytes.
func IsPDF(b []byte) bool {
	return len(b) >= 5 && b[0] == '%' && b[1] == 'P' && b[2] == 'D' && b[3] == 'F' && b[4] == '-'
}

// PickMIME returns the explicit MIME type, or sniffs it from data.
func PickMIME(explicit string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" && exp != "application/octet-stream" {
		return exp
	}
	if IsPDF(data) {
		return "application/pdf"
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}
