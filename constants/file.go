package constants

import "strings"

// Source formats for the extractor.
const (
	CSV  = "CSV"
	XLSX = "XLSX"
	XLS  = "XLS"
	PDF  = "PDF"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"csv":  {},
	"xlsx": {},
	"xls":  {},
	"pdf":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt reports whether a normalized extension is ingestible.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat maps a normalized extension to a source format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "csv":
		return CSV
	case "xlsx":
		return XLSX
	case "xls":
		return XLS
	case "pdf":
		return PDF
	}
	return ""
}

// MapMIMEToFormat maps a declared MIME type to a source format.
// Returns "" when the MIME type is unknown; callers then fall back to the
// file extension.
func MapMIMEToFormat(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "text/csv":
		return CSV
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return XLSX
	case "application/vnd.ms-excel":
		return XLS
	case "application/pdf":
		return PDF
	}
	return ""
}
