package constants

// DocStatus is the canonical processing status for rows in documents.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	StatusUploaded   DocStatus = "uploaded"   // file registered, nothing derived yet
	StatusClassified DocStatus = "classified" // classification attached
	StatusExtracted  DocStatus = "extracted"  // normalized records stored
	StatusCompleted  DocStatus = "completed"  // terminal success
	StatusFailed     DocStatus = "failed"     // terminal failure
)

// Terminal reports whether no further transition is allowed from s.
func (s DocStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
