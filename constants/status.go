package constants

// ExtractionStatus is the canonical status for rows in extraction_record.
type ExtractionStatus string

// Stable values (store these exact strings in DB).
const (
	StatusSuccess        ExtractionStatus = "SUCCESS"         // vision call returned usable text
	StatusPolicyRefused  ExtractionStatus = "POLICY_REFUSED"  // service declined on content grounds
	StatusTransportError ExtractionStatus = "TRANSPORT_ERROR" // network/HTTP failure or timeout
	StatusEmptyResult    ExtractionStatus = "EMPTY_RESULT"    // structurally valid response, no usable text
)

// Known reports whether s is one of the stable status values.
func Known(s ExtractionStatus) bool {
	switch s {
	case StatusSuccess, StatusPolicyRefused, StatusTransportError, StatusEmptyResult:
		return true
	}
	return false
}
