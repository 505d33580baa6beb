package domain

// Document describes one uploaded file. Storage and scanning live outside the
// engine; only the metadata travels through it.
type Document struct {
	Type        string `json:"type"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
	Translated  bool   `json:"translated,omitempty"`
	Apostilled  bool   `json:"apostilled,omitempty"`
}

// Rejection is a normal negative outcome from a collaborator, such as a
// declined card. System faults are returned as errors instead.
type Rejection struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
