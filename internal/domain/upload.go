package domain

import "time"

// FileMetadata describes an uploaded file as received at the transport layer.
// The binary content itself is never inspected in the dispatch path; content
// analysis is an external collaborator's job.
type FileMetadata struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

// UploadRecord is the persisted trace of one upload against an engine.
type UploadRecord struct {
	ID           string            `json:"id"`
	Engine       string            `json:"engine"`
	Filename     string            `json:"filename"`
	OriginalName string            `json:"originalName"`
	MimeType     string            `json:"mimetype"`
	Size         int64             `json:"size"`
	Path         string            `json:"path"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Status       string            `json:"status"`
	UploadedAt   time.Time         `json:"uploadedAt"`
}
