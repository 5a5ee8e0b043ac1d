package dto

import "time"

// Document is one entry of application_documents.
type Document struct {
	Kind        string    `json:"kind"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type UploadResponse struct {
	Uploaded  []Document `json:"uploaded"`
	Documents []Document `json:"documents"`
}
