package model

import "time"

// PDFContentType is the media type every stored document is served with.
const PDFContentType = "application/pdf"

const (
	DefaultOriginalName = "document.pdf"
	DefaultBuyerName    = "Unknown"
)

// Metadata is the sidecar record stored next to each PDF blob.
// It carries no persistence tags so it can move between the HTTP, service and storage layers.
type Metadata struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	BuyerName    string    `json:"buyerName"`
	UploadDate   time.Time `json:"uploadDate"`
	FileSize     int64     `json:"fileSize"`
	ContentType  string    `json:"contentType"`
}
