package model

import "time"

// OCRData holds the fields the recognition tool extracts from a document.
// Every field is independently optional: the tool emits only what it managed
// to read, and a missing field stays nil rather than becoming an error.
// JSON keys match the tool's output contract.
type OCRData struct {
	InvoiceNo   *string `json:"faturaNo"`
	InvoiceDate *string `json:"faturaTarihi"`
	InvoiceType *string `json:"faturaTipi"`
	Amount      *string `json:"tutar"`
	Category    *string `json:"kategori"`
}

// Invoice represents one successfully processed upload.
// UserID is required and immutable; records are never mutated after creation.
type Invoice struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	StoragePath  string    `json:"path"`
	FileType     string    `json:"file_type"`
	UploadDate   time.Time `json:"upload_date"`
	OCRData      OCRData   `json:"ocr_data"`
}
