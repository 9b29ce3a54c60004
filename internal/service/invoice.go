package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"time"

	"github.com/google/uuid"

	"invoiceapi/internal/model"
	"invoiceapi/internal/repository"
	"invoiceapi/internal/storage"
	"invoiceapi/internal/upload"
)

var ErrOwnerRequired = errors.New("owner is required")

// Intake accepts a raw upload and persists it to the content directory.
// Implemented by upload.Validator.
type Intake interface {
	Accept(fh *multipart.FileHeader) (*upload.Artifact, error)
}

// Extractor runs the recognition tool on a stored artifact.
// Implemented by ocr.Runner.
type Extractor interface {
	Extract(ctx context.Context, path string) (*model.OCRData, error)
}

// InvoiceService defines the use cases of the ingestion pipeline.
type InvoiceService interface {
	// Upload runs one file through validate → store → extract → persist.
	// Every failure short-circuits the remaining stages; a record exists
	// only after extraction produced a parseable result. On extraction
	// failure the stored artifact is retained on disk for diagnostics.
	Upload(ctx context.Context, userID string, fh *multipart.FileHeader) (*model.Invoice, error)

	// ListByOwner returns the caller's records, most recent first.
	ListByOwner(ctx context.Context, userID string) ([]model.Invoice, error)
}

// invoiceService is a concrete implementation of InvoiceService.
type invoiceService struct {
	intake    Intake
	extractor Extractor
	repo      repository.InvoiceRepository
	archive   storage.Storage // optional off-host artifact copy; nil disables
}

// NewInvoiceService constructs a new InvoiceService. archive may be nil.
func NewInvoiceService(intake Intake, extractor Extractor, repo repository.InvoiceRepository, archive storage.Storage) InvoiceService {
	return &invoiceService{intake: intake, extractor: extractor, repo: repo, archive: archive}
}

func (s *invoiceService) Upload(ctx context.Context, userID string, fh *multipart.FileHeader) (*model.Invoice, error) {
	if userID == "" {
		return nil, ErrOwnerRequired
	}

	art, err := s.intake.Accept(fh)
	if err != nil {
		return nil, err
	}

	fields, err := s.extractor.Extract(ctx, art.Path)
	if err != nil {
		// The artifact stays on disk as evidence of the failed run.
		return nil, err
	}

	inv := &model.Invoice{
		ID:           uuid.New().String(),
		UserID:       userID,
		Filename:     art.StoredName,
		OriginalName: art.OriginalName,
		StoragePath:  art.Path,
		FileType:     art.FileType,
		UploadDate:   time.Now().UTC(),
		OCRData:      *fields,
	}
	stored, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if s.archive != nil {
		s.mirror(ctx, art)
	}
	return stored, nil
}

func (s *invoiceService) ListByOwner(ctx context.Context, userID string) ([]model.Invoice, error) {
	if userID == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.ListByOwner(ctx, userID)
}

// mirror copies a persisted artifact to the object storage archive.
// Best-effort: a failure is logged and never fails the request.
func (s *invoiceService) mirror(ctx context.Context, art *upload.Artifact) {
	f, err := os.Open(art.Path)
	if err != nil {
		log.Printf("archive mirror: open %s: %v", art.Path, err)
		return
	}
	defer f.Close()

	key := path.Join("invoices", art.StoredName)
	_, err = s.archive.Put(ctx, key, f, storage.PutObjectOptions{
		Size:        art.Size,
		ContentType: mime.TypeByExtension(art.FileType),
		Metadata: map[string]string{
			"original-filename": art.OriginalName,
		},
	})
	if err != nil {
		log.Printf("archive mirror: put %s: %v", key, err)
	}
}
