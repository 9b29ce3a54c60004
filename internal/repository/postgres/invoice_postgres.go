package postgres

import (
	"context"
	"database/sql"

	"invoiceapi/internal/model"
	"invoiceapi/internal/repository"
)

// InvoicePostgres is a PostgreSQL implementation of repository.InvoiceRepository.
type InvoicePostgres struct {
	db *sql.DB
}

// NewInvoicePostgres creates a new InvoicePostgres repository.
func NewInvoicePostgres(db *sql.DB) *InvoicePostgres {
	return &InvoicePostgres{db: db}
}

var _ repository.InvoiceRepository = (*InvoicePostgres)(nil)

// Create inserts a new invoice row and returns the stored record.
// OCR fields are nullable: a nil pointer is stored as NULL.
func (r *InvoicePostgres) Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	const q = `
		INSERT INTO invoices (id, user_id, filename, original_name, storage_path, file_type, upload_date,
		                      ocr_invoice_no, ocr_invoice_date, ocr_invoice_type, ocr_amount, ocr_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, user_id, filename, original_name, storage_path, file_type, upload_date,
		          ocr_invoice_no, ocr_invoice_date, ocr_invoice_type, ocr_amount, ocr_category
	`
	row := r.db.QueryRowContext(ctx, q,
		inv.ID,
		inv.UserID,
		inv.Filename,
		inv.OriginalName,
		inv.StoragePath,
		inv.FileType,
		inv.UploadDate,
		inv.OCRData.InvoiceNo,
		inv.OCRData.InvoiceDate,
		inv.OCRData.InvoiceType,
		inv.OCRData.Amount,
		inv.OCRData.Category,
	)
	var out model.Invoice
	if err := scanInvoice(row.Scan, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByOwner returns the owner's invoices, most recent first.
// The WHERE clause is the only visibility filter and must never widen.
func (r *InvoicePostgres) ListByOwner(ctx context.Context, userID string) ([]model.Invoice, error) {
	const q = `
		SELECT id, user_id, filename, original_name, storage_path, file_type, upload_date,
		       ocr_invoice_no, ocr_invoice_date, ocr_invoice_type, ocr_amount, ocr_category
		FROM invoices
		WHERE user_id = $1
		ORDER BY upload_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Invoice, 0)
	for rows.Next() {
		var inv model.Invoice
		if err := scanInvoice(rows.Scan, &inv); err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// scanInvoice reads one invoice row; NULL OCR columns stay nil pointers.
func scanInvoice(scan func(...any) error, inv *model.Invoice) error {
	return scan(
		&inv.ID,
		&inv.UserID,
		&inv.Filename,
		&inv.OriginalName,
		&inv.StoragePath,
		&inv.FileType,
		&inv.UploadDate,
		&inv.OCRData.InvoiceNo,
		&inv.OCRData.InvoiceDate,
		&inv.OCRData.InvoiceType,
		&inv.OCRData.Amount,
		&inv.OCRData.Category,
	)
}
