package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/export"
)

const (
	// ExportFormatCSV renders a UTF-8 BOM prefixed CSV download.
	ExportFormatCSV = "csv"
	// ExportFormatPDF renders a tabular PDF download.
	ExportFormatPDF = "pdf"

	userColumnHeader     = "User / Assignment"
	subtotalColumnHeader = "부분합"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the evaluation sheet into downloadable files.
type ExportService struct {
	evaluation *EvaluationService
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(evaluation *EvaluationService, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		evaluation: evaluation,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluation renders the current evaluation sheet in the requested format.
func (s *ExportService) Evaluation(ctx context.Context, format string) (*ExportResult, error) {
	sheet, err := s.evaluation.Sheet(ctx)
	if err != nil {
		return nil, err
	}

	dataset := buildEvaluationDataset(sheet)
	datePart := s.now().Format("2006-01-02")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("과제평가_%s.csv", datePart),
			ContentType: "text/csv; charset=utf-8",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "과제평가 "+datePart)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("과제평가_%s.pdf", datePart),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// buildEvaluationDataset flattens the sheet into name, subtotal, then one
// column per assignment holding the cell's numeric score. Column headers come
// from the assignment's ordinal position ("N일차과제"), not its title.
func buildEvaluationDataset(sheet *models.EvaluationSheet) export.Dataset {
	headers := make([]string, 0, len(sheet.Assignments)+2)
	headers = append(headers, userColumnHeader, subtotalColumnHeader)
	for i := range sheet.Assignments {
		headers = append(headers, fmt.Sprintf("%d일차과제", i+1))
	}

	rows := make([]map[string]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		record := map[string]string{
			userColumnHeader:     row.UserName,
			subtotalColumnHeader: strconv.Itoa(row.Subtotal),
		}
		for i, cell := range row.Cells {
			record[headers[i+2]] = strconv.Itoa(cell.Score)
		}
		rows = append(rows, record)
	}

	return export.Dataset{Headers: headers, Rows: rows}
}
