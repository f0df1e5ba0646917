package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/utilities"
)

type ReportService interface {
	// ProgressReport renders the identity's listening history as a PDF.
	ProgressReport(ctx context.Context, identity model.Identity) ([]byte, error)
}

type reportService struct {
	bookRepo repository.BookRepository
	progress ProgressService
}

func NewReportService(bookRepo repository.BookRepository, progress ProgressService) ReportService {
	return &reportService{bookRepo: bookRepo, progress: progress}
}

func (s *reportService) ProgressReport(ctx context.Context, identity model.Identity) ([]byte, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity required", ErrUnauthorized)
	}

	summaries, err := s.progress.Classify(ctx, identity, nil)
	if err != nil {
		return nil, err
	}
	bookIDs := make([]uint, 0, len(summaries))
	for bid := range summaries {
		bookIDs = append(bookIDs, bid)
	}
	books, err := s.bookRepo.ListByIDs(ctx, bookIDs, repository.BookFilter{})
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 16)
	pdf.AddPage()
	pdf.Cell(40, 10, "Listening Progress Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 8, fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")))
	pdf.Ln(12)

	if len(books) == 0 {
		pdf.SetFont("Arial", "I", 12)
		pdf.Cell(40, 10, "No listening history yet.")
	}

	for _, book := range books {
		sum := summaries[book.ID]

		pdf.SetFont("Arial", "B", 13)
		pdf.MultiCell(0, 8, book.Title, "", "L", false)
		pdf.SetFont("Arial", "", 11)
		state := "In progress"
		if sum.IsCompleted() {
			state = "Completed"
		}
		pdf.Cell(40, 7, fmt.Sprintf("%s: %.2f%% (%d of %d chapters done)",
			state, sum.Percent, sum.CompletedChapters, sum.TotalChapters))
		pdf.Ln(9)

		detail, err := s.progress.GetBookProgress(ctx, identity, book.ID)
		if err != nil {
			return nil, err
		}
		pdf.SetFont("Arial", "", 9)
		for _, ch := range detail.PerChapter {
			if ch.PlayedSeconds == 0 && !ch.Completed {
				continue
			}
			pdf.Cell(40, 6, fmt.Sprintf("  %s - %s of %s (%.2f%%)",
				ch.Title,
				utilities.FormatSeconds(ch.PlayedSeconds),
				utilities.FormatSeconds(ch.DurationSeconds),
				ch.Percent))
			pdf.Ln(6)
		}
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
