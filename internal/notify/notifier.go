// Package notify delivers compiled inspection reports to recipients.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/safesight/safesight/internal/domain"
	"github.com/safesight/safesight/internal/email"
	"github.com/safesight/safesight/internal/metrics"
	"github.com/safesight/safesight/internal/report"
	"github.com/safesight/safesight/internal/storage"
)

// Notifier sends the post-analysis notification for an inspection.
type Notifier interface {
	// SendInspectionReport compiles and delivers the report for a finished
	// inspection.
	SendInspectionReport(ctx context.Context, insp *domain.Inspection) error
}

// ReportNotifier emails a PDF report to the configured admin recipient.
type ReportNotifier struct {
	storage   storage.Storage
	generator *report.PDFGenerator
	email     email.Service
	adminAddr string
	logger    *slog.Logger
}

// NewReportNotifier creates a ReportNotifier. adminAddr is the address the
// compiled report is sent to.
func NewReportNotifier(st storage.Storage, gen *report.PDFGenerator, svc email.Service, adminAddr string, logger *slog.Logger) *ReportNotifier {
	return &ReportNotifier{
		storage:   st,
		generator: gen,
		email:     svc,
		adminAddr: adminAddr,
		logger:    logger,
	}
}

// SendInspectionReport loads the analyzed photos from storage, renders the
// PDF report and emails it as an attachment.
func (n *ReportNotifier) SendInspectionReport(ctx context.Context, insp *domain.Inspection) error {
	images := n.loadImages(ctx, insp)

	data := &report.Data{
		Inspection:  insp,
		Images:      images,
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if _, err := n.generator.Generate(ctx, data, &buf); err != nil {
		metrics.ReportsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("generate report: %w", err)
	}

	// Archive a copy under the tenant's reports prefix so the report can be
	// re-fetched later. Archival failure does not block delivery.
	reportKey := storage.ReportKey(insp.OrganizationID, insp.ID, "pdf")
	if err := n.storage.Put(ctx, reportKey, bytes.NewReader(buf.Bytes()), storage.PutOptions{
		ContentType: "application/pdf",
	}); err != nil {
		n.logger.Warn("failed to archive report",
			"storage_key", reportKey,
			"error", err,
		)
	}

	subject := fmt.Sprintf("Inspection report: %s", insp.CompanyName)
	textBody := fmt.Sprintf(`An inspection of %s has finished analysis.

Inspector: %s
Status: %s
Photos analyzed: %d
Findings: %d

The full report is attached as a PDF.
`, insp.CompanyName, insp.InspectorName, insp.Status, insp.AnalyzedCount(), insp.TotalFindings())

	msg := email.Message{
		To:       n.adminAddr,
		Subject:  subject,
		TextBody: textBody,
		Attachments: []email.Attachment{
			{
				Filename:    fmt.Sprintf("inspection-%s.pdf", insp.ID),
				ContentType: "application/pdf",
				Data:        buf.Bytes(),
			},
		},
	}

	if err := n.email.Send(ctx, msg); err != nil {
		metrics.ReportsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("send report email: %w", err)
	}

	metrics.ReportsSent.WithLabelValues("sent").Inc()
	return nil
}

// loadImages fetches analyzed photos' bytes from storage. A photo that fails
// to load is skipped; the report renders its findings without the image.
func (n *ReportNotifier) loadImages(ctx context.Context, insp *domain.Inspection) map[string][]byte {
	images := make(map[string][]byte)
	for _, p := range insp.Photos {
		if !p.IsAnalyzed {
			continue
		}
		rc, _, err := n.storage.Get(ctx, p.StorageKey)
		if err != nil {
			n.logger.Warn("failed to load photo for report",
				"photo_id", p.ID,
				"storage_key", p.StorageKey,
				"error", err,
			)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			n.logger.Warn("failed to read photo for report",
				"photo_id", p.ID,
				"error", err,
			)
			continue
		}
		images[p.ID.String()] = data
	}
	return images
}

var _ Notifier = (*ReportNotifier)(nil)
