// Package jobs contains background job handlers.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/safesight/safesight/internal/analyzer"
	"github.com/safesight/safesight/internal/domain"
	"github.com/safesight/safesight/internal/metrics"
	"github.com/safesight/safesight/internal/notify"
	"github.com/safesight/safesight/internal/repository"
	"github.com/safesight/safesight/internal/storage"
	"github.com/safesight/safesight/internal/worker"
)

// InspectionStore is the persistence surface the analysis handler needs.
// Implemented by *repository.Store.
type InspectionStore interface {
	GetInspectionWithPhotos(ctx context.Context, id uuid.UUID) (*domain.Inspection, error)
	UpdateInspectionStatus(ctx context.Context, id uuid.UUID, status domain.InspectionStatus) error
	FinishInspection(ctx context.Context, id uuid.UUID, status domain.InspectionStatus, completedAt time.Time) error
	SaveAnalyzedPhoto(ctx context.Context, photoID uuid.UUID, findings []repository.CreateFindingParams) error
	GetOrganizationSettings(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error)
}

// AnalyzePhotosHandler runs the analysis pipeline for one inspection: it
// flips the inspection to analyzing, runs every photo through the analyzer
// one at a time, commits each photo's outcome in its own transaction, settles
// the inspection into a terminal status and sends the report notification.
type AnalyzePhotosHandler struct {
	store    InspectionStore
	analyzer analyzer.Analyzer
	storage  storage.Storage
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewAnalyzePhotosHandler creates a handler for photo analysis jobs.
func NewAnalyzePhotosHandler(
	store InspectionStore,
	az analyzer.Analyzer,
	st storage.Storage,
	notifier notify.Notifier,
	logger *slog.Logger,
) *AnalyzePhotosHandler {
	return &AnalyzePhotosHandler{
		store:    store,
		analyzer: az,
		storage:  st,
		notifier: notifier,
		logger:   logger,
	}
}

// Type returns the job type identifier.
func (h *AnalyzePhotosHandler) Type() string {
	return worker.JobTypeAnalyzePhotos
}

// Handle executes a photo analysis job.
//
// Failure semantics: a photo that cannot be downloaded or analyzed only
// fails that photo; the loop moves on. A failure to PERSIST an outcome is
// fatal and forces the inspection to failed regardless of earlier successes,
// because the pipeline can no longer trust what has been recorded. A missing
// inspection is discarded without retry. An inspection already in a terminal
// status makes the whole job a no-op, so redelivery after a crash between
// the final status write and the queue acknowledgment is harmless.
func (h *AnalyzePhotosHandler) Handle(ctx context.Context, payload []byte) (err error) {
	var p worker.AnalyzePhotosPayload
	if jsonErr := json.Unmarshal(payload, &p); jsonErr != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", jsonErr))
	}

	logger := h.logger.With("inspection_id", p.InspectionID)

	// A panic mid-pipeline must not leave the inspection stuck in
	// analyzing forever.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis panicked", "panic", r)
			if finErr := h.store.FinishInspection(ctx, p.InspectionID, domain.InspectionStatusFailed, time.Now().UTC()); finErr != nil {
				logger.Error("failed to mark inspection failed after panic", "error", finErr)
			}
			err = worker.NewPermanentError(fmt.Errorf("analysis panicked: %v", r))
		}
	}()

	logger.Info("analyzing inspection photos", "photo_count", len(p.PhotoIDs))

	insp, err := h.store.GetInspectionWithPhotos(ctx, p.InspectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The inspection was deleted after enqueue. Nothing to do and
			// nothing a retry could fix.
			logger.Warn("inspection not found, discarding job")
			return nil
		}
		return fmt.Errorf("fetch inspection: %w", err)
	}

	if insp.Status.IsTerminal() {
		logger.Info("inspection already in terminal status, skipping", "status", insp.Status)
		return nil
	}

	// Flip to analyzing before any photo work so pollers see progress.
	// A redelivered job finds the inspection already analyzing.
	if insp.Status != domain.InspectionStatusAnalyzing {
		if err := insp.TransitionTo(domain.InspectionStatusAnalyzing); err != nil {
			return worker.NewPermanentError(fmt.Errorf("inspection not ready for analysis: %w", err))
		}
		if err := h.store.UpdateInspectionStatus(ctx, insp.ID, domain.InspectionStatusAnalyzing); err != nil {
			return fmt.Errorf("update inspection status to analyzing: %w", err)
		}
	}

	prompt := h.analysisPrompt(ctx, insp.OrganizationID, logger)

	photos := h.selectPhotos(insp, p.PhotoIDs)

	var successCount, failCount int
	var fatalErr error

	for _, photo := range photos {
		photoLogger := logger.With("photo_id", photo.ID)

		if photo.IsAnalyzed {
			// Already committed by a previous run. Counts as success,
			// produces nothing new.
			photoLogger.Info("photo already analyzed, skipping")
			successCount++
			continue
		}

		findings, analyzeErr := h.analyzePhoto(ctx, insp, photo, prompt, photoLogger)
		if analyzeErr != nil {
			photoLogger.Error("photo analysis failed", "error", analyzeErr)
			metrics.PhotosAnalyzed.WithLabelValues("failed").Inc()
			failCount++
			continue
		}

		if saveErr := h.store.SaveAnalyzedPhoto(ctx, photo.ID, findings); saveErr != nil {
			// Outcomes that cannot be recorded poison the whole run.
			photoLogger.Error("failed to persist analysis outcome", "error", saveErr)
			fatalErr = fmt.Errorf("persist photo %s outcome: %w", photo.ID, saveErr)
			break
		}

		metrics.PhotosAnalyzed.WithLabelValues("success").Inc()
		metrics.FindingsDetected.Add(float64(len(findings)))
		successCount++
		photoLogger.Info("photo analyzed", "findings", len(findings))
	}

	finalStatus := domain.InspectionStatusCompleted
	if fatalErr != nil || successCount == 0 {
		finalStatus = domain.InspectionStatusFailed
	}

	if err := h.store.FinishInspection(ctx, insp.ID, finalStatus, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish inspection: %w", err)
	}

	logger.Info("inspection analysis finished",
		"status", finalStatus,
		"success", successCount,
		"failed", failCount,
	)

	if fatalErr != nil {
		return worker.NewPermanentError(fatalErr)
	}

	if finalStatus == domain.InspectionStatusCompleted {
		h.sendReport(ctx, insp.ID, logger)
	}

	return nil
}

// selectPhotos resolves the requested photo ids against the loaded
// inspection, preserving the supplied order. Order matters: each photo's
// outcome commits before the next is attempted, so the supplied order decides
// which photos are persisted if the run dies mid-loop. Ids the inspection
// does not own are dropped, duplicates are processed once. An empty id list
// means all photos, in capture order.
func (h *AnalyzePhotosHandler) selectPhotos(insp *domain.Inspection, ids []uuid.UUID) []domain.Photo {
	if len(ids) == 0 {
		return insp.Photos
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	photos := make([]domain.Photo, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p := insp.PhotoByID(id); p != nil {
			photos = append(photos, *p)
		}
	}
	return photos
}

// analyzePhoto downloads one photo and runs it through the analyzer,
// returning the finding rows ready to persist.
func (h *AnalyzePhotosHandler) analyzePhoto(
	ctx context.Context,
	insp *domain.Inspection,
	photo domain.Photo,
	prompt string,
	logger *slog.Logger,
) ([]repository.CreateFindingParams, error) {
	reader, objInfo, err := h.storage.Get(ctx, photo.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer reader.Close()

	imageData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read photo data: %w", err)
	}

	contentType := photo.ContentType
	if contentType == "" {
		contentType = objInfo.ContentType
	}

	result, err := h.analyzer.AnalyzePhoto(ctx, analyzer.AnalyzePhotoParams{
		ImageData:    imageData,
		ContentType:  contentType,
		Prompt:       prompt,
		PhotoID:      photo.ID,
		InspectionID: insp.ID,
	})
	if err != nil {
		metrics.AnalyzerCalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("analyze photo: %w", err)
	}
	metrics.AnalyzerCalls.WithLabelValues("success").Inc()

	logger.Debug("analyzer returned", "model", result.Model, "findings", len(result.Findings))

	var raw pqtype.NullRawMessage
	if len(result.Raw) > 0 {
		raw = pqtype.NullRawMessage{RawMessage: result.Raw, Valid: true}
	}

	findings := make([]repository.CreateFindingParams, 0, len(result.Findings))
	for _, f := range result.Findings {
		findings = append(findings, repository.CreateFindingParams{
			PhotoID:          photo.ID,
			Description:      f.Description,
			RiskLevel:        f.RiskLevel,
			CorrectiveAction: f.CorrectiveAction,
			PreventiveAction: f.PreventiveAction,
			RawResponse:      raw,
		})
	}
	return findings, nil
}

// analysisPrompt resolves the tenant's analysis prompt, falling back to the
// default when no settings row exists.
func (h *AnalyzePhotosHandler) analysisPrompt(ctx context.Context, orgID uuid.UUID, logger *slog.Logger) string {
	settings, err := h.store.GetOrganizationSettings(ctx, orgID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("failed to load organization settings, using defaults", "error", err)
		}
		return domain.DefaultAnalysisPrompt
	}
	return settings.Prompt()
}

// sendReport reloads the finished aggregate and delivers the report.
// Delivery failure never changes the inspection's outcome.
func (h *AnalyzePhotosHandler) sendReport(ctx context.Context, inspectionID uuid.UUID, logger *slog.Logger) {
	insp, err := h.store.GetInspectionWithPhotos(ctx, inspectionID)
	if err != nil {
		logger.Error("failed to reload inspection for report", "error", err)
		return
	}

	if err := h.notifier.SendInspectionReport(ctx, insp); err != nil {
		logger.Error("failed to send inspection report", "error", err)
		return
	}

	logger.Info("inspection report sent")
}
