package jobs

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safesight/safesight/internal/analyzer"
	"github.com/safesight/safesight/internal/domain"
	"github.com/safesight/safesight/internal/repository"
	"github.com/safesight/safesight/internal/storage"
	"github.com/safesight/safesight/internal/worker"
)

// fakeStore is an in-memory InspectionStore.
type fakeStore struct {
	inspection *domain.Inspection

	statusUpdates []domain.InspectionStatus
	finalStatus   domain.InspectionStatus
	completedAt   *time.Time
	saved         map[uuid.UUID][]repository.CreateFindingParams

	saveErrOnCall int // 1-based call number that fails, 0 = never
	saveCalls     int
	finishErr     error
}

func newFakeStore(insp *domain.Inspection) *fakeStore {
	return &fakeStore{
		inspection: insp,
		saved:      make(map[uuid.UUID][]repository.CreateFindingParams),
	}
}

func (s *fakeStore) GetInspectionWithPhotos(ctx context.Context, id uuid.UUID) (*domain.Inspection, error) {
	if s.inspection == nil || s.inspection.ID != id {
		return nil, sql.ErrNoRows
	}
	// Copy so the handler sees persisted is_analyzed flags.
	insp := *s.inspection
	insp.Photos = make([]domain.Photo, len(s.inspection.Photos))
	copy(insp.Photos, s.inspection.Photos)
	return &insp, nil
}

func (s *fakeStore) UpdateInspectionStatus(ctx context.Context, id uuid.UUID, status domain.InspectionStatus) error {
	s.statusUpdates = append(s.statusUpdates, status)
	s.inspection.Status = status
	return nil
}

func (s *fakeStore) FinishInspection(ctx context.Context, id uuid.UUID, status domain.InspectionStatus, completedAt time.Time) error {
	if s.finishErr != nil {
		return s.finishErr
	}
	s.finalStatus = status
	s.completedAt = &completedAt
	s.inspection.Status = status
	s.inspection.CompletedAt = &completedAt
	return nil
}

func (s *fakeStore) SaveAnalyzedPhoto(ctx context.Context, photoID uuid.UUID, findings []repository.CreateFindingParams) error {
	s.saveCalls++
	if s.saveErrOnCall > 0 && s.saveCalls == s.saveErrOnCall {
		return errors.New("connection reset")
	}
	s.saved[photoID] = findings
	for i := range s.inspection.Photos {
		if s.inspection.Photos[i].ID == photoID {
			s.inspection.Photos[i].IsAnalyzed = true
		}
	}
	return nil
}

func (s *fakeStore) GetOrganizationSettings(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationSettings, error) {
	return nil, sql.ErrNoRows
}

// fakeStorage serves photo bytes from a map.
type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	b, _ := io.ReadAll(data)
	f.objects[key] = b
	return nil
}

func (f *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: "image/jpeg"}, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "http://test/" + key, nil
}
func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

// fakeAnalyzer delegates to a per-photo function.
type fakeAnalyzer struct {
	fn    func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error)
	calls int
}

func (f *fakeAnalyzer) AnalyzePhoto(ctx context.Context, params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
	f.calls++
	return f.fn(params)
}

type fakeNotifier struct {
	calls int
	err   error
	last  *domain.Inspection
}

func (f *fakeNotifier) SendInspectionReport(ctx context.Context, insp *domain.Inspection) error {
	f.calls++
	f.last = insp
	if f.err != nil {
		return f.err
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildInspection(photoCount int) (*domain.Inspection, *fakeStorage) {
	insp := &domain.Inspection{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		UserID:         uuid.New(),
		CompanyID:      uuid.New(),
		Status:         domain.InspectionStatusPhotosCaptured,
		StartedAt:      time.Now().UTC().Add(-time.Hour),
		CompanyName:    "Acme Construction",
		InspectorName:  "Dana Velasquez",
	}

	st := &fakeStorage{objects: make(map[string][]byte)}
	for i := 0; i < photoCount; i++ {
		key := storage.PhotoKey(insp.OrganizationID, insp.ID, ".jpg")
		st.objects[key] = []byte("jpeg bytes")
		insp.Photos = append(insp.Photos, domain.Photo{
			ID:           uuid.New(),
			InspectionID: insp.ID,
			StorageKey:   key,
			ContentType:  "image/jpeg",
			CapturedAt:   time.Now().UTC(),
		})
	}
	return insp, st
}

func payloadFor(insp *domain.Inspection) []byte {
	ids := make([]uuid.UUID, len(insp.Photos))
	for i, p := range insp.Photos {
		ids[i] = p.ID
	}
	b, _ := json.Marshal(worker.AnalyzePhotosPayload{
		InspectionID: insp.ID,
		PhotoIDs:     ids,
		ActingUserID: insp.UserID,
	})
	return b
}

func resultWithFindings(n int) *analyzer.Result {
	res := &analyzer.Result{Model: "test", Raw: json.RawMessage(`{"findings":[]}`)}
	for i := 0; i < n; i++ {
		res.Findings = append(res.Findings, analyzer.Finding{
			Description:      "hazard",
			RiskLevel:        domain.RiskLevelHigh,
			CorrectiveAction: "fix it",
		})
	}
	return res
}

func TestHandle_AllPhotosSucceed(t *testing.T) {
	insp, st := buildInspection(3)
	store := newFakeStore(insp)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return resultWithFindings(1), nil
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))
	require.NoError(t, err)

	assert.Equal(t, []domain.InspectionStatus{domain.InspectionStatusAnalyzing}, store.statusUpdates)
	assert.Equal(t, domain.InspectionStatusCompleted, store.finalStatus)
	assert.NotNil(t, store.completedAt)
	assert.Len(t, store.saved, 3)
	assert.Equal(t, 3, az.calls)
	assert.Equal(t, 1, notifier.calls)
}

func TestHandle_MixedOutcomes(t *testing.T) {
	insp, st := buildInspection(3)
	store := newFakeStore(insp)

	photoA, photoB, photoC := insp.Photos[0].ID, insp.Photos[1].ID, insp.Photos[2].ID
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		switch params.PhotoID {
		case photoA:
			return resultWithFindings(2), nil
		case photoB:
			return resultWithFindings(0), nil
		default:
			return nil, analyzer.ErrUnavailable
		}
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))
	require.NoError(t, err)

	// One success is enough to complete the inspection.
	assert.Equal(t, domain.InspectionStatusCompleted, store.finalStatus)
	assert.Len(t, store.saved[photoA], 2)
	assert.Empty(t, store.saved[photoB])
	assert.Contains(t, store.saved, photoB) // clean photo is still committed
	assert.NotContains(t, store.saved, photoC)
	assert.Equal(t, 1, notifier.calls)
}

func TestHandle_AllPhotosFail(t *testing.T) {
	insp, st := buildInspection(2)
	store := newFakeStore(insp)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return nil, analyzer.ErrRateLimit
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))
	require.NoError(t, err)

	assert.Equal(t, domain.InspectionStatusFailed, store.finalStatus)
	assert.NotNil(t, store.completedAt)
	assert.Empty(t, store.saved)
	assert.Zero(t, notifier.calls)
}

func TestHandle_PersistenceFailureIsFatal(t *testing.T) {
	insp, st := buildInspection(3)
	store := newFakeStore(insp)
	store.saveErrOnCall = 2
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return resultWithFindings(1), nil
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))

	// Failed despite the first photo succeeding, and the loop stopped.
	assert.Equal(t, domain.InspectionStatusFailed, store.finalStatus)
	assert.Len(t, store.saved, 1)
	assert.Contains(t, store.saved, insp.Photos[0].ID)
	assert.Equal(t, 2, az.calls)
	assert.Zero(t, notifier.calls)
}

func TestHandle_InspectionNotFound(t *testing.T) {
	insp, st := buildInspection(1)
	store := newFakeStore(nil)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		t.Fatal("analyzer must not be called")
		return nil, nil
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))

	// Missing inspection is discarded, not retried.
	assert.NoError(t, err)
	assert.Empty(t, store.statusUpdates)
	assert.Zero(t, notifier.calls)
}

func TestHandle_TerminalInspectionIsNoOp(t *testing.T) {
	for _, status := range []domain.InspectionStatus{
		domain.InspectionStatusCompleted,
		domain.InspectionStatusFailed,
	} {
		t.Run(status.String(), func(t *testing.T) {
			insp, st := buildInspection(2)
			insp.Status = status
			store := newFakeStore(insp)
			az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
				t.Fatal("analyzer must not be called")
				return nil, nil
			}}
			notifier := &fakeNotifier{}

			h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
			err := h.Handle(context.Background(), payloadFor(insp))

			assert.NoError(t, err)
			assert.Empty(t, store.statusUpdates)
			assert.Empty(t, store.saved)
			assert.Zero(t, notifier.calls)
		})
	}
}

func TestHandle_RerunSkipsAnalyzedPhotos(t *testing.T) {
	insp, st := buildInspection(2)
	insp.Status = domain.InspectionStatusAnalyzing
	for i := range insp.Photos {
		insp.Photos[i].IsAnalyzed = true
	}
	store := newFakeStore(insp)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return resultWithFindings(1), nil
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))
	require.NoError(t, err)

	// No analyzer calls, no new findings, but the inspection still settles.
	assert.Zero(t, az.calls)
	assert.Empty(t, store.saved)
	assert.Equal(t, domain.InspectionStatusCompleted, store.finalStatus)
}

func TestHandle_DraftInspectionIsPermanentError(t *testing.T) {
	insp, st := buildInspection(1)
	insp.Status = domain.InspectionStatusDraft
	store := newFakeStore(insp)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return resultWithFindings(1), nil
	}}

	h := NewAnalyzePhotosHandler(store, az, st, &fakeNotifier{}, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))

	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}

func TestHandle_InvalidPayload(t *testing.T) {
	_, st := buildInspection(0)
	h := NewAnalyzePhotosHandler(newFakeStore(nil), &fakeAnalyzer{}, st, &fakeNotifier{}, testLogger())

	err := h.Handle(context.Background(), []byte("{not json"))
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}

func TestHandle_NotifierFailureDoesNotFailJob(t *testing.T) {
	insp, st := buildInspection(1)
	store := newFakeStore(insp)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return resultWithFindings(1), nil
	}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))

	assert.NoError(t, err)
	assert.Equal(t, domain.InspectionStatusCompleted, store.finalStatus)
	assert.Equal(t, 1, notifier.calls)
}

func TestHandle_PhotosAnalyzedInSuppliedOrder(t *testing.T) {
	insp, st := buildInspection(3)
	store := newFakeStore(insp)

	var analyzed []uuid.UUID
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		analyzed = append(analyzed, params.PhotoID)
		return resultWithFindings(1), nil
	}}

	// Request the photos in reverse capture order.
	reversed := []uuid.UUID{insp.Photos[2].ID, insp.Photos[1].ID, insp.Photos[0].ID}
	b, err := json.Marshal(worker.AnalyzePhotosPayload{
		InspectionID: insp.ID,
		PhotoIDs:     reversed,
		ActingUserID: insp.UserID,
	})
	require.NoError(t, err)

	h := NewAnalyzePhotosHandler(store, az, st, &fakeNotifier{}, testLogger())
	require.NoError(t, h.Handle(context.Background(), b))

	assert.Equal(t, reversed, analyzed, "photos must be analyzed in the order requested")
	assert.Equal(t, domain.InspectionStatusCompleted, store.finalStatus)
}

func TestHandle_MissingStorageObjectFailsPhotoOnly(t *testing.T) {
	insp, st := buildInspection(2)
	delete(st.objects, insp.Photos[0].StorageKey)
	store := newFakeStore(insp)
	az := &fakeAnalyzer{fn: func(params analyzer.AnalyzePhotoParams) (*analyzer.Result, error) {
		return resultWithFindings(1), nil
	}}
	notifier := &fakeNotifier{}

	h := NewAnalyzePhotosHandler(store, az, st, notifier, testLogger())
	err := h.Handle(context.Background(), payloadFor(insp))
	require.NoError(t, err)

	assert.Equal(t, domain.InspectionStatusCompleted, store.finalStatus)
	assert.NotContains(t, store.saved, insp.Photos[0].ID)
	assert.Contains(t, store.saved, insp.Photos[1].ID)
	assert.Equal(t, 1, az.calls)
}
