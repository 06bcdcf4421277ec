package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/basket-scraper/internal/db"
	"github.com/jonathan/basket-scraper/internal/extract"
	"github.com/jonathan/basket-scraper/internal/fetch"
	"github.com/jonathan/basket-scraper/internal/sink"
	"github.com/jonathan/basket-scraper/internal/types"
)

const (
	sourceURL     = "https://www.opec.org/basket/basketDayArchives.xml"
	attributeDoc  = `<basketDayArchives xmlns="http://tempuri.org/basketDayArchives.xsd"><BasketList data="2024-01-02" val="77.53"/><BasketList data="2024-01-03" val="76.10"/></basketDayArchives>`
	noRecordsDoc  = `<basketDayArchives xmlns="http://tempuri.org/basketDayArchives.xsd"><Info/></basketDayArchives>`
	malformedText = `Service Unavailable`
)

type fakeAcquirer struct {
	text  string
	err   error
	calls int
}

func (f *fakeAcquirer) Acquire(_ context.Context, source string) (*types.RawPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &types.RawPayload{URL: source, Text: f.text, Provenance: types.ProvenanceHTTP}, nil
}

type recordingWriter struct {
	inner sink.Writer
	calls int
}

func (w *recordingWriter) Write(batch types.RecordBatch, dest string) (sink.Outcome, error) {
	w.calls++
	return w.inner.Write(batch, dest)
}

func (w *recordingWriter) Extension() string { return w.inner.Extension() }

type fakeStore struct {
	created   []uuid.UUID
	completed []db.RunCompletion
	saved     types.RecordBatch
	createErr error
	saveErr   error
}

func (s *fakeStore) CreateRun(_ context.Context, runID uuid.UUID, _ string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, runID)
	return nil
}

func (s *fakeStore) CompleteRun(_ context.Context, _ uuid.UUID, c db.RunCompletion) error {
	s.completed = append(s.completed, c)
	return nil
}

func (s *fakeStore) SaveRecords(_ context.Context, _ uuid.UUID, batch types.RecordBatch) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	s.saved = batch
	return int64(len(batch)), nil
}

func newOptions(t *testing.T, acq Acquirer) (Options, *recordingWriter) {
	t.Helper()
	w := &recordingWriter{inner: sink.CSVWriter{Layout: sink.LayoutFull}}
	return Options{
		Source:    sourceURL,
		Output:    filepath.Join(t.TempDir(), "opec_basket_data.csv"),
		Acquirer:  acq,
		Extractor: extract.New(extract.Options{Logger: zerolog.Nop()}),
		Writer:    w,
		Logger:    zerolog.Nop(),
	}, w
}

func TestRun_WritesRecords(t *testing.T) {
	opts, w := newOptions(t, &fakeAcquirer{text: attributeDoc})

	var stages []string
	opts.OnProgress = func(e ProgressEvent) { stages = append(stages, e.Stage) }

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, types.ProvenanceHTTP, result.Provenance)
	assert.Equal(t, types.ShapeAttributePair, result.Shape)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, sink.StatusWritten, result.Outcome.Status)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, []string{StageAcquire, StageExtract, StageWrite}, stages)

	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, "Date,Price,Currency\n2024-01-02,77.53,USD\n2024-01-03,76.10,USD\n", string(data))
}

func TestRun_EachShapeReachesTheSink(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		shape types.Shape
		want  string
	}{
		{
			name:  "attribute pair",
			doc:   attributeDoc,
			shape: types.ShapeAttributePair,
			want:  "Date,Price,Currency\n2024-01-02,77.53,USD\n2024-01-03,76.10,USD\n",
		},
		{
			name:  "child elements",
			doc:   `<BasketList xmlns="http://tempuri.org/basketDayArchives.xsd"><Date>2024-01-01</Date><Value>75.32</Value></BasketList>`,
			shape: types.ShapeChildElements,
			want:  "Date,Price,Currency\n2024-01-01,75.32,USD\n",
		},
		{
			name:  "attribute name date",
			doc:   `<Date 20230101="80.10"/>`,
			shape: types.ShapeAttributeNameDate,
			want:  "Date,Price,Currency\n20230101,80.10,USD\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _ := newOptions(t, &fakeAcquirer{text: tt.doc})

			result, err := Run(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, result.Shape)
			assert.Equal(t, sink.StatusWritten, result.Outcome.Status)

			data, err := os.ReadFile(opts.Output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestRun_AcquireFailureStopsRun(t *testing.T) {
	acqErr := &fetch.AcquisitionError{URL: sourceURL}
	opts, w := newOptions(t, &fakeAcquirer{err: acqErr})

	_, err := Run(context.Background(), opts)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageAcquire, stageErr.Stage)
	assert.ErrorIs(t, err, fetch.ErrNoContent)
	assert.Zero(t, w.calls)
}

func TestRun_MalformedPayloadFailsExtract(t *testing.T) {
	opts, w := newOptions(t, &fakeAcquirer{text: malformedText})

	result, err := Run(context.Background(), opts)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.ErrorIs(t, err, extract.ErrMalformedXML)
	assert.Empty(t, result.Records)
	assert.Zero(t, w.calls)
}

func TestRun_SoftModeSkipsEmptyBatch(t *testing.T) {
	opts, w := newOptions(t, &fakeAcquirer{text: noRecordsDoc})
	previous := []byte("Date,Price,Currency\n2023-12-29,77.10,USD\n")
	require.NoError(t, os.WriteFile(opts.Output, previous, 0644))

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, types.ShapeNone, result.Shape)
	assert.Equal(t, sink.StatusSkippedEmpty, result.Outcome.Status)
	assert.Equal(t, 1, w.calls)

	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, previous, data)
}

func TestRun_StrictModeFailsWithoutTouchingOutput(t *testing.T) {
	opts, w := newOptions(t, &fakeAcquirer{text: noRecordsDoc})
	opts.Strict = true

	_, err := Run(context.Background(), opts)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.ErrorIs(t, err, extract.ErrNoMatchingShape)
	assert.Zero(t, w.calls)

	_, statErr := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_WriteFailure(t *testing.T) {
	opts, _ := newOptions(t, &fakeAcquirer{text: attributeDoc})
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	opts.Output = filepath.Join(blocker, "out.csv")

	_, err := Run(context.Background(), opts)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageWrite, stageErr.Stage)
	assert.ErrorIs(t, err, sink.ErrIOFailure)
}

func TestRun_RecordsHistory(t *testing.T) {
	tests := []struct {
		name       string
		acq        *fakeAcquirer
		strict     bool
		wantStatus string
		wantSaved  int
	}{
		{"succeeded", &fakeAcquirer{text: attributeDoc}, false, db.RunStatusSucceeded, 2},
		{"empty", &fakeAcquirer{text: noRecordsDoc}, false, db.RunStatusEmpty, 0},
		{"strict no match", &fakeAcquirer{text: noRecordsDoc}, true, db.RunStatusFailed, 0},
		{"acquire failure", &fakeAcquirer{err: errors.New("offline")}, false, db.RunStatusFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			opts, _ := newOptions(t, tt.acq)
			opts.Strict = tt.strict
			opts.Store = store

			result, _ := Run(context.Background(), opts)

			require.Equal(t, []uuid.UUID{result.RunID}, store.created)
			require.Len(t, store.completed, 1)
			assert.Equal(t, tt.wantStatus, store.completed[0].Status)
			assert.Len(t, store.saved, tt.wantSaved)
			if tt.wantStatus == db.RunStatusFailed {
				assert.NotEmpty(t, store.completed[0].Detail)
			}
		})
	}
}

func TestRun_StoreFailuresDoNotFailRun(t *testing.T) {
	store := &fakeStore{createErr: errors.New("connection refused")}
	opts, _ := newOptions(t, &fakeAcquirer{text: attributeDoc})
	opts.Store = store

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, sink.StatusWritten, result.Outcome.Status)
	assert.Empty(t, store.completed, "a run that was never created is not completed")

	store = &fakeStore{saveErr: errors.New("copy failed")}
	opts.Store = store
	_, err = Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, store.completed, 1)
	assert.Equal(t, db.RunStatusSucceeded, store.completed[0].Status)
}

func TestRun_RequiresComponents(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestStageError_Message(t *testing.T) {
	err := &StageError{Stage: StageWrite, Cause: errors.New("disk full")}
	assert.Equal(t, "write stage failed: disk full", err.Error())
	assert.Equal(t, "disk full", errors.Unwrap(err).Error())
}
