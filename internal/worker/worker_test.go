package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/store"
)

const sampleCSV = `id,age,score,city,active,notes
1,34,1.5,Paris,true,
2,,2.5,Lyon,false,x
3,51,NA,Paris,true,
4,22,4,,TRUE,
`

func TestProfileCSV(t *testing.T) {
	p, err := ProfileCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, p.RowCount)
	require.Len(t, p.Columns, 6)

	byName := map[string]store.ColumnProfile{}
	for _, c := range p.Columns {
		byName[c.Name] = c
	}

	assert.Equal(t, "int", byName["id"].Dtype)
	assert.Equal(t, "int", byName["age"].Dtype)
	assert.Equal(t, 1, byName["age"].Nulls)
	require.NotNil(t, byName["age"].Stats)
	assert.Equal(t, 22.0, *byName["age"].Stats.Min)
	assert.Equal(t, 51.0, *byName["age"].Stats.Max)
	assert.Equal(t, 34.0, *byName["age"].Stats.Median)

	assert.Equal(t, "double", byName["score"].Dtype)
	assert.Equal(t, 1, byName["score"].Nulls)
	assert.InDelta(t, 8.0/3, *byName["score"].Stats.Mean, 1e-9)

	assert.Equal(t, "string", byName["city"].Dtype)
	assert.Equal(t, 2, byName["city"].Distinct)
	assert.Equal(t, []string{"Paris", "Lyon"}, byName["city"].Values)

	assert.Equal(t, "boolean", byName["active"].Dtype)
	assert.Equal(t, 3, byName["notes"].Nulls)
	assert.Contains(t, p.ConstantColumns, "notes")
	assert.NotContains(t, p.ConstantColumns, "city")
}

func TestProfileCSV_Errors(t *testing.T) {
	_, err := ProfileCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")

	_, err = ProfileCSV(strings.NewReader("a,a\n1,2\n"))
	assert.ErrorContains(t, err, "duplicate column")

	_, err = ProfileCSV(strings.NewReader("a,b\n\"1,2\n"))
	assert.Error(t, err)
}

func seedDataset(t *testing.T, st store.Store, data string) {
	t.Helper()
	require.NoError(t, st.Create(context.Background(), &store.Dataset{
		ID: "ds-1", Owner: "u1", Filename: "f.csv", Status: store.StatusQueued, Data: []byte(data),
	}))
}

func TestAnalysisWorker_Run(t *testing.T) {
	st := store.NewMemoryStore()
	seedDataset(t, st, sampleCSV)
	w := NewAnalysisWorker(st, 0, zap.NewNop())

	require.NoError(t, w.Run(context.Background(), "ds-1"))

	d, err := st.Get(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, d.Status)
	assert.Equal(t, 100, d.Progress)
	assert.Equal(t, "initial_analysis", d.Step)
	require.NotNil(t, d.Profile)
	assert.Equal(t, 4, d.Profile.RowCount)
}

func TestAnalysisWorker_BadFileFails(t *testing.T) {
	st := store.NewMemoryStore()
	seedDataset(t, st, "")
	w := NewAnalysisWorker(st, 0, nil)

	require.NoError(t, w.Run(context.Background(), "ds-1"))

	d, err := st.Get(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, d.Status)
	assert.Contains(t, d.ErrorMessage, "empty")
}

func TestAnalysisWorker_Cancelled(t *testing.T) {
	st := store.NewMemoryStore()
	seedDataset(t, st, sampleCSV)
	w := NewAnalysisWorker(st, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Run(ctx, "ds-1"), context.Canceled)
}

func TestAnalysisWorker_ProcessTask(t *testing.T) {
	st := store.NewMemoryStore()
	seedDataset(t, st, sampleCSV)
	w := NewAnalysisWorker(st, 0, nil)

	task, err := NewAnalyzeTask("ds-1")
	require.NoError(t, err)
	assert.Equal(t, TaskTypeAnalyze, task.Type())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "ds-1", payload["datasetId"])

	require.NoError(t, w.ProcessTask(context.Background(), task))
	d, _ := st.Get(context.Background(), "ds-1")
	assert.Equal(t, store.StatusDone, d.Status)

	err = w.ProcessTask(context.Background(), asynq.NewTask(TaskTypeAnalyze, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLocalDispatcher(t *testing.T) {
	st := store.NewMemoryStore()
	seedDataset(t, st, sampleCSV)
	d := NewLocalDispatcher(NewAnalysisWorker(st, 0, nil), nil)

	require.NoError(t, d.Dispatch(context.Background(), "ds-1"))

	assert.Eventually(t, func() bool {
		got, err := st.Get(context.Background(), "ds-1")
		return err == nil && got.Status == store.StatusDone
	}, 2*time.Second, 10*time.Millisecond)
}

type recordingNotifier struct {
	statuses []string
	progress []int
}

func (n *recordingNotifier) PublishStatus(_, status, _ string, progress int, _ string) {
	n.statuses = append(n.statuses, status)
	n.progress = append(n.progress, progress)
}

func TestAnalysisWorker_Notifies(t *testing.T) {
	st := store.NewMemoryStore()
	seedDataset(t, st, sampleCSV)
	n := &recordingNotifier{}
	w := NewAnalysisWorker(st, 0, nil).WithNotifier(n)

	require.NoError(t, w.Run(context.Background(), "ds-1"))

	assert.Equal(t, []string{
		store.StatusUploading, store.StatusUploading, store.StatusAnalyzing, store.StatusAnalyzing, store.StatusDone,
	}, n.statuses)
	assert.Equal(t, []int{10, 30, 50, 80, 100}, n.progress)
}
