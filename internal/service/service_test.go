package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/plan"
	"github.com/dataprep/ingest/internal/poller"
	"github.com/dataprep/ingest/internal/wire"
)

type fakeAPI struct {
	mu sync.Mutex

	uploadResp *model.UploadResponse
	uploadErr  error
	uploaded   string

	statuses []*model.StatusResponse
	polls    int

	listCalls int
	items     []model.DatasetInfo

	planResp *model.CleaningPlanResponse
	saved    []wire.SavePlanRequest
	saveErr  error

	archived bool
}

func (f *fakeAPI) ListDatasets(context.Context) (*model.DatasetListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return &model.DatasetListResponse{Items: f.items}, nil
}

func (f *fakeAPI) UploadDataset(_ context.Context, filename string, file io.Reader, _ string) (*model.UploadResponse, error) {
	data, _ := io.ReadAll(file)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = filename + ":" + string(data)
	return f.uploadResp, f.uploadErr
}

func (f *fakeAPI) GetDatasetStatus(_ context.Context, id string) (*model.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := f.statuses[min(f.polls, len(f.statuses)-1)]
	f.polls++
	return resp, nil
}

func (f *fakeAPI) GetDatasetDetail(_ context.Context, id string) (*model.DatasetDetail, error) {
	return &model.DatasetDetail{ID: id}, nil
}

func (f *fakeAPI) ArchiveDataset(context.Context, string) (*model.ArchiveResponse, error) {
	return &model.ArchiveResponse{Archived: f.archived}, nil
}

func (f *fakeAPI) GetCleaningPlan(context.Context, string) (*model.CleaningPlanResponse, error) {
	return f.planResp, nil
}

func (f *fakeAPI) SaveCleaningPlan(_ context.Context, _ string, req wire.SavePlanRequest) (*wire.SavePlanResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, req)
	return &wire.SavePlanResponse{OK: true}, nil
}

// waitScheduled advances clk one poll interval and blocks until the poller
// has armed its next timer.
func waitScheduled(t *testing.T, clk clockwork.FakeClock) {
	t.Helper()
	clk.Advance(poller.DefaultInterval)
	armed := make(chan struct{})
	go func() {
		clk.BlockUntil(1)
		close(armed)
	}()
	select {
	case <-armed:
	case <-time.After(2 * time.Second):
		t.Fatal("next poll was not scheduled")
	}
}

func waitDone(t *testing.T, clk clockwork.FakeClock, h *poller.Handle) {
	t.Helper()
	clk.Advance(poller.DefaultInterval)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := h.Wait(ctx)
	require.NoError(t, err)
}

func TestUpload_PollsAndRefreshesOnSuccess(t *testing.T) {
	api := &fakeAPI{
		uploadResp: &model.UploadResponse{DatasetID: "ds-1", Status: model.DatasetStatusQueued},
		statuses: []*model.StatusResponse{
			{Status: model.DatasetStatusAnalyzing, Progress: 50},
			{Status: model.DatasetStatusDone, Progress: 100},
		},
		items: []model.DatasetInfo{{ID: "ds-1", Name: "sales"}},
	}
	clk := clockwork.NewFakeClock()
	p := poller.New(api, poller.DefaultConfig(), clk, zap.NewNop())
	catalog := NewCatalog(api, zap.NewNop())
	svc := NewUploadService(api, p, catalog, zap.NewNop())

	var states []poller.State
	h, err := svc.Upload(context.Background(), "sales.csv", strings.NewReader("a,b\n"), "sales", func(o poller.Observation) {
		states = append(states, o.State)
	})
	require.NoError(t, err)
	assert.Equal(t, "sales.csv:a,b\n", api.uploaded)
	assert.Equal(t, "ds-1", h.JobID())

	waitScheduled(t, clk)
	assert.Equal(t, 0, api.listCalls)
	waitDone(t, clk, h)

	assert.Equal(t, []poller.State{poller.StatePolling, poller.StateSucceeded}, states)
	assert.Equal(t, 1, api.listCalls)
	require.Len(t, catalog.Items(), 1)
	assert.Equal(t, "sales", catalog.Items()[0].Name)
}

func TestUpload_FailureDoesNotRefresh(t *testing.T) {
	msg := "bad header"
	api := &fakeAPI{
		uploadResp: &model.UploadResponse{DatasetID: "ds-1"},
		statuses:   []*model.StatusResponse{{Status: model.DatasetStatusFailed, ErrorMessage: &msg}},
	}
	clk := clockwork.NewFakeClock()
	svc := NewUploadService(api, poller.New(api, poller.DefaultConfig(), clk, nil), NewCatalog(api, nil), nil)

	h, err := svc.Upload(context.Background(), "x.csv", strings.NewReader(""), "", nil)
	require.NoError(t, err)
	waitDone(t, clk, h)

	assert.Equal(t, poller.StateFailed, h.State())
	assert.Equal(t, msg, h.Observation().ErrorMessage)
	assert.Equal(t, 0, api.listCalls)
}

func TestUpload_Errors(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("uploadDataset failed: 413")}
	svc := NewUploadService(api, poller.New(api, poller.Config{}, clockwork.NewFakeClock(), nil), nil, nil)

	_, err := svc.Upload(context.Background(), "x.csv", strings.NewReader(""), "", nil)
	assert.ErrorContains(t, err, "413")

	api.uploadErr = nil
	api.uploadResp = &model.UploadResponse{}
	_, err = svc.Upload(context.Background(), "x.csv", strings.NewReader(""), "", nil)
	assert.ErrorContains(t, err, "without a dataset id")
}

func TestCatalog_Archive(t *testing.T) {
	api := &fakeAPI{items: []model.DatasetInfo{{ID: "a"}, {ID: "b"}}, archived: true}
	c := NewCatalog(api, nil)
	require.NoError(t, c.Refresh(context.Background()))

	ok, err := c.Archive(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, "b", c.Items()[0].ID)
	assert.Len(t, api.items, 2)
}

func cleaningAPI() *fakeAPI {
	rows := 10
	return &fakeAPI{planResp: &model.CleaningPlanResponse{
		Dataset: &model.DatasetSummary{ID: "ds-1", Name: "sales", RowCount: &rows},
		Columns: []model.ColumnSchema{
			{Name: "age", Dtype: "Int32", Nulls: 5},
			{Name: "city", Dtype: "object", Nulls: 1},
		},
	}}
}

func TestCleaning_OpenSeeds(t *testing.T) {
	svc := NewCleaningService(cleaningAPI(), "", zap.NewNop())

	e, err := svc.Open(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "sales", e.Dataset.Name)

	plans := e.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, model.TargetInt, plans[0].TargetType)
	assert.Equal(t, model.TargetString, plans[1].TargetType)
}

func TestCleaning_SaveSendsWirePayload(t *testing.T) {
	api := cleaningAPI()
	svc := NewCleaningService(api, SavePolicyReject, zap.NewNop())
	e, err := svc.Open(context.Background(), "ds-1")
	require.NoError(t, err)

	_, err = e.Patch(0, plan.SetImputation(model.RandomRange{Min: 10, Max: 20}))
	require.NoError(t, err)
	_, err = e.Patch(1, plan.Merge(plan.Rename("town"), plan.SetDrop(true)))
	require.NoError(t, err)

	resp, err := svc.Save(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, resp.OK)

	require.Len(t, api.saved, 1)
	got := api.saved[0]
	assert.Equal(t, "ds-1", got.DatasetID)
	assert.Equal(t, "int", got.Columns[0].Dtype)
	assert.Equal(t, "10,20", *got.Columns[0].Imputation.Value)
	assert.Equal(t, "town", got.Columns[1].RenameTo)
	assert.True(t, got.Columns[1].Drop)
}

func TestCleaning_SavePolicy(t *testing.T) {
	for _, tt := range []struct {
		policy    SavePolicy
		wantErr   bool
		wantSaved int
	}{
		{SavePolicyReject, true, 0},
		{SavePolicyOmit, false, 1},
	} {
		t.Run(string(tt.policy), func(t *testing.T) {
			api := cleaningAPI()
			svc := NewCleaningService(api, tt.policy, nil)
			e, err := svc.Open(context.Background(), "ds-1")
			require.NoError(t, err)
			_, err = e.Patch(0, plan.SetImputation(model.RandomRange{Min: 9, Max: 1}))
			require.NoError(t, err)

			_, err = svc.Save(context.Background(), e)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPlanInvalid)
				var invalid *InvalidPlanError
				require.ErrorAs(t, err, &invalid)
				assert.Len(t, invalid.Issues, 1)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, api.saved, tt.wantSaved)
		})
	}
}

func TestCleaning_SaveTransportError(t *testing.T) {
	api := cleaningAPI()
	api.saveErr = errors.New("saveCleaningPlan failed: 500")
	svc := NewCleaningService(api, "", nil)
	e, err := svc.Open(context.Background(), "ds-1")
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), e)
	assert.ErrorContains(t, err, "500")
}

func TestParseSavePolicy(t *testing.T) {
	p, err := ParseSavePolicy("")
	require.NoError(t, err)
	assert.Equal(t, SavePolicyReject, p)

	p, err = ParseSavePolicy(" OMIT ")
	require.NoError(t, err)
	assert.Equal(t, SavePolicyOmit, p)

	_, err = ParseSavePolicy("ignore")
	assert.Error(t, err)
}
