package handler

import (
	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/store"
	"github.com/dataprep/ingest/internal/wire"
)

// The store keeps the backend's raw status strings, so the views below cast
// them instead of parsing.

func infoView(d *store.Dataset) model.DatasetInfo {
	created := d.CreatedAt
	info := model.DatasetInfo{
		ID:         d.ID,
		Name:       d.Name,
		Filename:   d.Filename,
		CustomName: d.CustomName,
		Step:       model.DatasetStep(d.Step),
		Status:     model.DatasetStatus(d.Status),
		CreatedAt:  &created,
	}
	info.RowCount, info.ColumnCount = counts(d)
	return info
}

func statusView(d *store.Dataset) model.StatusResponse {
	updated := d.UpdatedAt
	resp := model.StatusResponse{
		DatasetID: d.ID,
		Status:    model.DatasetStatus(d.Status),
		Step:      model.DatasetStep(d.Step),
		Progress:  d.Progress,
		UpdatedAt: &updated,
	}
	if d.ErrorMessage != "" {
		msg := d.ErrorMessage
		resp.ErrorMessage = &msg
	}
	return resp
}

func detailView(d *store.Dataset) model.DatasetDetail {
	created, updated := d.CreatedAt, d.UpdatedAt
	detail := model.DatasetDetail{
		ID:         d.ID,
		Name:       d.Name,
		Filename:   d.Filename,
		CustomName: d.CustomName,
		Status:     model.DatasetStatus(d.Status),
		Step:       model.DatasetStep(d.Step),
		CreatedAt:  &created,
		UpdatedAt:  &updated,
	}
	detail.RowCount, detail.ColumnCount = counts(d)
	if d.ErrorMessage != "" {
		msg := d.ErrorMessage
		detail.ErrorMessage = &msg
	}
	if d.Profile != nil {
		detail.Analysis = analysisView(d.ID, d.Profile)
	}
	return detail
}

func analysisView(id string, p *store.Profile) *model.DatasetAnalysis {
	generated := p.GeneratedAt
	a := &model.DatasetAnalysis{
		DatasetID:       id,
		GeneratedAt:     &generated,
		RowCount:        p.RowCount,
		ColumnCount:     len(p.Columns),
		Schema:          make([]model.SchemaField, 0, len(p.Columns)),
		NullCounts:      make(map[string]int, len(p.Columns)),
		DistinctCounts:  make(map[string]int, len(p.Columns)),
		ConstantColumns: p.ConstantColumns,
		Stats:           map[string]model.Stats{},
	}
	for _, c := range p.Columns {
		a.Schema = append(a.Schema, model.SchemaField{Name: c.Name, Dtype: c.Dtype})
		a.NullCounts[c.Name] = c.Nulls
		a.DistinctCounts[c.Name] = c.Distinct
		if c.Stats != nil {
			a.Stats[c.Name] = *c.Stats
		}
		if c.Nulls > 0 {
			a.Suggestions = append(a.Suggestions, "Column "+c.Name+" has missing values")
		}
	}
	for _, name := range p.ConstantColumns {
		a.Suggestions = append(a.Suggestions, "Column "+name+" is constant and can be dropped")
	}
	return a
}

// planView lists the analysed columns. A saved plan overrides the dtype of
// the columns it names.
func planView(d *store.Dataset) model.CleaningPlanResponse {
	summary := &model.DatasetSummary{
		ID:       d.ID,
		Name:     d.Name,
		Filename: d.Filename,
		Step:     model.DatasetStep(d.Step),
		Status:   model.DatasetStatus(d.Status),
	}
	summary.RowCount, summary.ColumnCount = counts(d)

	saved := map[string]wire.ColumnPlan{}
	if d.Plan != nil {
		for _, c := range d.Plan.Columns {
			saved[c.Name] = c
		}
	}

	resp := model.CleaningPlanResponse{Dataset: summary, Columns: make([]model.ColumnSchema, 0, len(d.Profile.Columns))}
	for _, c := range d.Profile.Columns {
		distinct := c.Distinct
		col := model.ColumnSchema{
			Name:     c.Name,
			Dtype:    c.Dtype,
			Nulls:    c.Nulls,
			Distinct: &distinct,
			Stats:    c.Stats,
			Values:   c.Values,
		}
		if p, ok := saved[c.Name]; ok && p.Dtype != "" {
			col.Dtype = p.Dtype
		}
		resp.Columns = append(resp.Columns, col)
	}
	return resp
}

func counts(d *store.Dataset) (*int, *int) {
	if d.Profile == nil {
		return nil, nil
	}
	rows, cols := d.Profile.RowCount, len(d.Profile.Columns)
	return &rows, &cols
}
