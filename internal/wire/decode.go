package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/dataprep/ingest/internal/model"
)

// The decoders below are total: any JSON object decodes, missing or mistyped
// fields fall back to their zero value or documented default. Only input that
// is not a JSON object at all is an error.

type object map[string]any

func decodeObject(data []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return object(obj), nil
}

// DecodeStatus decodes a GET /datasets/{id}/status body.
func DecodeStatus(data []byte) (*model.StatusResponse, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	status, _ := model.ParseDatasetStatus(obj.str("status"))
	resp := &model.StatusResponse{
		DatasetID: obj.str("dataset_id"),
		Status:    status,
		Step:      model.DatasetStep(obj.str("step")),
		Progress:  clampProgress(obj.int("progress")),
		UpdatedAt: obj.time("updated_at"),
	}
	if msg := obj.str("error_message"); msg != "" {
		resp.ErrorMessage = &msg
	}
	return resp, nil
}

// DecodeUpload decodes a POST /datasets/upload body.
func DecodeUpload(data []byte) (*model.UploadResponse, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	status, _ := model.ParseDatasetStatus(obj.str("status"))
	return &model.UploadResponse{
		DatasetID: obj.str("dataset_id"),
		Status:    status,
		Message:   obj.str("message"),
	}, nil
}

// DecodeDatasetList decodes a GET /datasets body.
func DecodeDatasetList(data []byte) (*model.DatasetListResponse, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	resp := &model.DatasetListResponse{Items: []model.DatasetInfo{}}
	for _, item := range obj.objects("items") {
		status, _ := model.ParseDatasetStatus(item.str("status"))
		resp.Items = append(resp.Items, model.DatasetInfo{
			ID:          item.str("id"),
			Name:        item.str("name"),
			Filename:    item.str("filename"),
			CustomName:  item.strPtr("custom_name"),
			RowCount:    item.intPtr("row_count"),
			ColumnCount: item.intPtr("column_count"),
			Step:        model.DatasetStep(item.str("step")),
			Status:      status,
			CreatedAt:   item.time("created_at"),
		})
	}
	return resp, nil
}

// DecodeDatasetDetail decodes a GET /datasets/{id} body.
func DecodeDatasetDetail(data []byte) (*model.DatasetDetail, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	status, _ := model.ParseDatasetStatus(obj.str("status"))
	detail := &model.DatasetDetail{
		ID:           obj.str("id"),
		Name:         obj.str("name"),
		Filename:     obj.str("filename"),
		CustomName:   obj.strPtr("custom_name"),
		Status:       status,
		Step:         model.DatasetStep(obj.str("step")),
		RowCount:     obj.intPtr("row_count"),
		ColumnCount:  obj.intPtr("column_count"),
		ErrorMessage: obj.strPtr("error_message"),
		CreatedAt:    obj.time("created_at"),
		UpdatedAt:    obj.time("updated_at"),
	}
	if a, ok := obj.object("analysis"); ok {
		detail.Analysis = decodeAnalysis(a)
	}
	return detail, nil
}

func decodeAnalysis(a object) *model.DatasetAnalysis {
	analysis := &model.DatasetAnalysis{
		DatasetID:       a.str("dataset_id"),
		GeneratedAt:     a.time("generated_at"),
		RowCount:        a.int("row_count"),
		ColumnCount:     a.int("column_count"),
		NullCounts:      a.intMap("null_counts"),
		DistinctCounts:  a.intMap("distinct_counts"),
		ConstantColumns: a.strings("constant_columns"),
		Suggestions:     a.strings("suggestions"),
	}
	for _, f := range a.objects("schema") {
		name := f.str("name")
		if name == "" {
			continue
		}
		analysis.Schema = append(analysis.Schema, model.SchemaField{Name: name, Dtype: f.dtype()})
	}
	if stats, ok := a.object("stats"); ok {
		analysis.Stats = make(map[string]model.Stats, len(stats))
		for name := range stats {
			if s, ok := stats.object(name); ok {
				analysis.Stats[name] = s.stats()
			}
		}
	}
	return analysis
}

// DecodeCleaningPlan decodes a GET /cleaning/{id}/plan body. Columns without
// a name are skipped; a missing dtype falls back to "type", then "string".
func DecodeCleaningPlan(data []byte) (*model.CleaningPlanResponse, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	resp := &model.CleaningPlanResponse{Columns: []model.ColumnSchema{}}
	if ds, ok := obj.object("dataset"); ok {
		status, _ := model.ParseDatasetStatus(ds.str("status"))
		resp.Dataset = &model.DatasetSummary{
			ID:          ds.str("id"),
			Name:        ds.str("name"),
			Filename:    ds.str("filename"),
			Step:        model.DatasetStep(ds.str("step")),
			Status:      status,
			RowCount:    ds.intPtr("row_count"),
			ColumnCount: ds.intPtr("column_count"),
		}
	}
	for _, c := range obj.objects("columns") {
		name := c.str("name")
		if name == "" {
			continue
		}
		col := model.ColumnSchema{
			Name:     name,
			Dtype:    c.dtype(),
			Nulls:    c.int("nulls"),
			Distinct: c.intPtr("distinct"),
			Values:   c.strings("values"),
		}
		if s, ok := c.object("stats"); ok {
			stats := s.stats()
			col.Stats = &stats
		}
		resp.Columns = append(resp.Columns, col)
	}
	return resp, nil
}

// DecodeArchive decodes a DELETE /datasets/{id} body.
func DecodeArchive(data []byte) (*model.ArchiveResponse, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return &model.ArchiveResponse{Archived: obj.bool("archived")}, nil
}

// DecodeSaveResult decodes a POST /cleaning/{id}/plan body.
func DecodeSaveResult(data []byte) (*SavePlanResponse, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return &SavePlanResponse{OK: obj.bool("ok")}, nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// --- field accessors ---

// value returns the field, treating JSON null like a missing key.
func (o object) value(key string) (any, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// str accepts strings, numbers and booleans.
func (o object) str(key string) string {
	v, ok := o.value(key)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func (o object) strPtr(key string) *string {
	if _, ok := o.value(key); !ok {
		return nil
	}
	s := o.str(key)
	return &s
}

// float accepts numbers and numeric strings.
func (o object) float(key string) (float64, bool) {
	v, ok := o.value(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case bool:
		return 0, false
	case string:
		v = strings.TrimSpace(t)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (o object) floatPtr(key string) *float64 {
	f, ok := o.float(key)
	if !ok {
		return nil
	}
	return &f
}

func (o object) int(key string) int {
	f, _ := o.float(key)
	return int(math.Round(f))
}

func (o object) intPtr(key string) *int {
	f, ok := o.float(key)
	if !ok {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func (o object) bool(key string) bool {
	v, ok := o.value(key)
	if !ok {
		return false
	}
	if s, isStr := v.(string); isStr {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "yes" {
			return true
		}
		v = s
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

func (o object) time(key string) *time.Time {
	v, ok := o.value(key)
	if !ok {
		return nil
	}
	s, isStr := v.(string)
	if !isStr || s == "" {
		return nil
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return nil
	}
	return &t
}

func (o object) object(key string) (object, bool) {
	v, ok := o.value(key)
	if !ok {
		return nil, false
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		return nil, false
	}
	return object(m), true
}

func (o object) objects(key string) []object {
	v, ok := o.value(key)
	if !ok {
		return nil
	}
	items, isList := v.([]any)
	if !isList {
		return nil
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		if m, isMap := item.(map[string]any); isMap {
			out = append(out, object(m))
		}
	}
	return out
}

// strings keeps the scalar, non-empty elements of a list field.
func (o object) strings(key string) []string {
	v, ok := o.value(key)
	if !ok {
		return nil
	}
	items, isList := v.([]any)
	if !isList {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s, err := cast.ToStringE(item); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (o object) intMap(key string) map[string]int {
	m, ok := o.object(key)
	if !ok {
		return nil
	}
	out := make(map[string]int, len(m))
	for k := range m {
		out[k] = m.int(k)
	}
	return out
}

func (o object) dtype() string {
	if d := o.str("dtype"); d != "" {
		return d
	}
	if d := o.str("type"); d != "" {
		return d
	}
	return "string"
}

func (o object) stats() model.Stats {
	return model.Stats{
		Min:    o.floatPtr("min"),
		Max:    o.floatPtr("max"),
		Mean:   o.floatPtr("mean"),
		Median: o.floatPtr("median"),
	}
}
