// Package mapper converts raw store documents into insight records.
package mapper

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"

	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/store"
)

// Document fields with a fixed meaning.
const (
	FieldTimestamp       = "timestamp"
	FieldMessage         = "message"
	FieldMarketOverview  = "market_overview"
	FieldRecommendations = "recommendations"
	FieldSectorAnalysis  = "sector_analysis"
	FieldAlerts          = "alerts"
	FieldRiskManagement  = "risk_management"
)

// Fields the client adds itself and never reads back from a document body.
var clientFields = []string{"id", "doc_id"}

// structuredFields are the sections of the structured document shape.
var structuredFields = []string{
	FieldMarketOverview, FieldRecommendations, FieldSectorAnalysis, FieldAlerts, FieldRiskManagement,
}

// textFields names the field a bare string fills for struct types that
// early documents wrote as plain text.
var textFields = map[reflect.Type]string{
	reflect.TypeOf(models.KeyEvent{}): "event",
}

// wireDocument is the decode target for one raw document.
type wireDocument struct {
	models.Metadata `mapstructure:",squash"`

	Timestamp       string                  `mapstructure:"timestamp"`
	Message         string                  `mapstructure:"message"`
	MarketOverview  *models.MarketOverview  `mapstructure:"market_overview"`
	Recommendations []models.Recommendation `mapstructure:"recommendations"`
	SectorAnalysis  []models.SectorAnalysis `mapstructure:"sector_analysis"`
	Alerts          []models.Alert          `mapstructure:"alerts"`
	RiskManagement  *models.RiskManagement  `mapstructure:"risk_management"`

	Rest map[string]interface{} `mapstructure:",remain"`
}

// Map converts one raw document into an InsightRecord. Missing optional
// fields never fail; a field holding a value of the wrong shape does.
func Map(doc store.Document) (models.InsightRecord, error) {
	var w wireDocument

	if err := checkTimestamp(doc); err != nil {
		return models.InsightRecord{}, err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(timeToStringHook, stringToStructHook),
		WeaklyTypedInput: true,
		Result:           &w,
	})
	if err != nil {
		return models.InsightRecord{}, apperrors.NewMappingError(doc.ID, "", err)
	}
	if err := dec.Decode(doc.Data); err != nil {
		return models.InsightRecord{}, apperrors.NewMappingError(doc.ID, failedField(err), err)
	}

	rec := models.InsightRecord{
		ID:        doc.ID,
		Timestamp: w.Timestamp,
		Meta:      w.Metadata,
		Source:    sourceFields(doc.Data),
	}

	for _, f := range clientFields {
		delete(w.Rest, f)
	}

	if w.Message != "" {
		rec.Body = models.LegacyBody{Message: w.Message}
		for _, f := range structuredFields {
			if v, ok := rec.Source[f]; ok {
				if w.Rest == nil {
					w.Rest = make(map[string]interface{})
				}
				w.Rest[f] = cloneValue(v)
			}
		}
	} else {
		rec.Body = models.StructuredBody{
			MarketOverview:  w.MarketOverview,
			Recommendations: w.Recommendations,
			SectorAnalysis:  w.SectorAnalysis,
			Alerts:          w.Alerts,
			RiskManagement:  w.RiskManagement,
		}
	}

	if len(w.Rest) > 0 {
		rec.Extra = w.Rest
	}

	return rec, nil
}

// MapSnapshot maps every document of a snapshot. A failure on any document
// fails the whole batch.
func MapSnapshot(snap *store.Snapshot) ([]models.InsightRecord, error) {
	if snap == nil {
		return nil, nil
	}

	records := make([]models.InsightRecord, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		rec, err := Map(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Unmap projects a record back to document fields. A record read from a
// store returns every field of its source document, with a non-string
// timestamp replaced by its normalized form. Fields the source document did
// not carry are not fabricated.
func Unmap(rec models.InsightRecord) map[string]interface{} {
	if rec.Source != nil {
		out := cloneValue(rec.Source).(map[string]interface{})
		if _, ok := out[FieldTimestamp].(string); !ok && rec.Timestamp != "" {
			out[FieldTimestamp] = rec.Timestamp
		}
		return out
	}

	out := make(map[string]interface{})
	for k, v := range rec.Extra {
		out[k] = v
	}

	if rec.Timestamp != "" {
		out[FieldTimestamp] = rec.Timestamp
	}
	putString(out, "title", rec.Meta.Title)
	putString(out, "date", rec.Meta.Date)
	putString(out, "currency", rec.Meta.Currency)
	putString(out, "source", rec.Meta.Source)
	putString(out, "generated_at", rec.Meta.GeneratedAt)
	putString(out, "type", rec.Meta.Type)

	switch body := rec.Body.(type) {
	case models.LegacyBody:
		out[FieldMessage] = body.Message
	case models.StructuredBody:
		if body.MarketOverview != nil {
			out[FieldMarketOverview] = toPlain(body.MarketOverview)
		}
		if body.Recommendations != nil {
			out[FieldRecommendations] = toPlain(body.Recommendations)
		}
		if body.SectorAnalysis != nil {
			out[FieldSectorAnalysis] = toPlain(body.SectorAnalysis)
		}
		if body.Alerts != nil {
			out[FieldAlerts] = toPlain(body.Alerts)
		}
		if body.RiskManagement != nil {
			out[FieldRiskManagement] = toPlain(body.RiskManagement)
		}
	}

	return out
}

// checkTimestamp rejects a timestamp that is a container rather than a scalar.
// Scalars of any kind are kept and later displayed raw if unparsable.
func checkTimestamp(doc store.Document) error {
	v, ok := doc.Data[FieldTimestamp]
	if !ok || v == nil {
		return nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return apperrors.NewMappingError(doc.ID, FieldTimestamp,
			fmt.Errorf("expected a scalar, got %T", v))
	}
	return nil
}

// timeToStringHook renders store-native timestamps as RFC3339 strings.
func timeToStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch t := data.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return data, nil
}

// stringToStructHook decodes a bare string into the text field of struct
// types listed in textFields. Together with weak slice lifting this accepts
// key_events written as one string, a list of strings or a list of objects.
func stringToStructHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	field, ok := textFields[to]
	if !ok {
		return data, nil
	}
	return map[string]interface{}{field: data}, nil
}

// sourceFields copies the document data without client-side fields.
func sourceFields(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	for _, f := range clientFields {
		delete(out, f)
	}
	return out
}

// cloneValue deep-copies the maps and slices of a document value.
func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}

// failedField extracts the offending field name from a mapstructure error.
func failedField(err error) string {
	var me *mapstructure.Error
	if !apperrors.As(err, &me) || len(me.Errors) == 0 {
		return ""
	}
	msg := me.Errors[0]
	if i := strings.Index(msg, "'"); i >= 0 {
		if j := strings.Index(msg[i+1:], "'"); j >= 0 {
			return msg[i+1 : i+1+j]
		}
	}
	return ""
}

func putString(out map[string]interface{}, key, value string) {
	if value != "" {
		out[key] = value
	}
}

// toPlain converts a typed value into the generic map/slice form a store
// document uses.
func toPlain(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
