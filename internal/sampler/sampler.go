// Package sampler turns raw service records into ordered field samples.
//
// Records come in two shapes. Flat records map each top-level key to a
// value. Answer records (form submissions) keep their fields one level down,
// keyed by field id, as {name, answer, text, type} objects; sampling unwraps
// that level so the sample is keyed by field name.
package sampler

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/crimson-sun/preflight/internal/model"
)

// Record is a classified record. It is either a FlatRecord or an
// AnswerRecord.
type Record interface {
	fields() []model.SampleField
}

// FlatRecord is a record sampled key by key.
type FlatRecord struct {
	Raw model.RawRecord
}

// AnswerRecord is a record whose fields are nested answer objects keyed by
// field id.
type AnswerRecord struct {
	Answers map[string]any
}

const answersKey = "answers"

// Classify decides the shape of r. An "answers" object only makes an answer
// record when at least one of its entries is an answer object.
func Classify(r model.RawRecord) Record {
	if v, ok := r.Get(answersKey); ok {
		if answers, ok := v.(map[string]any); ok && anyAnswer(answers) {
			return AnswerRecord{Answers: answers}
		}
	}
	if answers, ok := keyedAnswers(r); ok {
		return AnswerRecord{Answers: answers}
	}
	return FlatRecord{Raw: r}
}

// keyedAnswers reports whether every top-level value of r is an answer object
// and at least one of them carries an answer.
func keyedAnswers(r model.RawRecord) (map[string]any, bool) {
	if r.Len() == 0 {
		return nil, false
	}
	answers := make(map[string]any, r.Len())
	answered := false
	r.Each(func(key string, value any) bool {
		obj, ok := value.(map[string]any)
		if !ok || !isAnswerObject(obj) {
			answers = nil
			return false
		}
		_, hasAnswer := obj["answer"]
		answered = answered || hasAnswer
		answers[key] = obj
		return true
	})
	return answers, answers != nil && answered
}

func isAnswerObject(obj map[string]any) bool {
	_, hasName := obj["name"]
	_, hasAnswer := obj["answer"]
	return hasName || hasAnswer
}

func anyAnswer(answers map[string]any) bool {
	for _, v := range answers {
		if obj, ok := v.(map[string]any); ok && isAnswerObject(obj) {
			return true
		}
	}
	return false
}

// Sample returns one field per key of r, in order. The result is never nil.
func Sample(r model.RawRecord) []model.SampleField {
	return Classify(r).fields()
}

// SampleAll samples at most limit records. A limit below one samples all.
func SampleAll(records []model.RawRecord, limit int) [][]model.SampleField {
	if limit < 1 || limit > len(records) {
		limit = len(records)
	}
	out := make([][]model.SampleField, 0, limit)
	for _, r := range records[:limit] {
		out = append(out, Sample(r))
	}
	return out
}

func (f FlatRecord) fields() []model.SampleField {
	out := make([]model.SampleField, 0, f.Raw.Len())
	f.Raw.Each(func(key string, value any) bool {
		out = append(out, model.SampleField{Key: key, Type: TypeOf(value), Example: value})
		return true
	})
	return out
}

func (a AnswerRecord) fields() []model.SampleField {
	ids := make([]string, 0, len(a.Answers))
	for id := range a.Answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return model.NaturalLess(ids[i], ids[j]) })

	out := make([]model.SampleField, 0, len(ids))
	for _, id := range ids {
		key := "field_" + id
		obj, ok := a.Answers[id].(map[string]any)
		if !ok {
			out = append(out, model.SampleField{Key: key, Type: model.TypeUnknown, Example: a.Answers[id]})
			continue
		}
		if name, ok := obj["name"].(string); ok && name != "" {
			key = name
		}
		example, ok := obj["answer"]
		if !ok {
			example = ""
		}
		text, _ := obj["text"].(string)
		out = append(out, model.SampleField{
			Key:         key,
			DisplayName: text,
			Type:        TypeOf(example),
			Example:     example,
		})
	}
	return out
}

// TypeOf maps a decoded value to its field type.
func TypeOf(v any) model.FieldType {
	switch v.(type) {
	case nil:
		return model.TypeNull
	case string, time.Time:
		return model.TypeString
	case bool:
		return model.TypeBoolean
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return model.TypeNumber
	case map[string]any, model.RawRecord:
		return model.TypeObject
	case []any:
		return model.TypeArray
	default:
		return model.TypeUnknown
	}
}
