package pronote

import (
	"bytes"
	"encoding/json"
	"reflect"

	gojson "github.com/goccy/go-json"

	src "github.com/Spok95/curriculum-sync/internal/source/pronote"
)

// syncData счётчики последней синхронизации в metadata.sync_data.
type syncData struct {
	Homework int `json:"homework"`
	Lessons  int `json:"lessons"`
	Absences int `json:"absences"`
}

// integrationMetadata обновляет metadata интеграции: оценки, дневник,
// карнет и sync_data. gradesChanged сообщает, изменились ли оценки.
func integrationMetadata(existing []byte, r *src.Response, sd syncData) (meta json.RawMessage, gradesChanged bool, err error) {
	cur := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if uerr := gojson.Unmarshal(existing, &cur); uerr != nil || cur == nil {
			cur = map[string]json.RawMessage{}
		}
	}
	patch := map[string]any{}

	if ev, key := r.Evaluations(); key != "" {
		gradesChanged = !sameJSON(cur[key], ev)
		patch[key] = ev
	}
	if gb := r.Gradebook(); gb != nil {
		patch["gradebook"] = gb
	}
	if nb, legacy := r.Notebook(); nb != nil {
		patch["carnet_correspondance"] = nb
		if !legacy {
			patch["notebook"] = nb
		}
	}
	patch["sync_data"] = sd

	p, err := gojson.Marshal(patch)
	if err != nil {
		return nil, false, err
	}
	meta, err = mergeJSON(existing, p)
	return meta, gradesChanged, err
}

// sameJSON сравнивает по значению: jsonb возвращает ключи в своём порядке.
func sameJSON(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var va, vb any
	if gojson.Unmarshal(a, &va) != nil || gojson.Unmarshal(b, &vb) != nil {
		return bytes.Equal(a, b)
	}
	return reflect.DeepEqual(va, vb)
}
