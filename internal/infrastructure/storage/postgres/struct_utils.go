package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns collects column names from a struct's "db" tags,
// walking embedded structs (entity.Catalog, entity.Document) recursively.
// Called once per repository at construction time.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			cols = append(cols, columnsOf(f.Type)...)
			continue
		}
		if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

// fieldPlan caches which struct fields map to which columns so repeated
// StructToMap calls skip tag parsing.
type fieldPlan struct {
	tagged   []taggedField
	embedded []int
}

type taggedField struct {
	index int
	col   string
}

var planCache sync.Map // reflect.Type -> *fieldPlan

func planFor(t reflect.Type) *fieldPlan {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := planCache.Load(t); ok {
		return cached.(*fieldPlan)
	}

	plan := &fieldPlan{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				plan.embedded = append(plan.embedded, i)
				continue
			}
			if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
				plan.tagged = append(plan.tagged, taggedField{index: i, col: tag})
			}
		}
	}

	planCache.Store(t, plan)
	return plan
}

// StructToMap converts a struct to column->value pairs using "db" tags.
// Fields without a tag, or tagged "-", are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	plan := planFor(rv.Type())
	res := make(map[string]any, len(plan.tagged))

	for _, tf := range plan.tagged {
		res[tf.col] = rv.Field(tf.index).Interface()
	}
	for _, idx := range plan.embedded {
		for k, val := range StructToMap(rv.Field(idx).Interface()) {
			res[k] = val
		}
	}

	return res
}
