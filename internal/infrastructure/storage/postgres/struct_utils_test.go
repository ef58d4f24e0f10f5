package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/material"
)

func TestExtractDBColumns_Material(t *testing.T) {
	cols := ExtractDBColumns[material.Material]()

	// Embedded catalog fields first, then the material's own.
	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "code")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "unit")
	assert.Contains(t, cols, "days_valid_after_opened")
	assert.Contains(t, cols, "opened_on")
}

func TestExtractDBColumns_Batch(t *testing.T) {
	cols := ExtractDBColumns[batch.Batch]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "version")
	assert.Contains(t, cols, "material_id")
	assert.Contains(t, cols, "total")
	assert.Contains(t, cols, "available")
	assert.Contains(t, cols, "unit_price")
}

func TestStructToMap(t *testing.T) {
	m := material.NewMaterial("MT-1", "lactose", material.UnitKilogram)

	data := StructToMap(m)

	assert.Equal(t, m.ID, data["id"])
	assert.Equal(t, "MT-1", data["code"])
	assert.Equal(t, "lactose", data["name"])
	assert.Equal(t, material.UnitKilogram, data["unit"])
	assert.NotContains(t, data, "nonexistent")
}

func TestStructToMap_SkipsUntaggedFields(t *testing.T) {
	type row struct {
		ID      string         `db:"id"`
		Ignored string         `db:"-"`
		NoTag   string         ``
		Qty     types.Quantity `db:"qty"`
	}

	data := StructToMap(row{ID: "a", Ignored: "b", NoTag: "c", Qty: 5})

	assert.Equal(t, map[string]any{"id": "a", "qty": types.Quantity(5)}, data)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("nope"))
}
