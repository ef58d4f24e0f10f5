package dto

import (
	"testing"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
)

func TestCreateBatchRequest_ToEntity_Supplier(t *testing.T) {
	materialID := id.New()
	supplierID := id.New()

	supplier := supplierID.String()
	req := CreateBatchRequest{
		MaterialID: materialID.String(),
		SupplierID: &supplier,
		LotNumber:  "L-2026-001",
		Total:      500,
	}

	b, err := req.ToEntity()
	if err != nil {
		t.Fatalf("to entity: %v", err)
	}
	if b.SupplierID == nil || *b.SupplierID != supplierID {
		t.Errorf("supplier id = %v, want %s", b.SupplierID, supplierID)
	}

	resp := FromBatch(b)
	if resp.SupplierID == nil || *resp.SupplierID != supplier {
		t.Errorf("response supplier id = %v, want %s", resp.SupplierID, supplier)
	}
}

func TestCreateBatchRequest_ToEntity_NoSupplier(t *testing.T) {
	req := CreateBatchRequest{
		MaterialID: id.New().String(),
		LotNumber:  "L-2026-002",
		Total:      500,
	}

	b, err := req.ToEntity()
	if err != nil {
		t.Fatalf("to entity: %v", err)
	}
	if b.SupplierID != nil {
		t.Errorf("supplier id = %v, want nil", b.SupplierID)
	}
	if FromBatch(b).SupplierID != nil {
		t.Error("response supplier id should be omitted")
	}
}

func TestCreateBatchRequest_ToEntity_BadSupplier(t *testing.T) {
	bad := "not-a-uuid"
	req := CreateBatchRequest{
		MaterialID: id.New().String(),
		SupplierID: &bad,
		LotNumber:  "L-2026-003",
		Total:      500,
	}

	_, err := req.ToEntity()
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want %s", err, apperror.CodeValidation)
	}
}
