package model

import "testing"

func TestChangeRecordType(t *testing.T) {
	tests := []struct {
		name        string
		oldQty      int
		newQty      int
		wantType    string
		wantChanged int
	}{
		{"restock", 5, 12, ChangeTypeRestock, 7},
		{"sale", 10, 7, ChangeTypeSale, 3},
		{"restock from zero", 0, 1, ChangeTypeRestock, 1},
		{"sale to zero", 4, 0, ChangeTypeSale, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &ChangeRecord{OldQuantity: tt.oldQty, NewQuantity: tt.newQty}
			if got := ch.Type(); got != tt.wantType {
				t.Errorf("Type() = %q, want %q", got, tt.wantType)
			}
			if got := ch.QuantityChanged(); got != tt.wantChanged {
				t.Errorf("QuantityChanged() = %d, want %d", got, tt.wantChanged)
			}
		})
	}
}
