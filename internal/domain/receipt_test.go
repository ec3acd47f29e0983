package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMarshalReceipt_FormatsMoneyWithTwoDecimals(t *testing.T) {
	issued := time.Date(2026, 10, 17, 18, 30, 0, 0, time.UTC)
	receipt := Receipt{
		ID:         "rcpt-1",
		CartID:     "cart-1",
		Total:      mustPrice("12.5"),
		SeatNumber: "A12",
		Lines: []ReceiptLine{
			{MenuItemID: 7, Name: "Peanuts", Price: mustPrice("4.5")},
			{MenuItemID: 10, Name: "Combo", Price: mustPrice("8")},
		},
		IssuedAt: issued,
	}

	data, err := MarshalReceipt(receipt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if raw["total"] != "12.50" {
		t.Fatalf("total = %v, want 12.50", raw["total"])
	}
	lines, ok := raw["lines"].([]any)
	if !ok || len(lines) != 2 {
		t.Fatalf("unexpected lines: %v", raw["lines"])
	}
	if first := lines[0].(map[string]any); first["price"] != "4.50" {
		t.Fatalf("line price = %v, want 4.50", first["price"])
	}

	decoded, err := UnmarshalReceipt(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Total.Equal(receipt.Total) || decoded.SeatNumber != "A12" || !decoded.IssuedAt.Equal(issued) {
		t.Fatalf("decoded receipt differs: %+v", decoded)
	}
}

func TestUnmarshalReceipt_InvalidTotal(t *testing.T) {
	if _, err := UnmarshalReceipt([]byte(`{"total":"twelve"}`)); err == nil {
		t.Fatal("expected error for non-numeric total")
	}
	if _, err := UnmarshalReceipt([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
