package types

import (
	"encoding/json"
	"testing"
)

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Quantity
	}{
		{"integer", `12`, 120000},
		{"fraction", `12.5`, 125000},
		{"four digits", `0.0001`, 1},
		{"trailing zeros", `3.1400`, 31400},
		{"negative", `-2.25`, -22500},
		{"string form", `"7.5"`, 75000},
		{"string negative", `"-0.5"`, -5000},
		{"null", `null`, 0},
		{"zero", `0`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.in), &q); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if q != tt.want {
				t.Errorf("got %d, want %d", q, tt.want)
			}
		})
	}
}

func TestQuantity_UnmarshalJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"exponent lower", `1e3`},
		{"exponent upper", `1E3`},
		{"exponent string", `"2.5e-1"`},
		{"five fractional digits", `0.00005`},
		{"excess precision", `"1.23456"`},
		{"bare sign", `"-"`},
		{"lone dot", `"."`},
		{"not a number", `"abc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.in), &q); err == nil {
				t.Errorf("unmarshal %s: expected error, got %d", tt.in, q)
			}
		})
	}
}

func TestQuantity_MarshalRoundTrip(t *testing.T) {
	for _, q := range []Quantity{0, 1, 125000, -22500, 10_000_000_000} {
		data, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal %d: %v", q, err)
		}

		var back Quantity
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != q {
			t.Errorf("round trip %d -> %s -> %d", q, data, back)
		}
	}
}

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{0, "0.0000"},
		{1, "0.0001"},
		{125000, "12.5000"},
		{-22500, "-2.2500"},
	}

	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.q, got, tt.want)
		}
	}
}
