package parser

import (
	"testing"

	"github.com/switchlove/FragileCityScraper/models"
)

func TestExtractInteger(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
		ok   bool
	}{
		{name: "plain", text: "42", want: 42, ok: true},
		{name: "thousands separators", text: "-18,651", want: -18651, ok: true},
		{name: "embedded", text: "fired 1,204 missiles", want: 1204, ok: true},
		{name: "no digits", text: "none", ok: false},
		{name: "empty", text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractInteger(tt.text)
			if ok != tt.ok {
				t.Fatalf("ExtractInteger(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ExtractInteger(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{name: "kilo suffix", text: "373.69k", want: 373690, ok: true},
		{name: "mega suffix", text: "8.4M", want: 8.4e6, ok: true},
		{name: "giga suffix", text: "2G", want: 2e9, ok: true},
		{name: "no suffix", text: "42", want: 42, ok: true},
		{name: "negative with separators", text: "-18,651", want: -18651, ok: true},
		{name: "leading whitespace", text: "  12.5k", want: 12500, ok: true},
		{name: "uppercase K is not a suffix", text: "3K", want: 3, ok: true},
		{name: "empty", text: "", ok: false},
		{name: "no leading number", text: "about 12", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMagnitude(tt.text)
			if ok != tt.ok {
				t.Fatalf("ParseMagnitude(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseMagnitude(%q) = %g, want %g", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseMagnitudeIsPure(t *testing.T) {
	first, ok1 := ParseMagnitude("373.69k")
	second, ok2 := ParseMagnitude("373.69k")
	if ok1 != ok2 || first != second {
		t.Fatalf("repeat parse diverged: (%g,%v) vs (%g,%v)", first, ok1, second, ok2)
	}
}

func TestParseValueOrRange(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Quantity
		ok   bool
	}{
		{name: "gauge", text: "0/300.37k", want: models.BoundedQuantity(0, 300370), ok: true},
		{name: "full gauge", text: "373.69k/374.05k", want: models.BoundedQuantity(373690, 374050), ok: true},
		{name: "scalar", text: "42", want: models.Scalar(42), ok: true},
		{name: "scalar with suffix", text: "1.5M", want: models.Scalar(1.5e6), ok: true},
		{name: "broken gauge falls back to scalar", text: "42/none", want: models.Scalar(42), ok: true},
		{name: "empty", text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseValueOrRange(tt.text)
			if ok != tt.ok {
				t.Fatalf("ParseValueOrRange(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseValueOrRange(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
