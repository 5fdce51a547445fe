package validation

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "formatted number",
			raw:  "(11) 99999-9999",
			want: "11999999999",
		},
		{
			name: "digits only",
			raw:  "11999999999",
			want: "11999999999",
		},
		{
			name: "with country code",
			raw:  "+55 11 99999-9999",
			want: "5511999999999",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.raw)
			if got != tt.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{
			name:  "nine digits rejected",
			phone: "119999999",
			valid: false,
		},
		{
			name:  "ten digits accepted",
			phone: "1199999999",
			valid: true,
		},
		{
			name:  "eleven digits accepted",
			phone: "11999999999",
			valid: true,
		},
		{
			name:  "empty rejected",
			phone: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidPhone(tt.phone)
			if got != tt.valid {
				t.Fatalf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
			}
		})
	}
}

func TestIsValidPostalCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{
			name:  "eight digits",
			code:  "01310100",
			valid: true,
		},
		{
			name:  "seven digits",
			code:  "0131010",
			valid: false,
		},
		{
			name:  "nine digits",
			code:  "013101000",
			valid: false,
		},
		{
			name:  "empty",
			code:  "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidPostalCode(tt.code)
			if got != tt.valid {
				t.Fatalf("IsValidPostalCode(%q) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}

func TestNormalizePostalCode(t *testing.T) {
	got := NormalizePostalCode("01310-100")
	if got != "01310100" {
		t.Fatalf("NormalizePostalCode = %q, want 01310100", got)
	}
}
