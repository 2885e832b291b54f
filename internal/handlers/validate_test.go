package handlers

import (
	"strings"
	"testing"
)

func TestValidateNode(t *testing.T) {
	cases := []struct {
		name    string
		n, c, d string
		wantErr bool
	}{
		{"valid", "Tower A", "TB0001", "West tower", false},
		{"empty name", "", "TB0001", "", true},
		{"whitespace name", "   ", "TB0001", "", true},
		{"name too long", strings.Repeat("x", 201), "TB0001", "", true},
		{"name at limit", strings.Repeat("x", 200), "TB0001", "", false},
		{"code too long", "Tower A", strings.Repeat("C", 51), "", true},
		{"description too long", "Tower A", "TB0001", strings.Repeat("d", 2001), true},
		{"no code", "Tower A", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := validateNode(tc.n, tc.c, tc.d)
			if (msg != "") != tc.wantErr {
				t.Errorf("validateNode(%q, %q, ...): got %q, wantErr=%v", tc.n, tc.c, msg, tc.wantErr)
			}
		})
	}
}

func TestValidateNodeMultibyte(t *testing.T) {
	// Limits count runes, not bytes.
	name := strings.Repeat("သ", 200)
	if msg := validateNode(name, "", ""); msg != "" {
		t.Errorf("200 multibyte runes rejected: %q", msg)
	}
}

func TestValidateSlotLabel(t *testing.T) {
	if msg := validateSlotLabel("niche-a1"); msg != "" {
		t.Errorf("valid label rejected: %q", msg)
	}
	if msg := validateSlotLabel(""); msg == "" {
		t.Error("empty label accepted")
	}
	if msg := validateSlotLabel(strings.Repeat("x", 101)); msg == "" {
		t.Error("oversized label accepted")
	}
}

func TestValidateBooking(t *testing.T) {
	if msg := validateBooking("Daw Khin", "+95 9 1234 5678"); msg != "" {
		t.Errorf("valid booking rejected: %q", msg)
	}
	if msg := validateBooking("  ", ""); msg == "" {
		t.Error("blank devotee name accepted")
	}
	if msg := validateBooking("Daw Khin", strings.Repeat("9", 31)); msg == "" {
		t.Error("oversized phone accepted")
	}
}

func TestValidateSettingKey(t *testing.T) {
	if msg := validateSettingKey("temple_name"); msg != "" {
		t.Errorf("valid key rejected: %q", msg)
	}
	if msg := validateSettingKey(" "); msg == "" {
		t.Error("blank key accepted")
	}
	if msg := validateSettingKey(strings.Repeat("k", 101)); msg == "" {
		t.Error("oversized key accepted")
	}
}
