package util

import "testing"

func TestIsValidPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"valid", "Str0ng!pass", true},
		{"too short", "S0r!ngp", false},
		{"no uppercase", "str0ng!pass", false},
		{"no lowercase", "STR0NG!PASS", false},
		{"no digit", "Strong!pass", false},
		{"no special", "Str0ngpass", false},
		{"unapproved character", "Str0ng!pass€", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidPassword(tc.password); got != tc.want {
				t.Errorf("IsValidPassword(%q) = %v, want %v", tc.password, got, tc.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"jane@test.com", true},
		{"jane.doe@sub.example.org", true},
		{"", false},
		{"no-at-sign", false},
		{"two@@test.com", false},
		{"jane@nodot", false},
		{"with space@test.com", false},
	}

	for _, tc := range cases {
		if got := IsValidEmail(tc.email); got != tc.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane@Test.COM  "); got != "jane@test.com" {
		t.Errorf("NormalizeEmail() = %q, want %q", got, "jane@test.com")
	}
}
