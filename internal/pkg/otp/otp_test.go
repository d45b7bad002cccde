package otp

import (
	"strings"
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"
)

func TestNumericCode(t *testing.T) {
	code, err := NumericCode(6)
	if err != nil {
		t.Fatalf("NumericCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("expected digits only, got %q", code)
		}
	}
}

func TestNumericCodeFallbackLength(t *testing.T) {
	code, err := NumericCode(0)
	if err != nil {
		t.Fatalf("NumericCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected fallback to 6 digits, got %q", code)
	}
}

func TestTOTPValidateWithinSkew(t *testing.T) {
	o := NewTOTP("GoVerify", 30, 1, libOTP.DigitsSix)

	secret, uri, err := o.Generate("user@example.com")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning uri %q", uri)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	code, err := o.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("GenerateCode returned error: %v", err)
	}
	if !o.Validate(code, secret, now) {
		t.Fatal("expected current code to validate")
	}
	if !o.Validate(code, secret, now.Add(30*time.Second)) {
		t.Fatal("expected code to validate one period later")
	}
	if o.Validate(code, secret, now.Add(90*time.Second)) {
		t.Fatal("expected code to be rejected outside the skew")
	}
}

func TestTOTPURIMatchesGenerated(t *testing.T) {
	o := NewTOTP("GoVerify", 30, 1, libOTP.DigitsSix)

	secret, _, err := o.Generate("user@example.com")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	uri := o.URI(secret, "user@example.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected uri scheme in %q", uri)
	}
	if !strings.Contains(uri, "secret="+secret) {
		t.Fatalf("expected secret in uri, got %q", uri)
	}
	if !strings.Contains(uri, "issuer=GoVerify") {
		t.Fatalf("expected issuer in uri, got %q", uri)
	}
}
