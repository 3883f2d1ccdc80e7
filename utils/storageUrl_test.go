package utils

import "testing"

func TestBuildObjectAccessURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "storage.googleapis.com")
	t.Setenv("GCS_BUCKET", "mortgage-docs")

	key := "APP-2026-000123/w2/1.pdf"
	got := BuildObjectAccessURL(key)
	want := "https://storage.googleapis.com/mortgage-docs/APP-2026-000123/w2/1.pdf"
	if got != want {
		t.Fatalf("BuildObjectAccessURL(%q) expected %q, got %q", key, want, got)
	}

	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://cdn.lendfocus.com/docs/{objectKey}")
	if got := BuildObjectAccessURL(key); got != "https://cdn.lendfocus.com/docs/"+key {
		t.Fatalf("BuildObjectAccessURL with base template expected templated URL, got %q", got)
	}
}

func TestExtractObjectKeyFromURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "storage.googleapis.com")
	t.Setenv("GCS_BUCKET", "mortgage-docs")

	cases := []struct {
		in       string
		expected string
	}{
		{"https://storage.googleapis.com/mortgage-docs/APP-2026-000123/w2/1.pdf", "APP-2026-000123/w2/1.pdf"},
		{"gs://mortgage-docs/APP-2026-000123/pay_stub/2.pdf", "APP-2026-000123/pay_stub/2.pdf"},
		{"APP-2026-000123/bank_statement/3.pdf", "APP-2026-000123/bank_statement/3.pdf"},
		{"APP-2026-000123/../secrets.pdf", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractObjectKeyFromURL(tc.in); got != tc.expected {
			t.Fatalf("ExtractObjectKeyFromURL(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestAccessURLRoundtrip(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "storage.googleapis.com")
	t.Setenv("GCS_BUCKET", "mortgage-docs")

	key := "APP-2026-000456/tax_return/9.pdf"
	if got := ExtractObjectKeyFromURL(BuildObjectAccessURL(key)); got != key {
		t.Fatalf("roundtrip expected %q, got %q", key, got)
	}
}
