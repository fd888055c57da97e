package delivery

import "testing"

func TestSignBody_VerifiesRoundTrip(t *testing.T) {
	body := []byte(`{"type":"fix.dispatch","version":"1"}`)
	signature := SignBody("shared-secret", body)

	if signature == "" {
		t.Fatalf("expected signature")
	}
	if !VerifySignature("shared-secret", body, signature) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifySignature_RejectsMismatches(t *testing.T) {
	body := []byte(`{"ok":true}`)
	signature := SignBody("secret-a", body)

	if VerifySignature("secret-b", body, signature) {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifySignature("secret-a", []byte(`{"ok":false}`), signature) {
		t.Fatalf("expected tampered body to fail")
	}
	if VerifySignature("secret-a", body, "not-hex") {
		t.Fatalf("expected malformed hex to fail")
	}
	if VerifySignature("secret-a", body, "") {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifySignature("secret-a", body, "  "+signature+"  ") != true {
		t.Fatalf("expected whitespace to be trimmed")
	}
}
