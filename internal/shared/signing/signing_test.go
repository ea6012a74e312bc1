package signing

import (
	"crypto/rand"
	"testing"
)

func TestSignAndVerifyBytes(t *testing.T) {
	key := make([]byte, 32)
	rand.Read(key)
	s := NewSigner(key)

	data := []byte("cookie-payload")
	sig := s.SignBytes(data)
	if !s.VerifyBytes(data, sig) {
		t.Fatal("verify bytes failed")
	}
	if s.VerifyBytes([]byte("other-payload"), sig) {
		t.Fatal("should reject different bytes")
	}
	if s.VerifyBytes(data, "not-hex") {
		t.Fatal("should reject malformed signature")
	}
}

func TestRejectsWrongKey(t *testing.T) {
	k1 := make([]byte, 32)
	k2 := make([]byte, 32)
	rand.Read(k1)
	rand.Read(k2)
	s1, s2 := NewSigner(k1), NewSigner(k2)

	data := []byte("cookie-payload")
	sig := s1.SignBytes(data)
	if s2.VerifyBytes(data, sig) {
		t.Fatal("should reject signature from a different key")
	}
}

func TestDeterministicSignature(t *testing.T) {
	key := make([]byte, 32)
	rand.Read(key)
	s := NewSigner(key)

	data := []byte("cookie-payload")
	if s.SignBytes(data) != s.SignBytes(data) {
		t.Fatal("same key and payload must sign identically")
	}
}
