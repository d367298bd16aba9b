package auth

import "testing"

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct-pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct-pw" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := VerifyPassword(hash, "correct-pw"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "wrong-pw"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestPasswordEmptyInputs(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
	if err := VerifyPassword("", "anything"); err == nil {
		t.Fatal("expected error for empty hash")
	}
}
