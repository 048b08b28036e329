package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Error("correct password must verify against its hash")
	}
	if CheckPasswordHash("wrong-pass", hash) {
		t.Error("wrong password must not verify")
	}
	if CheckPasswordHash("s3cret-pass", "not-a-bcrypt-hash") {
		t.Error("malformed hash must not verify")
	}
}
