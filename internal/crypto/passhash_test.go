package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal", n)
	}
}

func TestRandToken_URLSafe(t *testing.T) {
	t.Parallel()

	tok, err := RandToken(9)
	if err != nil {
		t.Fatalf("RandToken: %v", err)
	}
	if len(tok) != 12 {
		t.Fatalf("len=%d, want=12", len(tok))
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token %q is not url-safe", tok)
	}
}

func TestHash_SaltedAndEncoded(t *testing.T) {
	t.Parallel()

	h1, err := Hash("p@ssw0rd")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := Hash("p@ssw0rd")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("same secret must hash differently with fresh salts")
	}
	if !strings.HasPrefix(h1, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Fatalf("unexpected encoding: %s", h1)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	h, err := Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !Verify("correct horse battery staple", h) {
		t.Fatalf("Verify: expected true for correct secret")
	}
	if Verify("wrong", h) {
		t.Fatalf("Verify: expected false for wrong secret")
	}
	if Verify("", h) {
		t.Fatalf("Verify: expected false for empty secret")
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	for _, enc := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$!!$a2V5",
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$",
	} {
		if _, err := verify("x", enc); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: want ErrMalformedHash, got %v", enc, err)
		}
		if Verify("x", enc) {
			t.Fatalf("%q: malformed hash must not verify", enc)
		}
	}
}
