package main

import (
	"bytes"
	"testing"
)

func TestAuthorizedUIDBytes(t *testing.T) {
	cfg := Config{AuthorizedUID: "53bf1019"}

	uid, err := cfg.AuthorizedUIDBytes()
	if err != nil {
		t.Fatalf("AuthorizedUIDBytes: %v", err)
	}
	if !bytes.Equal(uid, []byte{0x53, 0xBF, 0x10, 0x19}) {
		t.Errorf("uid = % x", uid)
	}
}

func TestAuthorizedUIDBytesErrors(t *testing.T) {
	for _, bad := range []string{"", "xyz", "53bf101"} {
		cfg := Config{AuthorizedUID: bad}
		if _, err := cfg.AuthorizedUIDBytes(); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
