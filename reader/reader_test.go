package reader

import (
	"bytes"
	"testing"
)

func TestParseFrame(t *testing.T) {
	good := []byte{0x02, 0x09, 0x08, 0x53, 0xBF, 0x10, 0x19, 0xE4, 0x03}

	card, err := parseFrame(good)
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	if card == nil {
		t.Fatal("expected a card from a valid frame")
	}
	if !bytes.Equal(card.UID, []byte{0x53, 0xBF, 0x10, 0x19}) {
		t.Errorf("UID = % x", card.UID)
	}
	if card.Type != TypeMifare1K {
		t.Errorf("Type = %v, want MIFARE 1K", card.Type)
	}
}

func TestParseFrameRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		buff []byte
	}{
		{"bad STX", []byte{0x00, 0x09, 0x08, 0x53, 0xBF, 0x10, 0x19, 0xE4, 0x03}},
		{"bad length byte", []byte{0x02, 0x08, 0x08, 0x53, 0xBF, 0x10, 0x19, 0xE4, 0x03}},
		{"bad ETX", []byte{0x02, 0x09, 0x08, 0x53, 0xBF, 0x10, 0x19, 0xE4, 0x00}},
		{"bad checksum", []byte{0x02, 0x09, 0x08, 0x53, 0xBF, 0x10, 0x19, 0xE5, 0x03}},
		{"short", []byte{0x02, 0x09, 0x08}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := parseFrame(tt.buff)
			if err != nil {
				t.Fatalf("parseFrame: %v", err)
			}
			if card != nil {
				t.Errorf("got card % x from malformed frame", card.UID)
			}
		})
	}
}

func TestParseWiegandFrame(t *testing.T) {
	card, err := parseWiegandFrame("0853BF1019ED")
	if err != nil {
		t.Fatalf("parseWiegandFrame: %v", err)
	}
	if !bytes.Equal(card.UID, []byte{0x53, 0xBF, 0x10, 0x19}) {
		t.Errorf("UID = % x", card.UID)
	}
	if card.Type != TypeMifare1K {
		t.Errorf("Type = %v, want MIFARE 1K", card.Type)
	}

	// Lowercase hex is accepted too.
	card, err = parseWiegandFrame("0853bf1019ed")
	if err != nil {
		t.Fatalf("parseWiegandFrame lowercase: %v", err)
	}
	if !bytes.Equal(card.UID, []byte{0x53, 0xBF, 0x10, 0x19}) {
		t.Errorf("lowercase UID = % x", card.UID)
	}
}

func TestParseWiegandFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"too short", "0853BF10"},
		{"too long", "0853BF1019ED00"},
		{"bad hex", "0853BX1019ED"},
		{"bad checksum", "0853BF1019EE"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseWiegandFrame(tt.id); err == nil {
				t.Errorf("expected error for %q", tt.id)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		sak  byte
		want CardType
	}{
		{0x00, TypeMifareUL},
		{0x08, TypeMifare1K},
		{0x18, TypeMifare4K},
		{0x20, TypeMifareDESFire},
		{0x44, TypeUnknown},
	}
	for _, tt := range tests {
		if got := classify(tt.sak); got != tt.want {
			t.Errorf("classify(0x%02x) = %v, want %v", tt.sak, got, tt.want)
		}
	}
}

func TestMifareFamily(t *testing.T) {
	for _, typ := range []CardType{TypeMifareUL, TypeMifare1K, TypeMifare4K, TypeMifareDESFire} {
		if !typ.Mifare() {
			t.Errorf("%v should be MIFARE family", typ)
		}
	}
	if TypeUnknown.Mifare() {
		t.Error("unknown type should not be MIFARE family")
	}
}

func TestParsePipeLine(t *testing.T) {
	card, err := parsePipeLine("53bf1019")
	if err != nil {
		t.Fatalf("parsePipeLine: %v", err)
	}
	if !bytes.Equal(card.UID, []byte{0x53, 0xBF, 0x10, 0x19}) {
		t.Errorf("UID = % x", card.UID)
	}
	if card.Type != TypeMifare1K {
		t.Errorf("Type = %v, want MIFARE 1K (default)", card.Type)
	}

	card, err = parsePipeLine("53bf1019 18")
	if err != nil {
		t.Fatalf("parsePipeLine with SAK: %v", err)
	}
	if card.Type != TypeMifare4K {
		t.Errorf("Type = %v, want MIFARE 4K", card.Type)
	}

	if _, err := parsePipeLine("not-hex"); err == nil {
		t.Error("expected error for invalid hex")
	}
}
