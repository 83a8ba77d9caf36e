package dataurl

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}
	encoded := Encode("image/jpeg", payload)

	if !IsDataURL(encoded) {
		t.Fatalf("expected data url, got %q", encoded)
	}

	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.MIME != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", parsed.MIME)
	}
	if !bytes.Equal(parsed.Data, payload) {
		t.Fatalf("expected %v, got %v", payload, parsed.Data)
	}
}

func TestParseAcceptsUnpaddedPayload(t *testing.T) {
	parsed, err := Parse("data:image/png;base64,aGk")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if string(parsed.Data) != "hi" {
		t.Fatalf("expected hi, got %q", parsed.Data)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/a.jpg",
		"data:image/png,plain",
		"data:image/png;base64",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	}
	for _, c := range cases {
		if _, err := Parse(c); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q): expected ErrInvalid, got %v", c, err)
		}
	}
}
