package services

import (
	"encoding/base64"
	"testing"
)

func TestDecodeImagePayload_DataURL(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	contentType, decoded, err := decodeImagePayload(data)
	if err != nil {
		t.Fatalf("decodeImagePayload() error = %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q, want image/png", contentType)
	}
	if string(decoded) != string(raw) {
		t.Errorf("decoded bytes = %v, want %v", decoded, raw)
	}
}

func TestDecodeImagePayload_BareBase64(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))

	contentType, decoded, err := decodeImagePayload(data)
	if err != nil {
		t.Fatalf("decodeImagePayload() error = %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg fallback", contentType)
	}
	if string(decoded) != "jpeg bytes" {
		t.Errorf("decoded = %q, want original bytes", decoded)
	}
}

func TestDecodeImagePayload_Invalid(t *testing.T) {
	cases := map[string]string{
		"not base64":           "!!!not-base64!!!",
		"empty payload":        "",
		"malformed data URL":   "data:image/png;base64",
		"unsupported encoding": "data:image/png;utf8,hello",
	}
	for name, data := range cases {
		if _, _, err := decodeImagePayload(data); err == nil {
			t.Errorf("decodeImagePayload() accepted %s", name)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	cases := map[string]string{
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
		"image/jpeg": ".jpg",
		"image/bmp":  ".jpg",
	}
	for contentType, want := range cases {
		if got := extensionFor(contentType); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", contentType, got, want)
		}
	}
}
