package domain

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseDataURL(t *testing.T) {
	asset, err := ParseDataURL("data:image/jpeg;base64,AQID")
	if err != nil {
		t.Fatalf("ParseDataURL error: %v", err)
	}
	if asset.MIME != "image/jpeg" {
		t.Fatalf("MIME = %q, want image/jpeg", asset.MIME)
	}
	if !bytes.Equal(asset.Data, []byte{1, 2, 3}) {
		t.Fatalf("Data = %v", asset.Data)
	}
}

func TestParseDataURLDefaultsMIME(t *testing.T) {
	asset, err := ParseDataURL("data:;base64,AQID")
	if err != nil {
		t.Fatalf("ParseDataURL error: %v", err)
	}
	if asset.MIME != DefaultImageMIME {
		t.Fatalf("MIME = %q, want %q", asset.MIME, DefaultImageMIME)
	}
}

func TestParseDataURLRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "https://example.com/a.png", "data:image/png;base64,%%%", "image/png;base64,AQID"} {
		if _, err := ParseDataURL(raw); !errors.Is(err, ErrInvalidDataURL) {
			t.Fatalf("ParseDataURL(%q) error = %v, want ErrInvalidDataURL", raw, err)
		}
	}
}

func TestImageAssetDataURLRoundTrip(t *testing.T) {
	in := ImageAsset{Data: []byte("png-bytes"), MIME: "image/webp"}
	out, err := ParseDataURL(in.DataURL())
	if err != nil {
		t.Fatalf("ParseDataURL error: %v", err)
	}
	if out.MIME != in.MIME || !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestStructuredContentValidate(t *testing.T) {
	full := StructuredContent{Title: "a", Subtitle: "b", Description: "c", CallToAction: "d"}
	if err := full.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	missing := full
	missing.CallToAction = "  "
	if err := missing.Validate(); !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("Validate error = %v, want ErrMalformedContent", err)
	}
}

func TestVideoJobStates(t *testing.T) {
	pending := PendingJob("op-1")
	if pending.State() != JobPending {
		t.Fatalf("State = %v, want pending", pending.State())
	}
	if _, ok := pending.Locator(); ok {
		t.Fatal("pending job must not expose a locator")
	}
	if _, ok := pending.Reason(); ok {
		t.Fatal("pending job must not expose a reason")
	}

	done := DoneJob("op-1", "https://example.com/v.mp4")
	if loc, ok := done.Locator(); !ok || loc != "https://example.com/v.mp4" {
		t.Fatalf("Locator = %q, %v", loc, ok)
	}
	if _, ok := done.Reason(); ok {
		t.Fatal("done job must not expose a reason")
	}

	failed := FailedJob("op-1", "blocked")
	if reason, ok := failed.Reason(); !ok || reason != "blocked" {
		t.Fatalf("Reason = %q, %v", reason, ok)
	}
	if _, ok := failed.Locator(); ok {
		t.Fatal("failed job must not expose a locator")
	}
}

func TestUserErrorIsPermanent(t *testing.T) {
	err := NewUserError(ErrNoImage, "no image this time")
	if !errors.Is(err, ErrNoImage) {
		t.Fatal("UserError must unwrap to its sentinel")
	}
	if !err.Permanent() {
		t.Fatal("UserError must be permanent")
	}
	if err.Error() != "no image this time" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
