package service

import (
	"strings"
	"testing"
	"time"
)

func TestCodeEmailBody_ContainsCodeAndExpiry(t *testing.T) {
	body := codeEmailBody("Anna", "042913", 15*time.Minute)

	if !strings.Contains(body, "042913") {
		t.Fatalf("body must contain the zero-padded code: %s", body)
	}
	if !strings.Contains(body, "15 minutes") {
		t.Fatalf("body must state the expiry window: %s", body)
	}
	if !strings.Contains(body, "Anna") {
		t.Fatalf("body must greet the recipient: %s", body)
	}
}

func TestCodeEmailBody_EscapesName(t *testing.T) {
	body := codeEmailBody(`<script>alert("x")</script>`, "123456", 15*time.Minute)

	if strings.Contains(body, "<script>") {
		t.Fatalf("recipient name must be HTML-escaped: %s", body)
	}
}
