package protocol

import (
	"encoding/json"
	"testing"
)

func TestMethodTokens(t *testing.T) {
	tokens := map[Method]string{
		MethodCheck:   "check",
		MethodRead:    "read",
		MethodCreate:  "create",
		MethodUpdate:  "update",
		MethodAppend:  "append",
		MethodDestroy: "destroy",
		MethodAuth:    "auth",
	}

	for m, token := range tokens {
		parsed, err := ParseMethod(token)
		if err != nil {
			t.Errorf("ParseMethod(%q) error = %v", token, err)
		}
		if parsed != m {
			t.Errorf("ParseMethod(%q) = %q, want %q", token, parsed, m)
		}
		data, _ := json.Marshal(m)
		if string(data) != `"`+token+`"` {
			t.Errorf("json.Marshal(%q) = %s", m, data)
		}
	}

	if _, err := ParseMethod("Check"); err == nil {
		t.Error("ParseMethod() should be case-sensitive")
	}
}

func TestStatusTokens(t *testing.T) {
	tokens := []string{
		"switch-protocols", "ok", "pending", "redirect", "denied",
		"bad-request", "unauthorized", "not-found", "too-many-requests", "internal-error",
	}

	for _, token := range tokens {
		st, err := ParseStatus(token)
		if err != nil {
			t.Errorf("ParseStatus(%q) error = %v", token, err)
			continue
		}
		if string(st) != token {
			t.Errorf("ParseStatus(%q) = %q", token, st)
		}
	}

	for _, bad := range []string{"", "OK", "too_many_requests", "teapot"} {
		if _, err := ParseStatus(bad); err == nil {
			t.Errorf("ParseStatus(%q) expected error", bad)
		}
	}
}

func TestVersionSupported(t *testing.T) {
	if !CurrentVersion.Supported() {
		t.Error("CurrentVersion should be supported")
	}
	if Version("ADTP/3.0").Supported() {
		t.Error("unknown version reported as supported")
	}
}
