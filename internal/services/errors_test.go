package services_test

import (
	"errors"
	"strings"
	"testing"

	"brandguardian/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExtraction, "extraction", "upload", "upload rejected", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"extraction", "upload", "upload rejected"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "validate", "missing", nil), services.KindConfiguration},
		{"extraction", services.Wrap(services.ErrExtraction, "extraction", "poll", "failed", nil), services.KindExtraction},
		{"retrieval", services.Wrap(services.ErrRetrieval, "audit", "retrieve", "search down", nil), services.KindRetrieval},
		{"parse", services.Wrap(services.ErrJudgeParse, "audit", "judge", "no json", nil), services.KindJudgeParse},
		{"invocation", services.Wrap(services.ErrJudgeInvocation, "audit", "judge", "503", nil), services.KindJudgeInvocation},
		{"other", errors.New("nil pointer"), services.KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.want {
				t.Fatalf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribePrefixesKind(t *testing.T) {
	err := services.Wrap(services.ErrJudgeParse, "audit", "judge", "no json object", nil)
	got := services.Describe(err)
	if !strings.HasPrefix(got, "JudgeParseFailure: ") {
		t.Fatalf("unexpected description %q", got)
	}
	if services.Describe(nil) != "" {
		t.Fatal("expected empty description for nil error")
	}
}
