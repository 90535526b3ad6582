package topoerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindLoad, "LoadError"},
		{KindTransform, "TransformError"},
		{KindGeometry, "GeometryError"},
		{KindRender, "RenderError"},
		{Kind(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("truncated header")
	err := Wrap(KindLoad, cause, "parsing %s", "stl")

	if !IsKind(err, KindLoad) {
		t.Errorf("IsKind(KindLoad) = false for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "LoadError: parsing stl: truncated header") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(KindRender, nil, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestKindOfThroughFmtWrap(t *testing.T) {
	inner := New(KindTransform, "scale must be > 0, got %v", 0.0)
	outer := fmt.Errorf("convert: %w", inner)

	if got := KindOf(outer); got != KindTransform {
		t.Errorf("KindOf = %v, want %v", got, KindTransform)
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors should be KindUnknown")
	}
	if IsKind(nil, KindUnknown) {
		t.Error("nil error should not match any kind")
	}
}
