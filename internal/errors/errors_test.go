package errors

import (
	"fmt"
	"testing"

	"datacheck/domain/core"
)

func TestCodeOfMapsDomainSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{core.NewSchemaViolationError(3, 4, 2), CodeSchemaViolation},
		{core.NewSchemaMismatchError("a", "a", "kind differs"), CodeSchemaMismatch},
		{core.NewAccumulatorClosedError("x"), CodeAccumulatorClosed},
		{core.NewConfigError("seed", "bad"), CodeConfigInvalid},
		{fmt.Errorf("plain"), CodeInternal},
		{IngestFailed("train.csv", fmt.Errorf("no such file")), CodeIngestFailed},
		{nil, ""},
	}
	for _, c := range cases {
		if got := CodeOf(c.err); got != c.want {
			t.Errorf("CodeOf(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestWrapPreservesCodeAndChain(t *testing.T) {
	base := core.NewSchemaViolationError(0, 2, 3)
	wrapped := Wrapf(base, "reading %s", "test.csv")

	if CodeOf(wrapped) != CodeSchemaViolation {
		t.Errorf("wrapped code = %q, want %q", CodeOf(wrapped), CodeSchemaViolation)
	}
	if !core.IsSchemaViolation(wrapped) {
		t.Error("wrapping must not break errors.Is on the domain sentinel")
	}
	if Wrap(nil, "noop") != nil {
		t.Error("wrapping nil must stay nil")
	}
}
