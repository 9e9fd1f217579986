package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/chazu/ifcsolid/pkg/model"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		m, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if m == nil {
			t.Fatal("expected non-nil model")
		}
		if m.ItemCount() != 0 {
			t.Errorf("expected empty model, got %d items", m.ItemCount())
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// Plain Lisp registers nothing.
	m, evalErrs, err := eng.Evaluate("(def x 10)\n(def y 20)\n(+ x y)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if m == nil || m.ItemCount() != 0 {
		t.Fatalf("expected empty model, got %+v", m)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	m, evalErrs, err := eng.Evaluate("(vec3 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	m, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateBuiltinErrorNamesForm(t *testing.T) {
	eng := NewEngine()

	_, evalErrs, err := eng.Evaluate(`(circle "big")`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error")
	}
	if !strings.Contains(evalErrs[0].Message, "circle") {
		t.Errorf("message should name the failing builtin, got %q", evalErrs[0].Message)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	var first []model.EntityID
	for i := 0; i < 5; i++ {
		m, evalErrs, err := eng.Evaluate(unitCube)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		var ids []model.EntityID
		for _, f := range m.MustBrep("cube").Faces {
			ids = append(ids, f.ID)
		}
		if i == 0 {
			first = ids
			continue
		}
		if fmt.Sprint(ids) != fmt.Sprint(first) {
			t.Errorf("iteration %d: face ids %v, want %v", i, ids, first)
		}
	}
}

func TestEvaluateFullReportsFindings(t *testing.T) {
	eng := NewEngine()

	res, err := eng.EvaluateFull(`(brep "empty")`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if res.OK() {
		t.Fatal("a brep without faces should not validate")
	}
	if len(res.Findings) == 0 {
		t.Fatal("expected a finding for the empty brep")
	}

	res, err = eng.EvaluateFull(unitCube)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("unit cube should validate: %v %v", res.Errors, res.Findings)
	}
}

func TestAwaitTimeout(t *testing.T) {
	eng := NewEngine()
	eng.Timeout = 20 * time.Millisecond
	gen := eng.begin()

	ctx, cancel := context.WithTimeout(context.Background(), eng.Timeout)
	defer cancel()
	_, _, err := eng.await(ctx, make(chan outcome), gen)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "20ms") {
		t.Errorf("timeout error should name the limit: %v", err)
	}
}

func TestAwaitCancelled(t *testing.T) {
	eng := NewEngine()
	gen := eng.begin()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := eng.await(ctx, make(chan outcome), gen)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation is not a timeout")
	}
}

func TestAwaitDropsSupersededModel(t *testing.T) {
	eng := NewEngine()
	stale := eng.begin()
	eng.begin()

	done := make(chan outcome, 1)
	done <- outcome{model: model.New()}
	m, _, err := eng.await(context.Background(), done, stale)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if m != nil {
		t.Error("a superseded evaluation must not deliver its model")
	}
}

func TestEvaluateContextCancelledBeforeStart(t *testing.T) {
	eng := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either the quick evaluation or the cancellation may win; neither
	// may hang or deliver a partial model alongside an error.
	m, _, err := eng.EvaluateContext(ctx, unitCube)
	if err != nil && m != nil {
		t.Fatalf("got model %v with error %v", m, err)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestZeroTimeoutFallsBackToDefault(t *testing.T) {
	eng := &Engine{}
	if eng.timeout() != DefaultTimeout {
		t.Errorf("timeout() = %s, want %s", eng.timeout(), DefaultTimeout)
	}
	m, evalErrs, err := eng.Evaluate(unitCube)
	if err != nil || len(evalErrs) > 0 || m == nil {
		t.Fatalf("zero-value engine should evaluate: %v %v", evalErrs, err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
