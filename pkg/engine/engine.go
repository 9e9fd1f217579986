// Package engine evaluates model descriptions. A description is a small
// Lisp program, run in a sandboxed zygomys environment, whose builtins
// create IFC geometry entities and register representation items in a
// model.Model.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/ifcsolid/pkg/diag"
	"github.com/chazu/ifcsolid/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles the full output of an evaluation: the model, any
// evaluation errors, and the structural findings of model.Validate.
type EvalResult struct {
	Model    *model.Model
	Errors   []EvalError
	Findings []diag.Diagnostic
}

// OK reports whether the description evaluated and validated without
// errors. Warning-level findings do not count.
func (r EvalResult) OK() bool {
	if r.Model == nil || len(r.Errors) > 0 {
		return false
	}
	errs, _ := diag.Split(r.Findings)
	return len(errs) == 0
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment so that
// identical sources produce identical models.
type Engine struct {
	// Timeout bounds each evaluation. Set it before the first call.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{Timeout: DefaultTimeout}
}

// Evaluate runs a model description and returns the model it builds.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*model.Model, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate bounded by ctx as well as the engine timeout.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*model.Model, []EvalError, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	gen := e.begin()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		m, evalErrs, err := e.evaluate(source)
		done <- outcome{model: m, errors: evalErrs, err: err}
	}()
	return e.await(ctx, done, gen)
}

// EvaluateFull is Evaluate followed by model.Validate.
func (e *Engine) EvaluateFull(source string) (EvalResult, error) {
	return e.EvaluateFullContext(context.Background(), source)
}

// EvaluateFullContext is EvaluateContext followed by model.Validate.
func (e *Engine) EvaluateFullContext(ctx context.Context, source string) (EvalResult, error) {
	m, evalErrs, err := e.EvaluateContext(ctx, source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Model: m, Errors: evalErrs}
	if m != nil {
		res.Findings = model.Validate(m)
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*model.Model, []EvalError, error) {
	m := model.New()

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return m, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, newBuilder(m))

	if err := env.LoadString(translate(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return m, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
