package botguard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
)

// GojaSolver runs a user-provided script that defines a global
// `bgAttest(input)` returning either a token string or
// { token: string, ttlSeconds?: number }.
type GojaSolver struct {
	name    string
	program *goja.Program
}

// NewGojaSolver compiles source once; each Attest call runs it in a fresh VM.
func NewGojaSolver(name, source string) (*GojaSolver, error) {
	program, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &GojaSolver{name: name, program: program}, nil
}

// NewGojaSolverFromFile reads and compiles the script at path.
func NewGojaSolverFromFile(path string) (*GojaSolver, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return NewGojaSolver(path, string(src))
}

// Attest implements Solver. Cancelling ctx interrupts the running script.
func (s *GojaSolver) Attest(ctx context.Context, input Input) (Output, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	_ = vm.Set("console", map[string]any{"log": func(...any) {}})

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	if _, err := vm.RunProgram(s.program); err != nil {
		return Output{}, fmt.Errorf("run %s: %w", s.name, err)
	}
	fn, ok := goja.AssertFunction(vm.Get("bgAttest"))
	if !ok {
		return Output{}, errors.New("bgAttest function not found in script")
	}
	res, err := fn(goja.Undefined(), vm.ToValue(input))
	if err != nil {
		return Output{}, fmt.Errorf("bgAttest: %w", err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return Output{}, errors.New("bgAttest returned undefined/null")
	}

	if str, ok := res.Export().(string); ok {
		return Output{Token: str}, nil
	}
	obj, ok := res.(*goja.Object)
	if !ok {
		return Output{}, fmt.Errorf("unexpected bgAttest return type %s", res.ExportType())
	}
	var out Output
	if v := obj.Get("token"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		out.Token = v.String()
	}
	if v := obj.Get("ttlSeconds"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if n := v.ToInteger(); n > 0 {
			out.ExpiresAt = time.Now().Add(time.Duration(n) * time.Second)
		}
	}
	if out.Token == "" {
		return Output{}, errors.New("bgAttest returned an empty token")
	}
	return out, nil
}
