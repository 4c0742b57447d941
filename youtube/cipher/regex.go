package cipher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robertkrimen/otto/parser"

	"github.com/ytget/ytdetails/errs"
)

// Op is one signature transformation.
type Op string

const (
	OpReverse Op = "rev"
	OpSplice  Op = "spl"
	OpSwap    Op = "swp"
)

// Step is one helper call of the routine, in call order.
type Step struct {
	Op  Op
	Arg int
}

// Routine is the signature routine found in a player script.
type Routine struct {
	Name   string
	Param  string
	Body   string
	Helper string
	Steps  []Step
}

// Found reports whether a routine was extracted.
func (r Routine) Found() bool {
	return r.Body != ""
}

const ident = `[a-zA-Z0-9$_]+`

var (
	timestampRe = regexp.MustCompile(`(?:signatureTimestamp|sts)\s*:\s*(\d+)`)

	routinePatterns = []*regexp.Regexp{
		// Xx=function(a){...}
		regexp.MustCompile(`(` + ident + `)\s*=\s*function\s*\(\s*(` + ident + `)\s*\)\s*\{([^{}]*)\}`),
		// function Xx(a){...}
		regexp.MustCompile(`function\s+(` + ident + `)\s*\(\s*(` + ident + `)\s*\)\s*\{([^{}]*)\}`),
	}

	methodRe = regexp.MustCompile(`(` + ident + `)\s*:\s*function\s*\(([^)]*)\)\s*\{([^{}]*)\}`)
)

// ExtractTimestamp returns the signatureTimestamp literal of a player script.
func ExtractTimestamp(js string) (string, error) {
	m := timestampRe.FindStringSubmatch(js)
	if m == nil {
		return "", newError(CodeTimestampNotFound, "Signature timestamp not found in player script", map[string]any{"bytes": len(js)})
	}
	return m[1], nil
}

// ExtractRoutine locates the function that splits the signature, calls helper
// methods on it and joins it back, then maps every call to a Step. Both the
// function and the helper object must parse as JavaScript.
func ExtractRoutine(js string) (Routine, error) {
	r, ok := findRoutine(js)
	if !ok {
		return Routine{}, newError(CodeRoutineNotFound, "Signature routine not found in player script")
	}
	if _, err := parser.ParseFunction(r.Param, r.Body); err != nil {
		return Routine{}, errs.Wrap(err, CodeJSParsing, errs.SeverityFault, "Signature routine does not parse", r.Body)
	}

	callRe := regexp.MustCompile(`(` + ident + `)\.(` + ident + `)\(\s*` + regexp.QuoteMeta(r.Param) + `\s*(?:,\s*(\d+))?\s*\)`)
	calls := callRe.FindAllStringSubmatch(r.Body, -1)
	if len(calls) == 0 {
		return Routine{}, newError(CodeRoutineNotFound, "Signature routine makes no helper calls", r.Body)
	}
	r.Helper = calls[0][1]

	helperBody, ok := findObject(js, r.Helper)
	if !ok {
		return Routine{}, newError(CodeRoutineNotFound, fmt.Sprintf("Helper object %s not found in player script", r.Helper))
	}
	if _, err := parser.ParseFile(nil, "", "var "+r.Helper+"={"+helperBody+"};", 0); err != nil {
		return Routine{}, errs.Wrap(err, CodeJSParsing, errs.SeverityFault, "Helper object does not parse", helperBody)
	}

	ops := make(map[string]Op)
	for _, m := range methodRe.FindAllStringSubmatch(helperBody, -1) {
		if op, ok := classifyMethod(m[3]); ok {
			ops[m[1]] = op
		}
	}

	for _, c := range calls {
		if c[1] != r.Helper {
			continue
		}
		op, ok := ops[c[2]]
		if !ok {
			return Routine{}, newError(CodeRoutineNotFound, fmt.Sprintf("Unknown helper method %s.%s", r.Helper, c[2]), helperBody)
		}
		step := Step{Op: op}
		if op != OpReverse && c[3] != "" {
			step.Arg, _ = strconv.Atoi(c[3])
		}
		r.Steps = append(r.Steps, step)
	}
	return r, nil
}

func findRoutine(js string) (Routine, bool) {
	for _, re := range routinePatterns {
		for _, m := range re.FindAllStringSubmatch(js, -1) {
			param, body := m[2], m[3]
			if strings.Contains(body, param+`.split("")`) && strings.Contains(body, `return `+param+`.join("")`) {
				return Routine{Name: m[1], Param: param, Body: body}, true
			}
		}
	}
	return Routine{}, false
}

// findObject returns the literal body of `name={...}`, allowing one level of
// nested braces for method bodies.
func findObject(js, name string) (string, bool) {
	re := regexp.MustCompile(`(?:^|[^a-zA-Z0-9$_.])` + regexp.QuoteMeta(name) + `\s*=\s*\{((?:[^{}]|\{[^{}]*\})*)\}`)
	m := re.FindStringSubmatch(js)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func classifyMethod(body string) (Op, bool) {
	switch {
	case strings.Contains(body, ".reverse()"):
		return OpReverse, true
	case strings.Contains(body, ".splice("):
		return OpSplice, true
	case strings.Contains(body, "[0]") && strings.Contains(body, ".length"):
		return OpSwap, true
	default:
		return "", false
	}
}
