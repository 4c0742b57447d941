// Package playability classifies the playabilityStatus block of a video-info
// document into a closed set of outcomes.
package playability

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/errs"
)

// Outcome is the non-failing result of classification.
type Outcome int

const (
	// Rejected means the platform refused the video; see Result.Kind.
	Rejected Outcome = iota
	InfoPresent
	RequiresLogin
	DoesNotExist
	ContentCheckRequired
)

var outcomeNames = map[Outcome]string{
	Rejected:             "rejected",
	InfoPresent:          "info_present",
	RequiresLogin:        "requires_login",
	DoesNotExist:         "does_not_exist",
	ContentCheckRequired: "content_check_required",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Platform status values.
const (
	StatusOK                   = "OK"
	StatusError                = "ERROR"
	StatusUnplayable           = "UNPLAYABLE"
	StatusLoginRequired        = "LOGIN_REQUIRED"
	StatusContentCheckRequired = "CONTENT_CHECK_REQUIRED"

	reasonVideoUnavailable = "Video unavailable"
	reasonPrivateVideo     = "Private video"
)

// Messages shown to users for rejections that carry no platform text.
const (
	MessagePrivate      = "This is a private video."
	MessageNotAnonymous = "This video cannot be viewed anonymously."
)

// Result is a tagged variant: Outcome is Rejected exactly when Kind is set.
type Result struct {
	Outcome Outcome
	// Status is the raw status string, empty when absent.
	Status string
	Kind   string
	Reason string
}

// Err returns the typed error for a rejected result and nil otherwise.
// Protocol violations are faults; every other rejection is a routine,
// user-facing error.
func (r Result) Err() error {
	if r.Outcome != Rejected {
		return nil
	}
	if r.Kind == errs.CodeProtocolViolation {
		return errs.New(r.Kind, errs.SeverityFault, r.Reason)
	}
	return errs.New(r.Kind, errs.SeverityCommon, r.Reason)
}

func rejected(status, kind, reason string) Result {
	return Result{Outcome: Rejected, Status: status, Kind: kind, Reason: reason}
}

// Classify maps doc's playabilityStatus block to a Result.
func Classify(doc gjson.Result) Result {
	block := doc.Get("playabilityStatus")
	if !block.Exists() || block.Type == gjson.Null {
		return rejected("", errs.CodeProtocolViolation, "No playability status block.")
	}
	statusField := block.Get("status")
	if !statusField.Exists() || statusField.Type == gjson.Null {
		return rejected("", errs.CodeProtocolViolation, "No playability status field.")
	}

	status := statusField.String()
	switch status {
	case StatusOK:
		return Result{Outcome: InfoPresent, Status: status}
	case StatusError:
		reason := block.Get("reason").String()
		if reason == reasonVideoUnavailable {
			return Result{Outcome: DoesNotExist, Status: status}
		}
		return rejected(status, errs.CodeUnavailable, reason)
	case StatusUnplayable:
		return rejected(status, errs.CodeUnplayable, UnplayableReason(block))
	case StatusLoginRequired:
		if block.Get("errorScreen.playerErrorMessageRenderer.reason.simpleText").String() == reasonPrivateVideo {
			return rejected(status, errs.CodePrivate, MessagePrivate)
		}
		return Result{Outcome: RequiresLogin, Status: status}
	case StatusContentCheckRequired:
		return Result{Outcome: ContentCheckRequired, Status: status}
	default:
		return rejected(status, errs.CodeNotAnonymous, MessageNotAnonymous)
	}
}

// UnplayableReason returns the subreason of an UNPLAYABLE status block.
// simpleText wins over runs; runs are joined with a trailing newline each.
// Without a subreason the block's reason is used.
func UnplayableReason(block gjson.Result) string {
	reason := block.Get("reason").String()

	subreason := block.Get("errorScreen.playerErrorMessageRenderer.subreason")
	if !subreason.Exists() || subreason.Type == gjson.Null {
		return reason
	}
	if simple := subreason.Get("simpleText"); simple.Exists() && simple.Type != gjson.Null {
		return simple.String()
	}
	if runs := subreason.Get("runs"); runs.IsArray() {
		var sb strings.Builder
		for _, run := range runs.Array() {
			sb.WriteString(run.Get("text").String())
			sb.WriteByte('\n')
		}
		return sb.String()
	}
	return reason
}
