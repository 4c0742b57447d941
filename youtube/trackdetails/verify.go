package trackdetails

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/errs"
	"github.com/ytget/ytdetails/internal/metrics"
)

// watchPrefixLen is len("/watch?v="), stripped from the redirect URL.
const watchPrefixLen = 9

const verificationMessage = "Track requires content verification."

var errMissingRedirect = errors.New("expected response is not present")

// verifyContent asks the platform to pass the content check for videoID and
// loads the watch page it redirects to. It makes at most one attempt.
func (l *Loader) verifyContent(ctx context.Context, videoID string) (jsonData, error) {
	ctx, span := l.tracer.Start(ctx, "trackdetails.verifyContent")
	defer span.End()

	resp, err := l.api.VerifyAge(ctx, videoID)
	if err != nil {
		metrics.RecordVerification("error")
		return jsonData{}, err
	}

	link := resp.Get("actions.0.navigateAction.endpoint.urlEndpoint.url")
	if link.Type != gjson.String || link.Str == "" {
		metrics.RecordVerification("missing_redirect")
		l.log.Error("Did not receive requested content verified link", map[string]any{
			"video_id": videoID,
			"response": resp.Raw,
		})
		return jsonData{}, errs.Wrap(errMissingRedirect, errs.CodeContentVerification, errs.SeveritySuspicious, verificationMessage, resp.Raw)
	}
	if len(link.Str) < watchPrefixLen {
		metrics.RecordVerification("error")
		return jsonData{}, errs.New(errs.CodeProtocolViolation, errs.SeverityFault, "Content verification redirect is too short.", link.Str)
	}

	page, err := l.api.WatchPage(ctx, link.Str[watchPrefixLen:])
	if err != nil {
		metrics.RecordVerification("error")
		return jsonData{}, err
	}
	metrics.RecordVerification("redirected")
	l.log.Debug("Loaded content verified watch page", map[string]any{"video_id": videoID})
	return fromMainResult(page)
}
