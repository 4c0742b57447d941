package trackdetails

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/errs"
	"github.com/ytget/ytdetails/youtube/innertube"
)

// jsonData is the player response of one video plus the player script URL
// that came with it, if any. Values are never modified in place.
type jsonData struct {
	PlayerResponse  gjson.Result
	PlayerScriptURL string
}

// withPlayerScriptURL returns a copy carrying url.
func (d jsonData) withPlayerScriptURL(url string) jsonData {
	d.PlayerScriptURL = url
	return d
}

// fromMainResult accepts either a bare player response or a watch page result,
// which is an array (or object) whose entries hold playerResponse and player.
func fromMainResult(doc gjson.Result) (jsonData, error) {
	if doc.IsArray() {
		var data jsonData
		found := false
		doc.ForEach(func(_, entry gjson.Result) bool {
			if pr := entry.Get("playerResponse"); pr.Exists() && !found {
				data.PlayerResponse = pr
				found = true
			}
			if js := entry.Get("player.assets.js").String(); js != "" && data.PlayerScriptURL == "" {
				data.PlayerScriptURL = absoluteURL(js)
			}
			return true
		})
		if !found {
			return jsonData{}, errs.New(errs.CodeProtocolViolation, errs.SeverityFault, "No player response in watch page result.")
		}
		return data, nil
	}

	data := jsonData{PlayerResponse: doc}
	if pr := doc.Get("playerResponse"); pr.IsObject() {
		data.PlayerResponse = pr
	}
	if js := doc.Get("player.assets.js").String(); js != "" {
		data.PlayerScriptURL = absoluteURL(js)
	}
	return data, nil
}

func absoluteURL(u string) string {
	switch {
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "/"):
		return innertube.DefaultBaseURL + u
	default:
		return u
	}
}
