// Package types holds the values returned by the track-details loader.
package types

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/ytget/ytdetails/youtube/formats"
)

// Format describes an available media format.
type Format = formats.Format

// TrackDetails is the outcome of loading one video. PlayerResponse is the
// player document as returned by the platform; accessors read from it.
type TrackDetails struct {
	VideoID         string
	PlayerResponse  gjson.Result
	PlayerScriptURL string
}

// VideoInfo describes video information.
type VideoInfo struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	ChannelID       string   `json:"channelId,omitempty"`
	Duration        int      `json:"lengthSeconds"`
	ViewCount       int64    `json:"viewCount"`
	IsLive          bool     `json:"isLive"`
	PlayerScriptURL string   `json:"playerScriptUrl,omitempty"`
	Formats         []Format `json:"formats,omitempty"`
}

func (d *TrackDetails) details() gjson.Result {
	return d.PlayerResponse.Get("videoDetails")
}

// Title returns videoDetails.title.
func (d *TrackDetails) Title() string {
	return d.details().Get("title").String()
}

// Author returns videoDetails.author.
func (d *TrackDetails) Author() string {
	return d.details().Get("author").String()
}

// LengthSeconds returns the duration in seconds, zero for live streams.
func (d *TrackDetails) LengthSeconds() int {
	return int(d.details().Get("lengthSeconds").Int())
}

// IsLive reports whether the video is a live stream.
func (d *TrackDetails) IsLive() bool {
	return d.details().Get("isLive").Bool()
}

// Formats lists the stream descriptors of the player response.
func (d *TrackDetails) Formats() []Format {
	return formats.Parse(d.PlayerResponse)
}

// Info flattens the details into a VideoInfo.
func (d *TrackDetails) Info() VideoInfo {
	vd := d.details()
	return VideoInfo{
		ID:              d.VideoID,
		Title:           d.Title(),
		Author:          d.Author(),
		ChannelID:       vd.Get("channelId").String(),
		Duration:        d.LengthSeconds(),
		ViewCount:       vd.Get("viewCount").Int(),
		IsLive:          d.IsLive(),
		PlayerScriptURL: d.PlayerScriptURL,
		Formats:         d.Formats(),
	}
}

// MarshalJSON implements json.Marshaler by encoding Info.
func (d *TrackDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Info())
}
