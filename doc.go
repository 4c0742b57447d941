// Package ytdetails loads playable-track details for YouTube videos.
//
// Features:
//   - Player response with playability checks and a single content verification retry
//   - Player script URL discovery, cached for ten minutes and optionally shared through Redis
//   - Format listing and selection without stream URL assembly
package ytdetails
