// Package server provides the local HTTP control API of the player.
package server

import "karaoke-player/internal/playlist"

// StatusResponse is the response of the status endpoint. PlaylistEntryID is
// null on the idle screen.
type StatusResponse struct {
	PlaylistEntryID *int `json:"playlist_entry_id"`
	Timing          int  `json:"timing"`
	Paused          bool `json:"paused"`
	InTransition    bool `json:"in_transition"`
}

func newStatusResponse(s playlist.Status) StatusResponse {
	resp := StatusResponse{
		Timing:       s.Timing,
		Paused:       s.Paused,
		InTransition: s.InTransition,
	}
	if s.PlaylistEntryID != 0 {
		id := s.PlaylistEntryID
		resp.PlaylistEntryID = &id
	}
	return resp
}

// CommandResponse is the response of the command and report endpoints.
type CommandResponse struct {
	Status  string `json:"status"`
	Command string `json:"command,omitempty"`
	Message string `json:"message,omitempty"`
}
