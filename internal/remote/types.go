package remote

import "encoding/json"

// Player status events sent to the server.
const (
	EventStartedTransition = "started_transition"
	EventStartedSong       = "started_song"
	EventCouldNotPlay      = "could_not_play"
	EventFinished          = "finished"
	EventPaused            = "paused"
	EventResumed           = "resumed"
)

// WebSocket message types.
const (
	MessageReady         = "ready"
	MessagePlaylistEntry = "playlist_entry"
	MessageIdle          = "idle"
	MessageCommand       = "command"
	MessageStatusRequest = "status_request"
)

const (
	tokenPath   = "api/token-auth/"
	statusPath  = "api/playlist/player/status/"
	errorsPath  = "api/playlist/player/errors/"
	websockPath = "ws/playlist/device/"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// statusEvent is a single player lifecycle event.
type statusEvent struct {
	Event           string `json:"event"`
	PlaylistEntryID *int   `json:"playlist_entry_id"`
	Timing          *int   `json:"timing,omitempty"`
}

// statusSnapshot is the full player status. A nil entry ID means idle.
type statusSnapshot struct {
	PlaylistEntryID *int `json:"playlist_entry_id"`
	Timing          int  `json:"timing"`
	Paused          bool `json:"paused"`
	InTransition    bool `json:"in_transition"`
}

type playerError struct {
	PlaylistEntryID int    `json:"playlist_entry_id"`
	ErrorMessage    string `json:"error_message"`
}

// Message is the WebSocket envelope in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type commandData struct {
	Command string `json:"command"`
}
