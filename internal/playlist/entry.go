// Package playlist holds the playlist data shared by the player and the
// remote server connection.
package playlist

import "time"

// Entry is a single playlist item assigned by the server.
type Entry struct {
	ID          int       `json:"id"`
	Song        Song      `json:"song"`
	Owner       User      `json:"owner"`
	DateCreated time.Time `json:"date_created"`
}

// Song is the karaoke media of an entry.
type Song struct {
	Title    string     `json:"title"`
	FilePath string     `json:"file_path"`
	Duration int        `json:"duration"` // seconds
	Artists  []Artist   `json:"artists"`
	Works    []SongWork `json:"works"`
	Tags     []Tag      `json:"tags"`
}

type Artist struct {
	Name string `json:"name"`
}

type Tag struct {
	Name  string `json:"name"`
	Color int    `json:"color_hue"`
}

type User struct {
	Username string `json:"username"`
}

// SongWork links a song to the work it comes from.
type SongWork struct {
	Work           Work   `json:"work"`
	LinkType       string `json:"link_type"` // OP, ED, IN or IS
	LinkTypeNumber int    `json:"link_type_number"`
	Episodes       string `json:"episodes"`
}

type Work struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	WorkType WorkType `json:"work_type"`
}

type WorkType struct {
	Name     string `json:"name"`
	IconName string `json:"icon_name"`
}

var linkTypeNames = map[string]string{
	"OP": "Opening",
	"ED": "Ending",
	"IN": "Insert song",
	"IS": "Image song",
}

// LinkTypeName returns the long name of a link type code.
// Unknown codes are returned as is.
func LinkTypeName(code string) string {
	if name, ok := linkTypeNames[code]; ok {
		return name
	}
	return code
}

// Status is a snapshot of what the player is doing.
// PlaylistEntryID is 0 when no entry is playing.
type Status struct {
	PlaylistEntryID int  `json:"playlist_entry_id"`
	Timing          int  `json:"timing"`
	Paused          bool `json:"paused"`
	InTransition    bool `json:"in_transition"`
}
