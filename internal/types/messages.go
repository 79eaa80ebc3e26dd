package types

import "github.com/impostor-party/server/internal/game"

// ClientMessage is the envelope for every client -> server action. Type
// selects the action; the other fields are its payload.
type ClientMessage struct {
	Type            string              `json:"type"`
	PlayerID        string              `json:"playerId,omitempty"` // auth only
	PlayerName      string              `json:"playerName,omitempty"`
	Code            string              `json:"code,omitempty"`
	PreferredAvatar string              `json:"preferredAvatar,omitempty"`
	Mode            string              `json:"mode,omitempty"`
	Word            string              `json:"word,omitempty"`
	Category        string              `json:"category,omitempty"`
	Clue            string              `json:"clue,omitempty"`
	Guess           string              `json:"guess,omitempty"`
	Text            string              `json:"text,omitempty"`
	VotedForID      string              `json:"votedForId,omitempty"`
	NewHostID       string              `json:"newHostId,omitempty"`
	Settings        *game.SettingsPatch `json:"settings,omitempty"`
}

// ServerMessage is the envelope for server -> client pushes.
type ServerMessage struct {
	Type  string     `json:"type"` // "game:state" | "game:error" | "game:ended"
	State *game.View `json:"state,omitempty"`
	Error string     `json:"error,omitempty"`
}
