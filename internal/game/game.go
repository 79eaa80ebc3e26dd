package game

import (
	"strings"
	"time"

	"github.com/impostor-party/server/internal/content"
)

type Phase string

const (
	PhaseLobby              Phase = "lobby"
	PhaseSetup              Phase = "setup"
	PhaseReveal             Phase = "reveal"
	PhaseClues              Phase = "clues"
	PhaseDiscussion         Phase = "discussion"
	PhaseVoting             Phase = "voting"
	PhasePlaying            Phase = "playing"
	PhaseImpostorGuess      Phase = "impostor-guess"
	PhaseEliminationResults Phase = "elimination-results"
	PhaseResults            Phase = "results"
)

type Mode string

const (
	ModeOnline Mode = "online"
	ModeLocal  Mode = "local"
)

type VotingStyle string

const (
	VotingAnonymous VotingStyle = "anonymous"
	VotingPublic    VotingStyle = "public"
)

const (
	// MaxPlayers caps the roster, spectators included.
	MaxPlayers = 15
	// MinPlayers is the non-spectator floor to start or keep a round going.
	MinPlayers = 3
	// MaxMessageLen truncates discussion chat messages.
	MaxMessageLen = 200
	// MessageInterval is the per-player chat rate limit.
	MessageInterval = 2 * time.Second
	// VotedSentinel replaces hidden vote targets during anonymous voting.
	VotedSentinel = "__voted__"
)

type Settings struct {
	Language      string      `json:"language"`
	Elimination   bool        `json:"elimination"`
	ClueTimerSec  int         `json:"clueTimer"`
	VotingStyle   VotingStyle `json:"votingStyle"`
	MaxRounds     int         `json:"maxRounds"`
	AllowSkip     bool        `json:"allowSkip"`
	DiscussionSec int         `json:"discussionTimer"`
	Theme         string      `json:"theme"`
}

func DefaultSettings() Settings {
	return Settings{
		Language:      "es",
		Elimination:   false,
		ClueTimerSec:  30,
		VotingStyle:   VotingAnonymous,
		MaxRounds:     1,
		AllowSkip:     true,
		DiscussionSec: 60,
		Theme:         "space",
	}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Language      *string      `json:"language,omitempty"`
	Elimination   *bool        `json:"elimination,omitempty"`
	ClueTimerSec  *int         `json:"clueTimer,omitempty"`
	VotingStyle   *VotingStyle `json:"votingStyle,omitempty"`
	MaxRounds     *int         `json:"maxRounds,omitempty"`
	AllowSkip     *bool        `json:"allowSkip,omitempty"`
	DiscussionSec *int         `json:"discussionTimer,omitempty"`
	Theme         *string      `json:"theme,omitempty"`
}

var validThemes = []string{"space", "medieval", "pirate", "haunted", "office"}

// Player is one seat in a session. ID is the persistent identity; ConnID is
// the current transport connection, empty while disconnected.
type Player struct {
	ID             string
	ConnID         string
	Name           string
	Avatar         string
	Color          string
	IsHost         bool
	IsSpectator    bool
	HasSeenRole    bool
	Clue           *string
	IsEliminated   bool
	DisconnectedAt *time.Time
	LastMessageAt  *time.Time
}

func (p *Player) Connected() bool { return p.ConnID != "" }

type ChatMessage struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Avatar     string    `json:"avatar"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

type Elimination struct {
	Round    int
	PlayerID string
}

// SessionScore is one participant's session-lifetime ledger entry. Created
// when a round starts, mutated only at round end, survives play-again.
type SessionScore struct {
	PlayerID      string
	PlayerName    string
	Avatar        string
	Score         int
	RoundsWon     int
	RoundsPlayed  int
	ImpostorCount int
}

type ScoreReason string

const (
	ReasonCitizensWin    ScoreReason = "citizensWin"
	ReasonVotedCorrectly ScoreReason = "votedCorrectly"
	ReasonImpostorWin    ScoreReason = "impostorWin"
	ReasonImpostorGuess  ScoreReason = "impostorGuess"
)

type ScoreDelta struct {
	PlayerID string      `json:"playerId"`
	Delta    int         `json:"delta"`
	Reason   ScoreReason `json:"reason"`
}

type Team string

const (
	TeamImpostor Team = "impostor"
	TeamCitizens Team = "citizens"
)

// Game is one session: the authoritative state for a single room. All
// mutation goes through Apply or the roster methods; nothing here is safe for
// concurrent use, the coordinator serializes access.
type Game struct {
	Code         string
	HostID       string
	Phase        Phase
	Mode         Mode
	Players      []*Player
	SecretWord   string
	WordCategory string
	ImpostorID   string

	Votes     map[string]string
	Round     int
	TurnIndex int

	TurnDeadline       *time.Time
	GuessDeadline      *time.Time
	DiscussionDeadline *time.Time

	ImpostorGuess        string
	ImpostorGuessCorrect *bool

	Settings           Settings
	EliminationHistory []Elimination
	LastEliminatedID   string
	ClueHistory        map[string][]string
	VoteHistory        []map[string]string
	Messages           []ChatMessage

	CreatedAt        time.Time
	ResultsPersisted bool
	WinningTeam      Team

	// Session-lifetime scoring. SessionID is the DB row id, nil until the
	// async create returns (or forever when no DB is configured).
	SessionID       *int64
	SessionRound    int
	SessionScores   []*SessionScore
	LastRoundDeltas []ScoreDelta
}

// New creates a session in the lobby phase with its host seated.
func New(code, hostID, connID, hostName, preferredAvatar string, now time.Time) *Game {
	avatar := content.Avatars[0]
	if preferredAvatar != "" && content.ValidAvatar(preferredAvatar) {
		avatar = preferredAvatar
	}
	return &Game{
		Code:   code,
		HostID: hostID,
		Phase:  PhaseLobby,
		Mode:   ModeOnline,
		Players: []*Player{{
			ID:     hostID,
			ConnID: connID,
			Name:   hostName,
			Avatar: avatar,
			Color:  content.Colors[0],
			IsHost: true,
		}},
		Votes:       map[string]string{},
		Round:       1,
		Settings:    DefaultSettings(),
		ClueHistory: map[string][]string{},
		CreatedAt:   now,
	}
}

// Player looks up a participant by persistent id.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) Host() *Player {
	for _, p := range g.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// NonSpectators are the actual players, eliminated or not.
func (g *Game) NonSpectators() []*Player {
	var out []*Player
	for _, p := range g.Players {
		if !p.IsSpectator {
			out = append(out, p)
		}
	}
	return out
}

// ActivePlayers is the clue/vote turn order: roster order, spectators and
// eliminated participants filtered out.
func (g *Game) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range g.Players {
		if !p.IsSpectator && !p.IsEliminated {
			out = append(out, p)
		}
	}
	return out
}

func (g *Game) SpectatorCount() int {
	n := 0
	for _, p := range g.Players {
		if p.IsSpectator {
			n++
		}
	}
	return n
}

func (g *Game) nameTaken(name string) bool {
	for _, p := range g.Players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (g *Game) pickAvatar(preferred string) string {
	used := make(map[string]bool, len(g.Players))
	for _, p := range g.Players {
		used[p.Avatar] = true
	}
	if preferred != "" && content.ValidAvatar(preferred) && !used[preferred] {
		return preferred
	}
	for _, a := range content.Avatars {
		if !used[a] {
			return a
		}
	}
	return content.Avatars[len(g.Players)%len(content.Avatars)]
}

// snapshotClues appends every submitted clue to the per-player history.
// Called right before clues are cleared so the history's last entries equal
// the pre-clear state.
func (g *Game) snapshotClues() {
	for _, p := range g.Players {
		if p.IsSpectator || p.IsEliminated || p.Clue == nil {
			continue
		}
		g.ClueHistory[p.ID] = append(g.ClueHistory[p.ID], *p.Clue)
	}
}

// snapshotVotes archives the current vote map if any votes were cast.
func (g *Game) snapshotVotes() {
	if len(g.Votes) == 0 {
		return
	}
	copied := make(map[string]string, len(g.Votes))
	for k, v := range g.Votes {
		copied[k] = v
	}
	g.VoteHistory = append(g.VoteHistory, copied)
}

// resetRound clears all per-round state. The score ledger, session round
// counter and settings survive; everything else starts over.
func (g *Game) resetRound() {
	g.SecretWord = ""
	g.WordCategory = ""
	g.ImpostorID = ""
	g.Votes = map[string]string{}
	g.Round = 1
	g.TurnIndex = 0
	g.TurnDeadline = nil
	g.ImpostorGuess = ""
	g.ImpostorGuessCorrect = nil
	g.GuessDeadline = nil
	g.EliminationHistory = nil
	g.LastEliminatedID = ""
	g.ClueHistory = map[string][]string{}
	g.VoteHistory = nil
	g.ResultsPersisted = false
	g.WinningTeam = ""
	g.Messages = nil
	g.DiscussionDeadline = nil
	g.LastRoundDeltas = nil
}
