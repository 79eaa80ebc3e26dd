package game

import (
	"sort"
	"time"
)

// PlayerView is the roster entry every participant may see.
type PlayerView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Avatar       string  `json:"avatar"`
	Color        string  `json:"color"`
	IsHost       bool    `json:"isHost"`
	IsSpectator  bool    `json:"isSpectator"`
	HasSeenRole  bool    `json:"hasSeenRole"`
	Clue         *string `json:"clue"`
	IsEliminated bool    `json:"isEliminated"`
	IsConnected  bool    `json:"isConnected"`
	// DisconnectedAt lets clients count down the reconnect grace window.
	DisconnectedAt *time.Time `json:"disconnectedAt"`
}

type EliminationView struct {
	Round      int    `json:"round"`
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

type ScoreView struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	Avatar       string `json:"avatar"`
	Score        int    `json:"score"`
	RoundsWon    int    `json:"roundsWon"`
	RoundsPlayed int    `json:"roundsPlayed"`
}

// View is the per-participant snapshot pushed after every mutation.
type View struct {
	Code               string            `json:"code"`
	Phase              Phase             `json:"phase"`
	Mode               Mode              `json:"mode"`
	Players            []PlayerView      `json:"players"`
	SpectatorCount     int               `json:"spectatorCount"`
	SecretWord         string            `json:"secretWord,omitempty"`
	WordCategory       string            `json:"wordCategory,omitempty"`
	IsImpostor         bool              `json:"isImpostor"`
	IsSpectator        bool              `json:"isSpectator"`
	ImpostorID         string            `json:"impostorId,omitempty"`
	Votes              map[string]string `json:"votes"`
	Round              int               `json:"round"`
	TurnIndex          int               `json:"turnIndex"`
	TurnDeadline       *time.Time        `json:"turnDeadline"`
	ImpostorGuess      string            `json:"impostorGuess,omitempty"`
	ImpostorGuessRight *bool             `json:"impostorGuessCorrect"`
	GuessDeadline      *time.Time        `json:"guessDeadline"`
	PlayerID           string            `json:"playerId"`
	IsHost             bool              `json:"isHost"`
	HostName           string            `json:"hostName"`
	Settings           Settings          `json:"settings"`
	EliminationHistory []EliminationView `json:"eliminationHistory"`
	LastEliminatedID   string            `json:"lastEliminatedId,omitempty"`
	Messages           []ChatMessage     `json:"messages"`
	DiscussionDeadline *time.Time        `json:"discussionDeadline"`
	SessionScores      []ScoreView       `json:"sessionScores"`
	LastRoundDeltas    []ScoreDelta      `json:"lastRoundDeltas"`
}

// Project derives the information-filtered snapshot for one participant:
// the impostor and spectators don't see the word before results, roles stay
// hidden until the guess/results phases, and anonymous voting masks targets.
func (g *Game) Project(playerID string) View {
	me := g.Player(playerID)
	isHost := me != nil && me.IsHost
	isSpectator := me != nil && me.IsSpectator
	isImpostor := !isSpectator && g.ImpostorID != "" && g.ImpostorID == playerID

	word := g.SecretWord
	if g.Phase != PhaseResults && (isSpectator || isImpostor) {
		word = ""
	}

	impostorID := ""
	switch g.Phase {
	case PhaseResults, PhaseImpostorGuess, PhaseEliminationResults:
		impostorID = g.ImpostorID
	}

	guess := ""
	var guessRight *bool
	if g.Phase == PhaseResults {
		guess = g.ImpostorGuess
		guessRight = g.ImpostorGuessCorrect
	}

	players := make([]PlayerView, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, PlayerView{
			ID:             p.ID,
			Name:           p.Name,
			Avatar:         p.Avatar,
			Color:          p.Color,
			IsHost:         p.IsHost,
			IsSpectator:    p.IsSpectator,
			HasSeenRole:    p.HasSeenRole,
			Clue:           p.Clue,
			IsEliminated:   p.IsEliminated,
			IsConnected:    p.Connected(),
			DisconnectedAt: p.DisconnectedAt,
		})
	}

	hostName := ""
	if h := g.Host(); h != nil {
		hostName = h.Name
	}

	elims := make([]EliminationView, 0, len(g.EliminationHistory))
	for _, e := range g.EliminationHistory {
		name := "?"
		if p := g.Player(e.PlayerID); p != nil {
			name = p.Name
		}
		elims = append(elims, EliminationView{Round: e.Round, PlayerName: name, PlayerID: e.PlayerID})
	}

	var messages []ChatMessage
	var discussionDeadline *time.Time
	if g.Phase == PhaseDiscussion {
		messages = g.Messages
		discussionDeadline = g.DiscussionDeadline
	}

	scores := make([]ScoreView, 0, len(g.SessionScores))
	for _, s := range g.SessionScores {
		scores = append(scores, ScoreView{
			PlayerID:     s.PlayerID,
			PlayerName:   s.PlayerName,
			Avatar:       s.Avatar,
			Score:        s.Score,
			RoundsWon:    s.RoundsWon,
			RoundsPlayed: s.RoundsPlayed,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].PlayerName < scores[j].PlayerName
	})

	return View{
		Code:               g.Code,
		Phase:              g.Phase,
		Mode:               g.Mode,
		Players:            players,
		SpectatorCount:     g.SpectatorCount(),
		SecretWord:         word,
		WordCategory:       g.WordCategory,
		IsImpostor:         isImpostor,
		IsSpectator:        isSpectator,
		ImpostorID:         impostorID,
		Votes:              g.visibleVotes(playerID),
		Round:              g.Round,
		TurnIndex:          g.TurnIndex,
		TurnDeadline:       g.TurnDeadline,
		ImpostorGuess:      guess,
		ImpostorGuessRight: guessRight,
		GuessDeadline:      g.GuessDeadline,
		PlayerID:           playerID,
		IsHost:             isHost,
		HostName:           hostName,
		Settings:           g.Settings,
		EliminationHistory: elims,
		LastEliminatedID:   g.LastEliminatedID,
		Messages:           messages,
		DiscussionDeadline: discussionDeadline,
		SessionScores:      scores,
		LastRoundDeltas:    g.LastRoundDeltas,
	}
}

// visibleVotes decides how much of the vote map a participant may see. Full
// targets show in the terminal phases or under public voting; otherwise a
// voter sees their own choice and only a sentinel for everyone else.
func (g *Game) visibleVotes(playerID string) map[string]string {
	switch g.Phase {
	case PhaseResults, PhaseImpostorGuess, PhaseEliminationResults:
		return g.Votes
	case PhaseVoting:
		if g.Settings.VotingStyle == VotingPublic {
			return g.Votes
		}
	}

	masked := make(map[string]string, len(g.Votes))
	for voter, target := range g.Votes {
		if voter == playerID {
			masked[voter] = target
		} else {
			masked[voter] = VotedSentinel
		}
	}
	return masked
}
