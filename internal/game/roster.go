package game

import (
	"time"

	"github.com/impostor-party/server/internal/content"
)

// AddPlayer seats a new participant. Joining as a player is lobby-only;
// spectating (AddSpectator) works in any phase.
func (g *Game) AddPlayer(id, connID, name, preferredAvatar string) error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	return g.seat(id, connID, name, preferredAvatar, false)
}

func (g *Game) AddSpectator(id, connID, name, preferredAvatar string) error {
	return g.seat(id, connID, name, preferredAvatar, true)
}

func (g *Game) seat(id, connID, name, preferredAvatar string, spectator bool) error {
	if g.nameTaken(name) {
		return ErrNameTaken
	}
	if len(g.Players) >= MaxPlayers {
		return ErrRoomFull
	}
	g.Players = append(g.Players, &Player{
		ID:          id,
		ConnID:      connID,
		Name:        name,
		Avatar:      g.pickAvatar(preferredAvatar),
		Color:       content.Colors[(len(g.Players))%len(content.Colors)],
		IsSpectator: spectator,
	})
	return nil
}

// ConvertToPlayer promotes a spectator to a player while still in the lobby.
func (g *Game) ConvertToPlayer(id string) error {
	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	p := g.Player(id)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.IsSpectator {
		return ErrAlreadyPlayer
	}
	if len(g.NonSpectators()) >= MaxPlayers {
		return ErrRoomFull
	}
	p.IsSpectator = false
	return nil
}

// Disconnect marks a seat as lost without vacating it; the grace timer
// decides whether the participant actually leaves.
func (g *Game) Disconnect(id string, now time.Time) bool {
	p := g.Player(id)
	if p == nil {
		return false
	}
	p.ConnID = ""
	ts := now
	p.DisconnectedAt = &ts
	return true
}

// Reconnect restores a participant's transport connection with no other
// state change.
func (g *Game) Reconnect(id, connID string) bool {
	p := g.Player(id)
	if p == nil {
		return false
	}
	p.ConnID = connID
	p.DisconnectedAt = nil
	return true
}

// RemoveResult describes the fallout of a roster removal.
type RemoveResult struct {
	Removed       bool
	RoomEmpty     bool
	ForcedResults bool
	HostChanged   bool
}

// RemovePlayer vacates a seat, by explicit leave or grace expiry. A departing
// impostor or a roster dropping below the playable minimum forfeits the round
// straight to results.
func (g *Game) RemovePlayer(id string) (RemoveResult, []Effect) {
	idx := -1
	for i, p := range g.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return RemoveResult{}, nil
	}

	leaving := g.Players[idx]
	wasHost := leaving.IsHost
	wasImpostor := leaving.ID == g.ImpostorID
	wasSpectator := leaving.IsSpectator
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	res := RemoveResult{Removed: true}
	if len(g.Players) == 0 {
		res.RoomEmpty = true
		return res, nil
	}
	if wasSpectator {
		return res, nil
	}

	if wasHost {
		next := g.Players[0]
		for _, p := range g.Players {
			if !p.IsSpectator {
				next = p
				break
			}
		}
		next.IsHost = true
		g.HostID = next.ID
		res.HostChanged = true
	}

	midGame := g.Phase != PhaseLobby && g.Phase != PhaseResults

	if wasImpostor && midGame {
		g.Phase = PhaseResults
		res.ForcedResults = true
		effects := []Effect{EffCancelTurnTimer, EffCancelGuessTimer, EffCancelDiscussionTimer}
		return res, append(effects, g.finalizeResults()...)
	}

	playable := g.NonSpectators()
	if g.Settings.Elimination {
		playable = g.ActivePlayers()
	}
	if len(playable) < MinPlayers && midGame {
		g.Phase = PhaseResults
		res.ForcedResults = true
		effects := []Effect{EffCancelTurnTimer, EffCancelGuessTimer, EffCancelDiscussionTimer}
		return res, append(effects, g.finalizeResults()...)
	}

	// Keep the turn cursor inside the shrunken roster.
	if g.Phase == PhaseClues && g.TurnIndex >= len(g.ActivePlayers()) {
		g.TurnIndex = 0
	}
	return res, nil
}
