package session

import (
	"math/rand"
	"strings"
	"time"

	"github.com/impostor-party/server/internal/game"
)

// Room codes alternate consonant/vowel so they stay pronounceable over voice.
const (
	codeConsonants = "BCDFGHJKLMNPRSTV"
	codeVowels     = "AEIOU"
	codeLength     = 4
)

// Registry owns the room-code table and the participant→room index. It is
// only ever touched from the coordinator loop.
type Registry struct {
	rooms       map[string]*game.Game
	playerIndex map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*game.Game),
		playerIndex: make(map[string]string),
	}
}

func (r *Registry) Len() int { return len(r.rooms) }

// GenerateCode returns an unused pronounceable code. After enough collisions
// it gives up and returns the last candidate; with a 4-char space that only
// happens when the process is hosting thousands of rooms.
func (r *Registry) GenerateCode() string {
	var code string
	for attempts := 0; attempts < 100; attempts++ {
		b := make([]byte, codeLength)
		for i := range b {
			chars := codeConsonants
			if i%2 == 1 {
				chars = codeVowels
			}
			b[i] = chars[rand.Intn(len(chars))]
		}
		code = string(b)
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}
	return code
}

// Create opens a new room with the given participant as host.
func (r *Registry) Create(playerID, connID, name, preferredAvatar string, now time.Time) *game.Game {
	g := game.New(r.GenerateCode(), playerID, connID, name, preferredAvatar, now)
	r.rooms[g.Code] = g
	r.playerIndex[playerID] = g.Code
	return g
}

func (r *Registry) Get(code string) *game.Game {
	return r.rooms[strings.ToUpper(code)]
}

// ByPlayer finds the room a participant belongs to. Falls back to a scan in
// case the index ever drifts.
func (r *Registry) ByPlayer(playerID string) *game.Game {
	if code, ok := r.playerIndex[playerID]; ok {
		if g := r.rooms[code]; g != nil {
			return g
		}
	}
	for _, g := range r.rooms {
		if g.Player(playerID) != nil {
			return g
		}
	}
	return nil
}

// Join seats a participant as a player and indexes them on success.
func (r *Registry) Join(code, playerID, connID, name, preferredAvatar string) (*game.Game, error) {
	g := r.Get(code)
	if g == nil {
		return nil, game.ErrRoomNotFound
	}
	if err := g.AddPlayer(playerID, connID, name, preferredAvatar); err != nil {
		return nil, err
	}
	r.playerIndex[playerID] = g.Code
	return g, nil
}

// Watch seats a participant as a spectator; allowed in any phase.
func (r *Registry) Watch(code, playerID, connID, name, preferredAvatar string) (*game.Game, error) {
	g := r.Get(code)
	if g == nil {
		return nil, game.ErrRoomNotFound
	}
	if err := g.AddSpectator(playerID, connID, name, preferredAvatar); err != nil {
		return nil, err
	}
	r.playerIndex[playerID] = g.Code
	return g, nil
}

// Remove vacates a participant's seat and keeps the index consistent. The
// room itself stays registered unless it emptied; the caller tears it down.
func (r *Registry) Remove(playerID string) (*game.Game, game.RemoveResult, []game.Effect) {
	g := r.ByPlayer(playerID)
	delete(r.playerIndex, playerID)
	if g == nil {
		return nil, game.RemoveResult{}, nil
	}
	res, effects := g.RemovePlayer(playerID)
	if res.RoomEmpty {
		delete(r.rooms, g.Code)
	}
	return g, res, effects
}

// Delete tears a room out of both tables.
func (r *Registry) Delete(code string) {
	g := r.rooms[code]
	if g == nil {
		return
	}
	for _, p := range g.Players {
		delete(r.playerIndex, p.ID)
	}
	delete(r.rooms, code)
}
