package session

import (
	"context"

	"github.com/impostor-party/server/internal/game"
	"github.com/impostor-party/server/internal/types"
)

// Msg is the coordinator's inbox vocabulary. Everything that can happen to a
// session — transport events, client actions, timer expiries, async store
// replies — arrives here and is processed one at a time.
type Msg interface{ isMsg() }

// Connect registers a transport connection and its outbox.
type Connect struct {
	ConnID string
	Outbox chan types.ServerMessage
}

// Disconnect reports a transport connection going away.
type Disconnect struct{ ConnID string }

// FromClient carries one decoded client action.
type FromClient struct {
	ConnID string
	Msg    types.ClientMessage
}

// Shutdown stops the loop and closes every outbox.
type Shutdown struct{}

// Inspect is a test hook: project a room for one participant.
type Inspect struct {
	Code     string
	PlayerID string
	Reply    chan *game.View
}

// timerFired is posted by expiring timers. gen guards against a stale fire
// that was already queued when the timer got replaced or cancelled.
type timerFired struct {
	kind timerKind
	key  string // room code, or player id for grace timers
	gen  uint64
}

// sessionCreated delivers the DB session id from the async create.
type sessionCreated struct {
	code string
	id   int64
}

func (Connect) isMsg()        {}
func (Disconnect) isMsg()     {}
func (FromClient) isMsg()     {}
func (Shutdown) isMsg()       {}
func (Inspect) isMsg()        {}
func (timerFired) isMsg()     {}
func (sessionCreated) isMsg() {}

// ScoreRecord is one ledger row handed to the persistence sink.
type ScoreRecord struct {
	PlayerID      string
	PlayerName    string
	Score         int
	RoundsWon     int
	RoundsPlayed  int
	ImpostorCount int
}

// PlayerResult is one participant's final line in a persisted game.
type PlayerResult struct {
	PlayerID        string
	PlayerName      string
	Avatar          string
	Color           string
	WasImpostor     bool
	WasEliminated   bool
	EliminatedRound *int
	FinalClues      []string
	VotedCorrectly  *bool
}

// GameResult is the full outcome of a finished game, snapshotted before the
// async write so the store never reads live session state.
type GameResult struct {
	Code         string
	Mode         string
	HostID       string
	SecretWord   string
	ImpostorID   string
	Settings     game.Settings
	WinningTeam  string
	RoundsPlayed int
	CreatedAt    int64
	Players      []PlayerResult
}

// Store is the write-behind persistence sink. Implementations must tolerate
// an unavailable backend; the coordinator never blocks on these and ignores
// everything but the error for logging.
type Store interface {
	TouchPlayer(ctx context.Context, id, name, avatar string) error
	CreateSession(ctx context.Context, roomCode string) (int64, error)
	SaveSessionScores(ctx context.Context, sessionID int64, totalRounds int, scores []ScoreRecord) error
	EndSession(ctx context.Context, sessionID int64, totalRounds int) error
	SaveGameResult(ctx context.Context, res GameResult) error
}
