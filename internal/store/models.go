package store

import (
	"time"

	"github.com/lib/pq"
)

// PlayerRow is a persistent player profile, keyed by the client-generated
// UUID that also identifies the player over the socket.
type PlayerRow struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	DisplayName string    `gorm:"size:30"`
	Avatar      string    `gorm:"size:10"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	LastSeenAt  time.Time `gorm:"not null"`
}

func (PlayerRow) TableName() string { return "players" }

// GameRow records one finished game.
type GameRow struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	Code         string     `gorm:"size:4;not null"`
	Mode         string     `gorm:"size:10;not null"`
	HostID       string     `gorm:"type:uuid;not null"`
	SecretWord   string     `gorm:"size:100"`
	ImpostorID   string     `gorm:"type:uuid"`
	Settings     []byte     `gorm:"type:jsonb;not null"`
	WinningTeam  string     `gorm:"size:20"`
	RoundsPlayed int        `gorm:"not null;default:0"`
	CreatedAt    time.Time  `gorm:"not null"`
	EndedAt      *time.Time `gorm:"index"`
}

func (GameRow) TableName() string { return "games" }

// GamePlayerRow is one participant's final line in a finished game.
type GamePlayerRow struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	GameID          int64          `gorm:"not null;uniqueIndex:game_players_game_id_player_id_idx"`
	PlayerID        string         `gorm:"type:uuid;not null;uniqueIndex:game_players_game_id_player_id_idx;index"`
	PlayerName      string         `gorm:"size:30;not null"`
	Avatar          string         `gorm:"size:10;not null"`
	Color           string         `gorm:"size:7;not null"`
	WasImpostor     bool           `gorm:"not null;default:false"`
	WasEliminated   bool           `gorm:"not null;default:false"`
	EliminatedRound *int
	FinalClues      pq.StringArray `gorm:"type:text[]"`
	VotedCorrectly  *bool
}

func (GamePlayerRow) TableName() string { return "game_players" }

// SessionRow tracks one room across multiple games, so the cumulative
// scoreboard survives play-again cycles.
type SessionRow struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	RoomCode    string     `gorm:"size:4;not null"`
	TotalRounds int        `gorm:"not null;default:0"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime"`
	EndedAt     *time.Time
}

func (SessionRow) TableName() string { return "sessions" }

// SessionScoreRow is one player's cumulative line on a session scoreboard.
type SessionScoreRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	SessionID     int64  `gorm:"not null;uniqueIndex:session_scores_session_id_player_id_idx"`
	PlayerID      string `gorm:"type:uuid;not null;uniqueIndex:session_scores_session_id_player_id_idx"`
	PlayerName    string `gorm:"size:30;not null"`
	Score         int    `gorm:"not null;default:0"`
	RoundsWon     int    `gorm:"not null;default:0"`
	RoundsPlayed  int    `gorm:"not null;default:0"`
	ImpostorCount int    `gorm:"not null;default:0"`
}

func (SessionScoreRow) TableName() string { return "session_scores" }
