package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/impostor-party/server/internal/session"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not_found")

// Store is the Postgres persistence layer. All writes coming from the
// session coordinator are best-effort; the game keeps running if they fail.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(
		&PlayerRow{},
		&GameRow{},
		&GamePlayerRow{},
		&SessionRow{},
		&SessionScoreRow{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database connected and migrated")
	return &Store{db: db, log: log}, nil
}

func (s *Store) CreateSession(ctx context.Context, roomCode string) (int64, error) {
	row := SessionRow{RoomCode: roomCode}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *Store) SaveSessionScores(ctx context.Context, sessionID int64, totalRounds int, scores []session.ScoreRecord) error {
	if len(scores) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&SessionRow{}).
			Where("id = ?", sessionID).
			Update("total_rounds", totalRounds).Error; err != nil {
			return err
		}
		rows := make([]SessionScoreRow, 0, len(scores))
		for _, sc := range scores {
			rows = append(rows, SessionScoreRow{
				SessionID:     sessionID,
				PlayerID:      sc.PlayerID,
				PlayerName:    sc.PlayerName,
				Score:         sc.Score,
				RoundsWon:     sc.RoundsWon,
				RoundsPlayed:  sc.RoundsPlayed,
				ImpostorCount: sc.ImpostorCount,
			})
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"player_name", "score", "rounds_won", "rounds_played", "impostor_count",
			}),
		}).Create(&rows).Error
	})
}

func (s *Store) EndSession(ctx context.Context, sessionID int64, totalRounds int) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&SessionRow{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{"ended_at": &now, "total_rounds": totalRounds}).Error
}

func (s *Store) SaveGameResult(ctx context.Context, res session.GameResult) error {
	settings, err := json.Marshal(res.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	now := time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := GameRow{
			Code:         res.Code,
			Mode:         res.Mode,
			HostID:       res.HostID,
			SecretWord:   res.SecretWord,
			ImpostorID:   res.ImpostorID,
			Settings:     settings,
			WinningTeam:  res.WinningTeam,
			RoundsPlayed: res.RoundsPlayed,
			CreatedAt:    time.UnixMilli(res.CreatedAt),
			EndedAt:      &now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(res.Players) == 0 {
			return nil
		}
		lines := make([]GamePlayerRow, 0, len(res.Players))
		for _, p := range res.Players {
			lines = append(lines, GamePlayerRow{
				GameID:          row.ID,
				PlayerID:        p.PlayerID,
				PlayerName:      p.PlayerName,
				Avatar:          p.Avatar,
				Color:           p.Color,
				WasImpostor:     p.WasImpostor,
				WasEliminated:   p.WasEliminated,
				EliminatedRound: p.EliminatedRound,
				FinalClues:      p.FinalClues,
				VotedCorrectly:  p.VotedCorrectly,
			})
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("game persisted",
		zap.String("code", res.Code),
		zap.String("winner", res.WinningTeam),
		zap.Int("players", len(res.Players)))
	return nil
}

// Profile is the REST representation of a player row.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

func toProfile(row PlayerRow) Profile {
	return Profile{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		Avatar:      row.Avatar,
		CreatedAt:   row.CreatedAt,
		LastSeenAt:  row.LastSeenAt,
	}
}

func (s *Store) GetPlayer(ctx context.Context, id string) (Profile, error) {
	var row PlayerRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return toProfile(row), nil
}

// ProfilePatch carries the updatable profile fields; nil means unchanged.
type ProfilePatch struct {
	DisplayName *string `json:"displayName"`
	Avatar      *string `json:"avatar"`
}

func (s *Store) UpdatePlayer(ctx context.Context, id string, patch ProfilePatch) (Profile, error) {
	updates := map[string]any{"last_seen_at": time.Now()}
	if patch.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Avatar != nil {
		updates["avatar"] = *patch.Avatar
	}

	res := s.db.WithContext(ctx).Model(&PlayerRow{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return Profile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Profile{}, ErrNotFound
	}
	return s.GetPlayer(ctx, id)
}

// TouchPlayer upserts the profile row when a player authenticates, keeping
// game_players and session_scores referentially sound.
func (s *Store) TouchPlayer(ctx context.Context, id, name, avatar string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{"last_seen_at": now}),
	}).Create(&PlayerRow{
		ID:          id,
		DisplayName: name,
		Avatar:      avatar,
		LastSeenAt:  now,
	}).Error
}
