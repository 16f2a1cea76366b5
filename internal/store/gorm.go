package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRow struct {
	ID              string `gorm:"primaryKey"`
	Host            string `gorm:"index"`
	Title           string
	IsBeingRecorded bool
	IsSessionClosed bool
	ActualStartTime *time.Time
	RecordingURL    string
	Attendees       datatypes.JSONSlice[domain.Attendee]
	UpdatedAt       time.Time
}

func (sessionRow) TableName() string { return "live_sessions" }

type roomRow struct {
	ID           string `gorm:"primaryKey"`
	SessionID    string `gorm:"index"`
	Host         string
	Participants datatypes.JSONSlice[domain.UserID]
	IsActive     bool
	CreatedAt    time.Time `gorm:"index"`
	ExpiresAt    time.Time `gorm:"index"`
}

func (roomRow) TableName() string { return "live_rooms" }

type GormPersist struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewGormPersister(kind, dsn string, roomTTL time.Duration) (*GormPersist, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s persistence needs a dsn", kind)
	}
	var dial gorm.Dialector
	switch kind {
	case "postgres":
		dial = postgres.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("invalid gorm configuration %q", kind)
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}
	if err := db.AutoMigrate(&sessionRow{}, &roomRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormPersist{db: db, ttl: roomTTL}, nil
}

func (p *GormPersist) LoadSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var row sessionRow
	err := p.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load session %s: %w", id, domain.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &domain.Session{
		ID:              domain.SessionID(row.ID),
		Host:            domain.UserID(row.Host),
		Title:           row.Title,
		IsBeingRecorded: row.IsBeingRecorded,
		IsSessionClosed: row.IsSessionClosed,
		ActualStartTime: row.ActualStartTime,
		RecordingURL:    row.RecordingURL,
		Attendees:       []domain.Attendee(row.Attendees),
	}, nil
}

func (p *GormPersist) SaveSession(ctx context.Context, s *domain.Session) error {
	row := sessionRow{
		ID:              string(s.ID),
		Host:            string(s.Host),
		Title:           s.Title,
		IsBeingRecorded: s.IsBeingRecorded,
		IsSessionClosed: s.IsSessionClosed,
		ActualStartTime: s.ActualStartTime,
		RecordingURL:    s.RecordingURL,
		Attendees:       datatypes.NewJSONSlice(s.Attendees),
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// LoadRoom hides rooms past their TTL the same way the document store expires them.
func (p *GormPersist) LoadRoom(ctx context.Context, id domain.RoomID) (domain.RoomRecord, error) {
	var row roomRow
	err := p.db.WithContext(ctx).Where("expires_at > ?", time.Now()).First(&row, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RoomRecord{}, fmt.Errorf("load room %s: %w", id, domain.ErrRoomNotFound)
	}
	if err != nil {
		return domain.RoomRecord{}, fmt.Errorf("load room %s: %w", id, err)
	}
	return row.record(), nil
}

func (p *GormPersist) SaveRoom(ctx context.Context, r domain.RoomRecord) error {
	row := roomRow{
		ID:           string(r.ID),
		SessionID:    string(r.Session),
		Host:         string(r.Host),
		Participants: datatypes.NewJSONSlice(r.Participants),
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.CreatedAt.Add(p.ttl),
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (p *GormPersist) ListRooms(ctx context.Context) ([]domain.RoomRecord, error) {
	rows := make([]roomRow, 0)
	err := p.db.WithContext(ctx).Where("expires_at > ?", time.Now()).Order("created_at").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.RoomRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (p *GormPersist) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (row roomRow) record() domain.RoomRecord {
	return domain.RoomRecord{
		ID:           domain.RoomID(row.ID),
		Session:      domain.SessionID(row.SessionID),
		Host:         domain.UserID(row.Host),
		Participants: []domain.UserID(row.Participants),
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
	}
}
