package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/tidwall/buntdb"
)

const (
	sessionPrefix = "session:"
	roomPrefix    = "room:"
	roomsIndex    = "rooms_created"
)

type BuntDBPersist struct {
	db  *buntdb.DB
	ttl time.Duration
}

// NewBuntPersister opens path (":memory:" for a throwaway store).
func NewBuntPersister(path string, roomTTL time.Duration) (*BuntDBPersist, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buntdb %s: %w", path, err)
	}
	if err := db.CreateIndex(roomsIndex, roomPrefix+"*", buntdb.IndexJSON("createdAt")); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &BuntDBPersist{db: db, ttl: roomTTL}, nil
}

func (p *BuntDBPersist) LoadSession(_ context.Context, id domain.SessionID) (*domain.Session, error) {
	var s domain.Session
	err := p.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(sessionPrefix + string(id))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(raw), &s)
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, fmt.Errorf("load session %s: %w", id, domain.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &s, nil
}

func (p *BuntDBPersist) SaveSession(_ context.Context, s *domain.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sessionPrefix+string(s.ID), string(raw), nil)
		return err
	})
}

func (p *BuntDBPersist) LoadRoom(_ context.Context, id domain.RoomID) (domain.RoomRecord, error) {
	var r domain.RoomRecord
	err := p.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(roomPrefix + string(id))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(raw), &r)
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return r, fmt.Errorf("load room %s: %w", id, domain.ErrRoomNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("load room %s: %w", id, err)
	}
	return r, nil
}

// SaveRoom stores the room document; it expires one TTL after creation.
func (p *BuntDBPersist) SaveRoom(_ context.Context, r domain.RoomRecord) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var opts *buntdb.SetOptions
	if p.ttl > 0 {
		left := time.Until(r.CreatedAt.Add(p.ttl))
		if left <= 0 {
			left = time.Second
		}
		opts = &buntdb.SetOptions{Expires: true, TTL: left}
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(roomPrefix+string(r.ID), string(raw), opts)
		return err
	})
}

// ListRooms returns stored rooms oldest first.
func (p *BuntDBPersist) ListRooms(_ context.Context) ([]domain.RoomRecord, error) {
	out := make([]domain.RoomRecord, 0)
	err := p.db.View(func(tx *buntdb.Tx) error {
		var derr error
		err := tx.Ascend(roomsIndex, func(_, value string) bool {
			var r domain.RoomRecord
			if derr = json.Unmarshal([]byte(value), &r); derr != nil {
				return false
			}
			out = append(out, r)
			return true
		})
		if err != nil {
			return err
		}
		return derr
	})
	return out, err
}

func (p *BuntDBPersist) Close() error {
	return p.db.Close()
}
