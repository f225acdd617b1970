package dedup

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Reservation - One accepted proof submission inside the replay window
type Reservation struct {
	ID       uint      `gorm:"primaryKey"`
	ProofKey string    `gorm:"uniqueIndex;size:64"`
	SeenAt   time.Time `gorm:"index"`
}

func (Reservation) TableName() string {
	return "proof_reservations"
}

// Guard - Content-keyed replay guard. A proof key can be reserved once
// per retention window; duplicate submissions inside the window are
// rejected before any verification or payout work happens.
type Guard struct {
	db     *gorm.DB
	window time.Duration
}

// Open - Open the reservation store. A window of 0 disables the guard:
// every Reserve call succeeds.
func Open(dsn string, window time.Duration) (*Guard, error) {
	if window == 0 {
		return &Guard{window: 0}, nil
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open reservation store: %w", err)
	}
	if err := db.AutoMigrate(&Reservation{}); err != nil {
		return nil, fmt.Errorf("migrate reservation store: %w", err)
	}
	return &Guard{db: db, window: window}, nil
}

// Reserve - Claim a proof key. Returns false when the key was already
// reserved inside the window. Expired reservations are swept lazily.
func (g *Guard) Reserve(key string) (bool, error) {
	if g.window == 0 {
		return true, nil
	}

	cutoff := time.Now().Add(-g.window)
	if err := g.db.Where("seen_at < ?", cutoff).Delete(&Reservation{}).Error; err != nil {
		return false, fmt.Errorf("sweep reservations: %w", err)
	}

	err := g.db.Create(&Reservation{ProofKey: key, SeenAt: time.Now()}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("reserve proof key: %w", err)
	}
	return true, nil
}
