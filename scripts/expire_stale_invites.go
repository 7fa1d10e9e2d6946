package main

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Invite struct {
	ID        uint      `gorm:"primaryKey"`
	ProjectID uint      `gorm:"not null"`
	Email     string    `gorm:"size:255;not null"`
	Status    string    `gorm:"size:20;default:pending"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (Invite) TableName() string {
	return "invites"
}

// One-off backfill: marks pending invites whose deadline already passed as
// expired. The server does this lazily on access and hourly via the
// sweeper; run this after restoring an old database dump.
func main() {
	db, err := gorm.Open(sqlite.Open("qatrace.db"), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	fmt.Println("Connected to database successfully!")
	fmt.Println("")

	var stale []Invite
	if err := db.Where("status = ? AND expires_at <= ?", "pending", time.Now()).Find(&stale).Error; err != nil {
		log.Fatalf("Failed to query invites: %v", err)
	}

	fmt.Println("Stale pending invites:")
	for _, inv := range stale {
		fmt.Printf("  ID=%d Project=%d Email=%s ExpiresAt=%s\n",
			inv.ID, inv.ProjectID, inv.Email, inv.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println("")

	result := db.Model(&Invite{}).
		Where("status = ? AND expires_at <= ?", "pending", time.Now()).
		Update("status", "expired")
	if result.Error != nil {
		log.Fatalf("Failed to update invites: %v", result.Error)
	}

	fmt.Printf("Marked %d invites as expired\n", result.RowsAffected)
}
