package scheduler

import (
	"log"
	"time"

	"backend/database"

	"gorm.io/gorm"
)

// Task represents a scheduled task
type Task struct {
	Name        string
	Description string
	Schedule    string
	Enabled     bool
	Handler     func() error
}

// DataMaintenanceTasks returns tasks related to data maintenance.
// Tokens are deliberately NOT refreshed here; refresh happens lazily on
// read so a token nobody asks for is never kept warm.
func DataMaintenanceTasks(DB *gorm.DB) []Task {
	return []Task{
		{
			Name:        "prune_old_sessions",
			Description: "Remove expired sessions",
			Schedule:    "0 4 * * *", // 4 AM every day
			Enabled:     true,
			Handler: func() error {
				result := DB.Where("expiry < ?", time.Now()).Delete(&database.Session{})
				if result.Error != nil {
					return result.Error
				}
				log.Printf("Pruned %d expired sessions", result.RowsAffected)
				return nil
			},
		},
	}
}
