package database

import "riddlery/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Team{},
		&models.TeamMembership{},
		&models.Riddle{},
	}
}
