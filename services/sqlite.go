package services

import (
	"errors"
	"os"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/promptforge-labs/forge_api/model"
)

type SqliteService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const SQLITE_SVC = "sqlite_svc"

// Id returns Service ID
func (ds SqliteService) Id() string {
	return SQLITE_SVC
}

// Db Access to raw SqliteService db
func (ds SqliteService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *SqliteService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DB_DATABASE")
	if ds.database == "" {
		// shared cache keeps the in-memory db alive across pooled connections
		ds.database = "file::memory:?cache=shared"
	}

	return ds.DefaultService.Configure(ctx)
}

// Start the service and open connection to the database
// Migrate any tables that have changed since last runtime
func (ds *SqliteService) Start() (err error) {
	ds.db, err = gorm.Open(sqlite.Open(ds.database), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return err
	}

	err = ds.db.AutoMigrate(&model.Prompt{})
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *SqliteService) Shutdown() {
}

// GetPrompt returns (nil, nil) when no prompt with the given id exists.
func (ds *SqliteService) GetPrompt(id string) (*model.Prompt, error) {
	var prompt model.Prompt
	err := ds.db.First(&prompt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (ds *SqliteService) ListPrompts() ([]model.Prompt, error) {
	var prompts []model.Prompt
	err := ds.db.Order("created_at DESC").Find(&prompts).Error
	return prompts, err
}

func (ds *SqliteService) SavePrompt(prompt *model.Prompt) error {
	return ds.db.Create(prompt).Error
}

func (ds *SqliteService) UpdatePrompt(prompt *model.Prompt) error {
	return ds.db.Save(prompt).Error
}

// DeletePrompt reports whether a row was actually removed.
func (ds *SqliteService) DeletePrompt(id string) (bool, error) {
	res := ds.db.Delete(&model.Prompt{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
