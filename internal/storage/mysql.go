package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/catalog"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/config"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// MySQLStore holds the editable question bank and trait profiles
type MySQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMySQLStore(cfg config.MySQLConfig, log *zap.Logger) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: newGormLogger(log, logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return newMySQLStore(db, log)
}

func newMySQLStore(db *gorm.DB, log *zap.Logger) (*MySQLStore, error) {
	if err := db.AutoMigrate(&models.QuestionRecord{}, &models.OptionRecord{}, &models.TraitRecord{}); err != nil {
		return nil, fmt.Errorf("migrate catalog tables: %w", err)
	}
	return &MySQLStore{db: db, logger: log.Named("mysql")}, nil
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction helper
func (s *MySQLStore) WithTx(ctx context.Context, fn func(*gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// SeedCatalog writes cat into empty tables. Tables that already hold rows are left alone.
func (s *MySQLStore) SeedCatalog(ctx context.Context, cat *catalog.Catalog) error {
	return s.WithTx(ctx, func(tx *gorm.DB) error {
		var questions int64
		if err := tx.Model(&models.QuestionRecord{}).Count(&questions).Error; err != nil {
			return err
		}
		if questions == 0 {
			for i, q := range cat.Questions() {
				if err := tx.Create(models.NewQuestionRecord(i, q)).Error; err != nil {
					return fmt.Errorf("seed question %d: %w", i, err)
				}
			}
			s.logger.Info("seeded questions", zap.Int("count", cat.QuestionCount()))
		}

		var traits int64
		if err := tx.Model(&models.TraitRecord{}).Count(&traits).Error; err != nil {
			return err
		}
		if traits == 0 {
			for code, profile := range cat.Traits() {
				if err := tx.Create(models.NewTraitRecord(code, profile)).Error; err != nil {
					return fmt.Errorf("seed traits %s: %w", code, err)
				}
			}
			s.logger.Info("seeded trait profiles", zap.Int("count", len(models.AllPersonalityTypes)))
		}
		return nil
	})
}

// LoadCatalog reads and validates the bank in position order
func (s *MySQLStore) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var questionRows []models.QuestionRecord
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("position").
		Find(&questionRows).Error
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	var traitRows []models.TraitRecord
	if err := s.db.WithContext(ctx).Find(&traitRows).Error; err != nil {
		return nil, fmt.Errorf("load traits: %w", err)
	}

	questions := make([]models.Question, 0, len(questionRows))
	for i := range questionRows {
		questions = append(questions, questionRows[i].ToQuestion())
	}
	traits := make(map[models.PersonalityType]models.TraitProfile, len(traitRows))
	for i := range traitRows {
		traits[models.PersonalityType(traitRows[i].Code)] = traitRows[i].ToProfile()
	}

	return catalog.New(traits, questions)
}
