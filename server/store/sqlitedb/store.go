// Package sqlitedb is the embedded backend: an encrypted sqlite file,
// for dev mode and self-contained parish installs that don't use the
// hosted service.
package sqlitedb

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/models"
	"github.com/pastoralsj/registro/server/store"
	"github.com/pastoralsj/registro/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const dbName = "registro.db"

var orderableColumns = map[string]bool{
	"full_name":  true,
	"login":      true,
	"sector":     true,
	"role":       true,
	"join_date":  true,
	"created_at": true,
}

type Store struct {
	db *gorm.DB
}

func New(passPhrase, rootDir string, seedDevData bool) (*Store, error) {
	dsn, err := dbDSN(passPhrase, rootDir)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.Member{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %v", err)
	}

	s := &Store{db: db}
	if seedDevData {
		s.populateDBWithSeedData()
	}

	return s, nil
}

func (s *Store) ListAll(ctx context.Context, orderBy string) ([]models.Member, error) {
	if !orderableColumns[orderBy] {
		orderBy = "full_name"
	}

	members := []models.Member{}
	err := s.db.WithContext(ctx).Order(orderBy).Find(&members).Error
	if err != nil {
		return nil, classify(err)
	}

	return members, nil
}

func (s *Store) Find(ctx context.Context, filter store.Filter) ([]models.Member, error) {
	query := s.db.WithContext(ctx)

	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}

	if filter.Login != nil {
		query = query.Where("login = ?", models.NormalizeLogin(*filter.Login))
	}

	if filter.BornOn != nil {
		start, end := filter.BornOn.UTCDayBounds()
		query = query.Where("birth_date >= ? AND birth_date < ?", start, end)
	}

	members := []models.Member{}
	if err := query.Find(&members).Error; err != nil {
		return nil, classify(err)
	}

	return members, nil
}

func (s *Store) Insert(ctx context.Context, member *models.Member) error {
	return classify(s.db.WithContext(ctx).Create(member).Error)
}

func (s *Store) Upsert(ctx context.Context, member *models.Member) error {
	if member.ID == 0 {
		return s.Insert(ctx, member)
	}

	result := s.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", member.ID).
		Select("*").Omit("id", "created_at").
		Updates(member)

	if result.Error != nil {
		return classify(result.Error)
	}

	if result.RowsAffected == 0 {
		return errors.Wrapf(store.ErrNotFound, "no record with id %d", member.ID)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id uint) error {
	return classify(s.db.WithContext(ctx).Delete(&models.Member{}, id).Error)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// classify maps gorm/sqlite failures into the store taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(store.ErrNotFound, err.Error())
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "constraint failed"):
		return errors.Wrap(store.ErrConstraintViolation, msg)

	case strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"):
		return errors.Wrap(store.ErrSchemaMismatch, msg)

	case strings.Contains(msg, "file is not a database"),
		strings.Contains(msg, "authorization denied"):
		return errors.Wrap(store.ErrUnauthorized, msg)
	}

	return errors.Wrap(store.ErrTransport, msg)
}

func (s *Store) populateDBWithSeedData() {
	if err := s.db.First(&models.Member{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		wedding := models.NewDate(2005, 6, 18)
		s.db.Create(&models.Member{
			Login:         "coordenacao",
			BirthDate:     models.NewDate(1980, 3, 12),
			FullName:      "Coordenação Pastoral",
			MaritalStatus: models.CASADO,
			SpouseName:    "Maria da Silva",
			WeddingDate:   &wedding,
			Phone:         "(11) 99999-0000",
			Email:         "coordenacao@paroquia.org.br",
			CEP:           "01310-930",
			Street:        "Avenida Paulista",
			Neighborhood:  "Bela Vista",
			City:          "São Paulo",
			State:         "SP",
			Parish:        "Paróquia São José",
			Community:     "Matriz",
			Sector:        "LITURGIA",
			Role:          models.COORDENADOR,
			JoinDate:      models.NewDate(2010, 1, 10),
		})
	}
}

func dbDSN(passPhrase string, rootDir string) (string, error) {
	dbDir := filepath.Join(rootDir, "db")
	if err := utils.CreateDirIfNotExist(dbDir); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		filepath.Join(dbDir, dbName),
		passPhrase,
	), nil
}
