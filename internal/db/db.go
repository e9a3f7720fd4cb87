package db

import (
	"context"

	"commentd/pkg/logger"
	"commentd/pkg/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBOptions func(*gorm.DB) error

// NewDB opens a PostgreSQL connection and migrates the given models.
func NewDB(ctx context.Context, dsn string, models []interface{}, opts ...DBOptions) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "DB initialization canceled")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to connect to Database", err.Error())
	}

	for _, opt := range opts {
		if err := opt(db); err != nil {
			return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to apply DB Options", err.Error())
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to Migrate models", err.Error())
	}

	return db, nil
}

// CloseDB releases the underlying connection pool.
func CloseDB(db *gorm.DB, log *logger.Logger) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Error(context.Background()).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to get DB handle for closing")
		return utils.NewError(utils.ErrInternalServerError.Code, "Failed to close database", err.Error())
	}

	if err := sqlDB.Close(); err != nil {
		log.Error(context.Background()).WithMeta(utils.Map{"error": err.Error()}).Logs("PostgreSQL database close failed")
		return utils.NewError(utils.ErrInternalServerError.Code, "Failed to close database", err.Error())
	}
	log.Info(context.Background()).Logs("PostgreSQL database connection closed")
	return nil
}
