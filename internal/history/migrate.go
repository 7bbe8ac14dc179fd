package history

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the lookup history schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "history.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying lookup history schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("lookup history migration failed")
		}
		return eris.Wrap(err, "auto migrating lookup history schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("lookup history migration complete")
	}

	return nil
}
