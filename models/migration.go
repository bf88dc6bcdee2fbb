package models

import (
	"github.com/lumeray/royalty_backend/config"
	"github.com/sirupsen/logrus"
)

// MigrateTable runs AutoMigrate for every persisted model.
// Can be skipped on startup with SKIP_MIGRATIONS=true and run as a
// separate job instead (DDL can block tables under load).
func MigrateTable() {
	db := config.GetDB()
	logger := config.GetLogger()

	err := db.AutoMigrate(
		&User{},
		&Release{},
		&FinancialUploadJob{},
		&JobChunk{},
		&FinancialReport{},
	)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"field": "migration",
		}).Panic(err.Error())
	}
}
