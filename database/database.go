package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var db *gorm.DB
var log = logrus.NewEntry(logrus.StandardLogger())

func Init(d *gorm.DB, logger *logrus.Logger) error {
	db = d
	log = logger.WithFields(logrus.Fields{
		"component": "database",
	})
	return nil
}

func Fini() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("couldn't retrieve database handle")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("couldn't close database")
	}
}

func Get() *gorm.DB {
	if db == nil {
		panic("didn't call database.Init(...)")
	}
	return db
}

// Vacuum reclaims space left by deleted rows.
func Vacuum() error {
	log.Debugln("VACUUM")
	return Get().Exec("VACUUM").Error
}
