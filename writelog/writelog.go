// Package writelog records backend writes that failed so an operator can see
// what the console could not persist.
package writelog

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-site/backend"
)

type WriteFailure struct {
	gorm.Model
	Method     string
	Path       string
	AuthorID   int `gorm:"index"`
	StatusCode int
	Error      string
	RequestID  string
	UserID     uint
}

var log = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "writelog",
	})
	return nil
}

// Record stores err if it is a backend write failure and reports whether it
// did. Other errors are ignored.
func Record(db *gorm.DB, err error, requestID string, userID uint) (bool, error) {
	var werr *backend.WriteError
	if !errors.As(err, &werr) {
		return false, nil
	}

	wf := WriteFailure{
		Method:     werr.Method,
		Path:       werr.Path,
		AuthorID:   werr.AuthorID,
		StatusCode: werr.StatusCode,
		RequestID:  requestID,
		UserID:     userID,
	}
	if werr.Err != nil {
		wf.Error = werr.Err.Error()
	}
	if err := db.Create(&wf).Error; err != nil {
		log.WithError(err).Error("couldn't record write failure")
		return false, err
	}
	return true, nil
}

// Recent returns up to limit failures, newest first.
func Recent(db *gorm.DB, limit int) ([]WriteFailure, error) {
	var out []WriteFailure
	err := db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOlderThan permanently removes failures recorded before cutoff.
func DeleteOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Unscoped().Where("created_at < ?", cutoff).Delete(&WriteFailure{})
	return res.RowsAffected, res.Error
}
