package users

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&User{}))
	return db
}

func TestCreateAndAuthenticate(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Create(db, "alice", "secret"))

	u, err := Authenticate(db, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "secret", u.Password)

	_, err = Authenticate(db, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(db, "bob", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUsernamesAreUnique(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Create(db, "alice", "a"))
	assert.Error(t, Create(db, "alice", "b"))
}

func TestEnsureAdmin(t *testing.T) {
	db := openDB(t)

	calls := 0
	pw := func() (string, error) {
		calls++
		return "hunter2", nil
	}
	require.NoError(t, EnsureAdmin(db, pw))
	require.NoError(t, EnsureAdmin(db, pw))
	assert.Equal(t, 1, calls)

	_, err := Authenticate(db, "admin", "hunter2")
	assert.NoError(t, err)
}

func TestEnsureAdminWithoutPassword(t *testing.T) {
	db := openDB(t)
	missing := errors.New("please set CATALOG_SITE_ADMIN_INITIAL_PASSWORD")

	err := EnsureAdmin(db, func() (string, error) { return "", missing })
	assert.ErrorIs(t, err, missing)

	var n int64
	require.NoError(t, db.Model(&User{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}
