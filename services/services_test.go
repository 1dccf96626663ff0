package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ilask/weather-data/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	return db
}

type fakeNotifier struct {
	enabled  bool
	err      error
	subjects []string
	bodies   []string
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) Send(subject, body string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return f.err
}

type fakeStorage struct {
	enabled bool
	err     error
	keys    []string
	bodies  [][]byte
}

func (f *fakeStorage) Enabled() bool { return f.enabled }

func (f *fakeStorage) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	return "https://storage.test/" + key, nil
}

type fakeTextGenerator struct {
	enabled bool
	err     error
	output  string
	prompts []string
}

func (f *fakeTextGenerator) Enabled() bool { return f.enabled }

func (f *fakeTextGenerator) Generate(_, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}
