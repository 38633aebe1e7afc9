package postgres_test

import (
	"testing"

	"github.com/sagarc03/photoblog"
	"github.com/sagarc03/photoblog/database/catalogtest"
	"github.com/sagarc03/photoblog/database/postgres"
	"github.com/stretchr/testify/assert"
)

func TestRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container tests in short mode")
	}

	catalogtest.Run(t, setupTestRepo)
}

func TestNewRepo_InvalidTable(t *testing.T) {
	_, err := postgres.NewRepo(nil, photoblog.Tables{Photos: "1photos"})
	assert.Error(t, err)
}
