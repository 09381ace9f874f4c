package db

import (
	"os"
	"testing"

	"github.com/tfkr-ae/trustreg/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := NewSettingsRepo(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

func intPtr(i int) *int {
	return &i
}

func testValues() []*domain.NestedValue {
	return []*domain.NestedValue{
		{
			Key:            "AA11",
			Value:          "CN=Test",
			Priority:       intPtr(3),
			AdditionalData: map[string]string{"fingerprintAlgorithm": "SHA256"},
		},
		{
			Key:            "serviceIndex",
			Value:          "https://api.example.org/v3/index.json",
			AdditionalData: map[string]string{},
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("should apply migrations on a fresh database", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		var count int
		err := repo.dbConn.Get(&count, "SELECT COUNT(*) FROM settings")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		var position int
		err = repo.dbConn.Get(&position, "SELECT COUNT(*) FROM pragma_table_info('settings') WHERE name = 'position'")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if position != 1 {
			t.Fatalf("\nwanted:\nposition column\ngot:\n%d matching columns", position)
		}
	})

	t.Run("should reopen an existing database", func(t *testing.T) {
		path := t.TempDir() + "/settings.db"

		repo, err := Open(path)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := repo.SetNestedValues("trustedSources", "feedA", testValues()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		repo.Close()

		repo, err = Open(path)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer repo.Close()

		got, err := repo.GetNestedValues("trustedSources", "feedA")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
	})
}
