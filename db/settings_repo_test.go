package db

import (
	"reflect"
	"testing"

	"github.com/tfkr-ae/trustreg/domain"
)

func TestSettingsRepo_GetSubsections(t *testing.T) {
	t.Run("should return an empty slice for an unknown section", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		got, err := repo.GetSubsections("trustedSources")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("\nwanted:\nempty slice\ngot:\n%v", got)
		}
	})

	t.Run("should return each subsection once in write order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		for _, name := range []string{"feedB", "feedA"} {
			if err := repo.SetNestedValues("trustedSources", name, testValues()); err != nil {
				t.Fatalf("setting values for %s: %v", name, err)
			}
		}
		if err := repo.SetNestedValues("otherSection", "feedC", testValues()); err != nil {
			t.Fatalf("setting values for feedC: %v", err)
		}

		got, err := repo.GetSubsections("trustedSources")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		want := []string{"feedB", "feedA"}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want, got)
		}
	})
}

func TestSettingsRepo_NestedValues(t *testing.T) {
	t.Run("should return an empty slice for an unknown subsection", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		got, err := repo.GetNestedValues("trustedSources", "missing")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", len(got))
		}
	})

	t.Run("should round trip values in order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		want := testValues()
		if err := repo.SetNestedValues("trustedSources", "feedA", want); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetNestedValues("trustedSources", "feedA")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if !reflect.DeepEqual(want, got) {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", want, got)
		}
	})

	t.Run("should keep a missing priority absent", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.SetNestedValues("trustedSources", "feedA", testValues()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetNestedValues("trustedSources", "feedA")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got[1].Priority != nil {
			t.Fatalf("\nwanted:\nnil priority\ngot:\n%d", *got[1].Priority)
		}
		if got[1].PriorityOrDefault() != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", got[1].PriorityOrDefault())
		}
	})

	t.Run("should match subsections case-insensitively", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.SetNestedValues("trustedSources", "nuget.org", testValues()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetNestedValues("trustedSources", "NuGet.org")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
	})

	t.Run("should replace the values of a subsection", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.SetNestedValues("trustedSources", "feedA", testValues()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		want := []*domain.NestedValue{
			{Key: "BB22", Value: "CN=Other", Priority: intPtr(1), AdditionalData: map[string]string{}},
		}
		if err := repo.SetNestedValues("trustedSources", "FEEDA", want); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetNestedValues("trustedSources", "feedA")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", want, got)
		}

		names, err := repo.GetSubsections("trustedSources")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(names) != 1 {
			t.Fatalf("\nwanted:\n1 subsection\ngot:\n%v", names)
		}
	})
}

func TestSettingsRepo_DeleteSection(t *testing.T) {
	t.Run("should remove every subsection of the section only", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		for _, name := range []string{"feedA", "feedB"} {
			if err := repo.SetNestedValues("trustedSources", name, testValues()); err != nil {
				t.Fatalf("setting values for %s: %v", name, err)
			}
		}
		if err := repo.SetNestedValues("otherSection", "feedC", testValues()); err != nil {
			t.Fatalf("setting values for feedC: %v", err)
		}

		if err := repo.DeleteSection("trustedSources"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		names, err := repo.GetSubsections("trustedSources")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(names) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%v", names)
		}

		other, err := repo.GetSubsections("otherSection")
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(other) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%v", other)
		}
	})

	t.Run("should not fail on an empty section", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.DeleteSection("trustedSources"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})
}
