package helper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Department is a nested test entity reached through reference navigation.
type Department struct {
	Name string
	City string
}

// Reader is the test entity most specification tests run against. Dept is a
// pointer so navigation through a missing department can be exercised.
type Reader struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Age        int
	Active     bool
	Dept       *Department
	Tags       []string
	SignedUpAt time.Time
}

// GivenUniqueID generates a unique UUID for testing.
func GivenUniqueID(t testing.TB) uuid.UUID {
	readerID, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return readerID
}

// FixtureReader creates a reader with a department, suitable as the happy-path
// candidate for navigation and filter tests.
func FixtureReader(t testing.TB, name string, age int, deptCity string) Reader {
	return Reader{
		ID:     GivenUniqueID(t),
		Name:   name,
		Email:  name + "@example.com",
		Age:    age,
		Active: true,
		Dept: &Department{
			Name: "Engineering",
			City: deptCity,
		},
		Tags:       []string{"member"},
		SignedUpAt: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

// FixtureReaderWithoutDept creates a reader whose department reference is nil,
// the candidate navigation guards exist for.
func FixtureReaderWithoutDept(t testing.TB, name string, age int) Reader {
	return Reader{
		ID:         GivenUniqueID(t),
		Name:       name,
		Email:      name + "@example.com",
		Age:        age,
		Active:     false,
		SignedUpAt: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}
