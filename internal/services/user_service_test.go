package services

import (
	"testing"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := NewUserService(db)

	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := svc.CreateUser("New@Example.com", "supersecret", "New", "User")
		testutil.AssertNoError(t, err)

		if user.Email != "new@example.com" {
			t.Errorf("email = %s, want lowercased", user.Email)
		}
		if user.Password == "supersecret" {
			t.Error("password stored in plaintext")
		}
		if !svc.VerifyPassword(user, "supersecret") {
			t.Error("password verification failed")
		}
		if svc.VerifyPassword(user, "wrong") {
			t.Error("wrong password verified")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.CreateUser("dup@example.com", "supersecret", "A", "B")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "supersecret", "C", "D")
		testutil.AssertAppError(t, err, apperrors.ErrDuplicateEmail.Code)
	})
}

func TestGetUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := NewUserService(db)
	user, err := svc.CreateUser("lookup@example.com", "supersecret", "Look", "Up")
	testutil.AssertNoError(t, err)

	t.Run("by email", func(t *testing.T) {
		got, err := svc.GetUserByEmail("lookup@example.com")
		testutil.AssertNoError(t, err)
		if got.ID != user.ID {
			t.Errorf("got %s, want %s", got.ID, user.ID)
		}
	})

	t.Run("by id", func(t *testing.T) {
		got, err := svc.GetUserByID(user.ID)
		testutil.AssertNoError(t, err)
		if got.Email != "lookup@example.com" {
			t.Errorf("email = %s", got.Email)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.GetUserByEmail("ghost@example.com")
		testutil.AssertAppError(t, err, apperrors.ErrUserNotFound.Code)
	})
}
