package models_test

import (
	"errors"
	"portfolio-site/internal/models"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := models.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if err = models.VerifyPassword(string(hash), "s3cret"); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}

	err = models.VerifyPassword(string(hash), "wrong")
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Errorf("got %v, want ErrMismatchedHashAndPassword", err)
	}
}

func TestUser_PrepareAndValidate(t *testing.T) {
	u := models.User{Username: "  admin@example.com ", Password: "pw"}
	u.Prepare()
	if u.Username != "admin@example.com" {
		t.Errorf("got username %q", u.Username)
	}
	if err := u.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	if err := (&models.User{Username: "a"}).Validate(); err == nil {
		t.Error("want error for missing password")
	}
	if err := (&models.User{Password: "a"}).Validate(); err == nil {
		t.Error("want error for missing username")
	}
}

func TestTagNamesAndIds(t *testing.T) {
	tags := []models.Tag{
		{Model: models.Model{ID: 3}, Name: "red-team"},
		{Model: models.Model{ID: 1}, Name: "web"},
	}

	if diff := cmp.Diff([]string{"red-team", "web"}, models.TagNames(tags)); diff != "" {
		t.Errorf("TagNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint{3, 1}, models.TagIds(tags)); diff != "" {
		t.Errorf("TagIds mismatch (-want +got):\n%s", diff)
	}
	if got := models.TagIds(nil); len(got) != 0 {
		t.Errorf("got %v for nil tags", got)
	}
}
