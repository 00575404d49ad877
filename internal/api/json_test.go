package api_test

import (
	"portfolio-site/internal/api"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
)

func TestGenericRequest_LoadAndDecode(t *testing.T) {
	var request api.GenericRequest
	err := request.Load([]byte(`{"data":{"username":"admin@example.com","password":"pw"}}`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	var login api.LoginRequest
	if err = request.DecodeDataTo(&login); err != nil {
		t.Fatalf("DecodeDataTo error: %v", err)
	}

	want := api.LoginRequest{Username: "admin@example.com", Password: "pw"}
	if !cmp.Equal(want, login) {
		t.Error(cmp.Diff(want, login))
	}
}

func TestGenericRequest_LoadInvalid(t *testing.T) {
	var request api.GenericRequest
	if err := request.Load([]byte(`{"data":`)); err == nil {
		t.Fatal("want error for truncated json")
	}
}

func TestNewErrorResponsef(t *testing.T) {
	got := api.NewErrorResponsef("no %s with slug %q", "post", "x")
	want := gin.H{"status": api.Error, "message": `no post with slug "x"`, "data": gin.H{}}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}
