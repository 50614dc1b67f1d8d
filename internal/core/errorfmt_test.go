package core

import (
	"encoding/json"
	"os"
	"testing"
)

func TestCLIError_JSON(t *testing.T) {
	err := Wrap(ErrBadQuery, "bad query", os.ErrInvalid)
	ce, ok := err.(CLIError)
	if !ok {
		t.Fatalf("wrap did not return CLIError")
	}
	raw := ce.JSON()
	var decoded map[string]string
	if json.Unmarshal([]byte(raw), &decoded) != nil {
		t.Fatalf("json unmarshal failed")
	}
	if decoded["code"] != ErrBadQuery {
		t.Fatalf("wrong code json: %v", decoded)
	}
}

func TestCLIError_ErrorOmitsDetailWhenAbsent(t *testing.T) {
	err := Wrap(ErrConfig, "configuration error", nil)
	if err.Error() != "configuration error" {
		t.Fatalf("expected bare message, got %q", err.Error())
	}
}
