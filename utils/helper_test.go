package utils_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/go-playground/validator/v10"
)

func TestProcessValidationErrorsFieldMap(t *testing.T) {
	type form struct {
		Name  string `validate:"required"`
		Email string `validate:"required,email"`
	}

	err := validator.New().Struct(form{Email: "not-an-email"})
	if err == nil {
		t.Fatalf("expected validation failure")
	}

	got := utils.ProcessValidationErrors(err)
	if got["Name"] != "required" {
		t.Fatalf("expected Name=required; got %v", got)
	}
	if got["Email"] != "email" {
		t.Fatalf("expected Email=email; got %v", got)
	}
}

func TestProcessValidationErrorsPlainError(t *testing.T) {
	got := utils.ProcessValidationErrors(errors.New("warehouse not found"))
	if len(got) != 1 || got["error"] != "warehouse not found" {
		t.Fatalf("expected single error entry; got %v", got)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := utils.ParseDecimal(" 12.5 ")
	if err != nil || d.String() != "12.5" {
		t.Fatalf("expected 12.5; got %s (err=%v)", d.String(), err)
	}
	if _, err := utils.ParseDecimal(""); err == nil {
		t.Fatalf("expected error for empty string")
	}
	if _, err := utils.ParseDecimal("abc"); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
