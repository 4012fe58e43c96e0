package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
)

type demoBody struct {
	Name   string `json:"name" validate:"required"`
	Amount int    `json:"amount" validate:"min=1"`
}

func TestDecodeJSONBody_valid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Acme","amount":3}`))

	var body demoBody
	if err := DecodeJSONBody(r, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Name != "Acme" || body.Amount != 3 {
		t.Fatalf("unexpected decoded body %+v", body)
	}
}

func TestDecodeJSONBody_unknownField(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Acme","amount":3,"bogus":true}`))

	var body demoBody
	err := DecodeJSONBody(r, &body)
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBody_validationDetailsUseJSONNames(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":0}`))

	var body demoBody
	err := DecodeJSONBody(r, &body)
	if err == nil {
		t.Fatal("expected validation failure")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", typed.Details())
	}
	if details["name"] != "is required" {
		t.Fatalf("expected json field name in details, got %v", details)
	}
	if details["amount"] != "must be at least 1" {
		t.Fatalf("unexpected amount message, got %v", details)
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=25", nil)
	got, err := ParseQueryInt(r, "limit", 10, 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}

	r = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryInt(r, "limit", 10, 1, 100)
	if err != nil || got != 10 {
		t.Fatalf("expected default 10, got %d (%v)", got, err)
	}

	r = httptest.NewRequest("GET", "/?limit=abc", nil)
	if _, err := ParseQueryInt(r, "limit", 10, 1, 100); err == nil {
		t.Fatal("expected non-numeric value to fail")
	}

	r = httptest.NewRequest("GET", "/?limit=500", nil)
	if _, err := ParseQueryInt(r, "limit", 10, 1, 100); err == nil {
		t.Fatal("expected out-of-range value to fail")
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/?show_all=true", nil)
	if !ParseQueryBool(r, "show_all") {
		t.Fatal("expected true")
	}
	r = httptest.NewRequest("GET", "/?show_all=1", nil)
	if !ParseQueryBool(r, "show_all") {
		t.Fatal("expected 1 to parse as true")
	}
	r = httptest.NewRequest("GET", "/?show_all=no", nil)
	if ParseQueryBool(r, "show_all") {
		t.Fatal("expected false")
	}
}

func TestParseQueryList(t *testing.T) {
	r := httptest.NewRequest("GET", "/?stores=Mumbai,Delhi&stores=Pune&stores=", nil)
	got := ParseQueryList(r, "stores")
	want := []string{"Mumbai", "Delhi", "Pune"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
