package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1"`
}

func request(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSONBodyValid(t *testing.T) {
	var payload samplePayload
	if err := DecodeJSONBody(request(`{"email":"ana@example.com","quantity":2}`), &payload); err != nil {
		t.Fatalf("DecodeJSONBody failed: %v", err)
	}
	if payload.Email != "ana@example.com" || payload.Quantity != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONBodyMalformed(t *testing.T) {
	var payload samplePayload
	err := DecodeJSONBody(request(`{"email":`), &payload)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDecodeJSONBodyUnknownField(t *testing.T) {
	var payload samplePayload
	err := DecodeJSONBody(request(`{"email":"ana@example.com","nope":1}`), &payload)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDecodeJSONBodyFieldErrorsUseJSONNames(t *testing.T) {
	var payload samplePayload
	err := DecodeJSONBody(request(`{"email":"not-an-email","quantity":0}`), &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %+v", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected detail for email: %q", details["email"])
	}
}

func TestDecodeJSONBodyMinViolation(t *testing.T) {
	var payload samplePayload
	err := DecodeJSONBody(request(`{"email":"ana@example.com","quantity":-1}`), &payload)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("unexpected error %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["quantity"] != "must be at least 1" {
		t.Fatalf("unexpected details %+v", typed.Details())
	}
}
