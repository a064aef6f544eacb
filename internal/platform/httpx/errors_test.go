package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atlas-admin/atlas-admin/internal/platform/httpx"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	_ "github.com/atlas-admin/atlas-admin/testing"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid credentials", shared.ErrBadPassword, http.StatusUnauthorized},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"validation", shared.NewValidationError("email", "required"), http.StatusBadRequest},
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"conflict", shared.ErrConflict, http.StatusConflict},
		{"operation failed", &shared.OperationError{Op: "users: list", Err: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			httpx.RespondError(res, tc.err)
			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, res.Code)
			}
		})
	}
}

func TestRespondErrorValidationFields(t *testing.T) {
	res := httptest.NewRecorder()
	httpx.RespondError(res, &shared.ValidationError{Fields: map[string]string{
		"email":  "required",
		"roleId": "required",
	}})

	var problem httpx.ProblemDetail
	if err := json.Unmarshal(res.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if problem.Fields["email"] != "required" || problem.Fields["roleId"] != "required" {
		t.Fatalf("expected field map in response, got %+v", problem.Fields)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	res := httptest.NewRecorder()
	httpx.RespondError(res, &shared.OperationError{Op: "users: delete 4", Err: errors.New("relation users does not exist")})

	if strings.Contains(res.Body.String(), "relation") {
		t.Fatalf("internal error detail leaked: %s", res.Body.String())
	}
}
