package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexora-app/moderation-server/api"
	moderr "github.com/lexora-app/moderation-server/internal/err"
	"github.com/stretchr/testify/require"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{moderr.ErrorAccountNotFound, http.StatusNotFound, "account_not_found"},
		{moderr.ErrorSuspensionNotFound, http.StatusNotFound, "suspension_not_found"},
		{moderr.ErrorAppealNotFound, http.StatusNotFound, "appeal_not_found"},
		{moderr.ErrorAlreadySuspended, http.StatusConflict, "already_suspended"},
		{moderr.ErrorInvalidTransition, http.StatusConflict, "invalid_transition"},
		{moderr.ErrorDuplicateAppeal, http.StatusConflict, "duplicate_appeal"},
		{moderr.ErrorSuspensionNotActive, http.StatusConflict, "suspension_not_active"},
		{moderr.ErrorDuplicateViolation, http.StatusConflict, "duplicate_violation"},
		{moderr.WrapValidation("user_id is required"), http.StatusBadRequest, "validation_error"},
		{moderr.WrapStore("fetch account", errors.New("disk full")), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()

			writeDomainError(rec, tc.err)

			require.Equal(t, tc.status, rec.Code)

			var rsp api.Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&rsp))
			require.Equal(t, "error", rsp.Status)
			require.NotNil(t, rsp.Error)
			require.Equal(t, tc.code, rsp.Error.Code)
		})
	}
}

func TestMiddlewareAuthorization(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name   string
		secret string
		header string
		status int
	}{
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"not a bearer token", "s3cret", "Basic abc", http.StatusUnauthorized},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"unset secret rejects everything", "", "Bearer ", http.StatusUnauthorized},
		{"valid token", "s3cret", "Bearer s3cret", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := middlewareAuthorization(tc.secret)(next)

			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
		})
	}
}
