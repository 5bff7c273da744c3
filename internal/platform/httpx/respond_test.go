package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("invoice: %w", ErrNotFound), http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/revenue", nil)
		rr := httptest.NewRecorder()
		RespondError(rr, req, tc.err)
		assert.Equal(t, tc.status, rr.Code)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
		assert.Equal(t, "/dashboard/revenue", body.Instance)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, nil, fmt.Errorf("password=hunter2"))
	assert.NotContains(t, rr.Body.String(), "hunter2")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Period string `json:"period"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"period":"monthly","extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"period":"yearly"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "yearly", target.Period)
}
