package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"validation":      {validator.ValidationErrors{{Field: "full_name", Message: "required"}}, http.StatusUnprocessableEntity, CodeValidation},
		"bad credentials": {auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized},
		"not admin":       {auth.ErrAdminPrivilegeRequired, http.StatusForbidden, CodeForbidden},
		"unknown card":    {fmt.Errorf("submit: %w", attendance.ErrUnknownDevice), http.StatusNotFound, CodeNotFound},
		"card taken":      {employee.ErrCardAlreadyAssigned, http.StatusConflict, CodeConflict},
		"malformed scan":  {attendance.MalformedInput("time is required"), http.StatusBadRequest, CodeBadRequest},
		"anything else":   {errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestHandleError_InternalDetailsAreHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
}

func TestValidationError_CarriesFieldDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, validator.ValidationErrors{{Field: "card_serials", Message: "invalid serial"}})

	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]string{"card_serials": "invalid serial"}, resp.Error.Details)
}

func TestSuccessWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessWithMeta(rec, []string{"a"}, &Meta{Page: 2, Limit: 1, TotalItems: 3, TotalPages: 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, &Meta{Page: 2, Limit: 1, TotalItems: 3, TotalPages: 3}, resp.Meta)
}

func TestJSON_WritesFlatBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNotFound, map[string]string{"status": "error"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error"}`, rec.Body.String())
}

func TestWriteJSON_UnencodablePayloadBecomesInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, make(chan int))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeEncodingFailed, resp.Error.Code)
}
