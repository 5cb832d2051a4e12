package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sultan/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"ERR_INVALID_EMAIL", http.StatusBadRequest},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
		{"NOT_FOUND", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"FORBIDDEN", ErrCodeForbidden},
		{"INTERNAL", ErrCodeInternal},
		{"UNAUTHORIZED", ErrCodeUnauthorized},
		{"INVALID_EMAIL", "ERR_INVALID_EMAIL"},
		{"INVALID_RESOURCE", "ERR_INVALID_RESOURCE"},
		{ErrCodeForbidden, ErrCodeForbidden},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestErrorResponseShape(t *testing.T) {
	body, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeForbidden, "denied", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_FORBIDDEN","message":"denied","request_id":"req-1"}}`, string(body))

	body, err = json.Marshal(NewValidationErrorResponse("bad", "", []ValidationDetail{{Field: "name", Message: "This field is required"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_VALIDATION","message":"bad","details":[{"field":"name","message":"This field is required"}]}}`, string(body))
}

func TestNewPageResponse(t *testing.T) {
	page := shared.NewPage([]int{1, 2}, 12, shared.PageRequest{Page: 2, PageSize: 5})
	resp := NewPageResponse(page)
	assert.True(t, resp.Success)
	assert.Equal(t, []int{1, 2}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, Meta{Total: 12, Page: 2, PageSize: 5, TotalPages: 3}, *resp.Meta)
	assert.Nil(t, resp.Error)

	body, err := json.Marshal(NewPageResponse(shared.NewPage([]string{}, 0, shared.FirstPage())))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0,"page":1,"page_size":20,"total_pages":0}}`, string(body))
}
