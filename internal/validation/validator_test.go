package validation

import (
	"errors"
	"testing"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&models.GenerateInsightsRequest{DateRange: "7d"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Len(t, reqErr.Fields, 2)
	assert.Equal(t, "integrationId", reqErr.Fields[0].Field)
	assert.Equal(t, "required", reqErr.Fields[0].Tag)
	assert.Equal(t, "uid", reqErr.Fields[1].Field)
	assert.Equal(t, "integrationId is required; uid is required", err.Error())
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(&models.GenerateSummaryRequest{IntegrationID: "i", UserID: "u"}))
}

func TestValidateStruct_URL(t *testing.T) {
	err := ValidateStruct(&models.CreateIntegrationRequest{UserID: "u", URL: "not a url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url must be a valid URL")
}

func TestDecodeAndValidate(t *testing.T) {
	var req models.UpdateIntegrationStatusRequest
	err := DecodeAndValidate([]byte(`{"uid":"u"`), &req)
	require.Error(t, err)
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "syntax errors are not field errors")

	err = DecodeAndValidate([]byte(`{"uid":"u"}`), &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status is required")

	require.NoError(t, DecodeAndValidate([]byte(`{"uid":"u","status":false}`), &req))
	require.NotNil(t, req.Status)
	assert.False(t, *req.Status)
}
