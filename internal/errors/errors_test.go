package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewValidationError("threshold out of range"),
			wantMessage: "[VALIDATION] threshold out of range",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("failed to read survey.csv", fmt.Errorf("unexpected EOF")),
			wantMessage: "[PARSING] failed to read survey.csv: unexpected EOF",
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("topic catalogue"),
			wantMessage: "[NOT_FOUND] topic catalogue not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewAnalysisError("question Q001", ErrInsufficientData)

	assert.True(t, errors.Is(err, ErrInsufficientData))

	wrapped := fmt.Errorf("statistics step: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeAnalysis, appErr.Type)
}

func TestAppError_Is(t *testing.T) {
	err := NewRenderError("chart Q004", errors.New("empty series"))

	assert.True(t, errors.Is(err, &AppError{Type: ErrTypeRender}))
	assert.False(t, errors.Is(err, &AppError{Type: ErrTypeExport}))
}

func TestAppError_WithContext(t *testing.T) {
	err := NewExportError("write workbook", nil).
		WithContext("path", "out/survey_analysis.xlsx").
		WithContext("sheets", 4)

	assert.Equal(t, "out/survey_analysis.xlsx", err.Context["path"])
	assert.Equal(t, 4, err.Context["sheets"])

	var bare AppError
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("load: %w", NewConfigError("bad yaml", nil))

	assert.True(t, IsType(err, ErrTypeConfig))
	assert.False(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(errors.New("plain"), ErrTypeConfig))
}
