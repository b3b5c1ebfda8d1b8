package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "surveycli/internal/errors"
)

func newTestValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFileValidator_ValidateSurveyFile(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string) string
		wantErr  bool
		wantType apperrors.ErrorType
		wantIs   error
	}{
		{
			name: "valid csv",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "公司方.csv")
				require.NoError(t, os.WriteFile(p, []byte("a,b\n1,2\n"), 0644))
				return p
			},
		},
		{
			name: "missing file",
			setup: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "absent.csv")
			},
			wantErr:  true,
			wantType: apperrors.ErrTypeNotFound,
		},
		{
			name: "directory",
			setup: func(t *testing.T, dir string) string {
				return dir
			},
			wantErr:  true,
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "lock file",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "~$book.xlsx")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
				return p
			},
			wantErr:  true,
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name: "unsupported extension",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "book.xls")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
				return p
			},
			wantErr: true,
			wantIs:  apperrors.ErrUnsupportedFormat,
		},
		{
			name: "empty file",
			setup: func(t *testing.T, dir string) string {
				p := filepath.Join(dir, "empty.csv")
				require.NoError(t, os.WriteFile(p, nil, 0644))
				return p
			},
			wantErr: true,
			wantIs:  apperrors.ErrEmptyHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t, t.TempDir())
			err := newTestValidator().ValidateSurveyFile(path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantType != "" {
				assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, newTestValidator().ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileValidator_ValidateHeader(t *testing.T) {
	v := newTestValidator()

	report, err := v.ValidateHeader("a.csv", []string{"填答時間", "", "請問公司規模？", "請問公司規模？"})
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, []int{1}, report.Blank)
	assert.Equal(t, []int{2, 3}, report.Duplicates["請問公司規模？"])

	report, err = v.ValidateHeader("b.csv", []string{"Q1", "Q2"})
	require.NoError(t, err)
	assert.True(t, report.Clean())

	_, err = v.ValidateHeader("c.csv", []string{"", "  "})
	assert.ErrorIs(t, err, apperrors.ErrEmptyHeader)
}

func TestFileValidator_ValidateInputFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "company_p1.csv")
	require.NoError(t, os.WriteFile(good, []byte("a,b\n1,2\n"), 0644))
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0644))

	v := newTestValidator()

	valid, err := v.ValidateInputFiles([]string{empty, good, notes, filepath.Join(dir, "absent.csv")})
	require.NoError(t, err)
	assert.Equal(t, []string{good}, valid)

	_, err = v.ValidateInputFiles([]string{empty, notes})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoInputFiles)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
