package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "surveycli/internal/errors"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func TestFindSurveyFiles(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "csv and xlsx sorted by name",
			files: []string{"b_8RG8Y.csv", "a_NwNYM.xlsx", "notes.txt"},
			want:  []string{"a_NwNYM.xlsx", "b_8RG8Y.csv"},
		},
		{
			name:  "lock and hidden files skipped",
			files: []string{"~$survey.xlsx", ".survey.csv", "survey.CSV"},
			want:  []string{"survey.CSV"},
		},
		{
			name: "empty directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.files...)
			require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

			found, err := NewDiscovery(dir).FindSurveyFiles(".")
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFindSurveyFiles_MissingDir(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindSurveyFiles("absent")
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	surveys := filepath.Join(dir, "surveys")
	require.NoError(t, os.Mkdir(surveys, 0755))
	touch(t, surveys, "one.csv", "two.xlsx", "readme.md")
	touch(t, dir, "extra.csv")

	d := NewDiscovery(dir)

	t.Run("directories and files", func(t *testing.T) {
		got, err := d.Expand([]string{"surveys", "extra.csv", filepath.Join(surveys, "one.csv")})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(surveys, "one.csv"),
			filepath.Join(surveys, "two.xlsx"),
			filepath.Join(dir, "extra.csv"),
		}, got)
	})

	t.Run("no inputs", func(t *testing.T) {
		_, err := d.Expand(nil)
		assert.ErrorIs(t, err, apperrors.ErrNoInputFiles)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := d.Expand([]string{"nope.csv"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("directory without exports", func(t *testing.T) {
		empty := filepath.Join(dir, "empty")
		require.NoError(t, os.Mkdir(empty, 0755))
		_, err := d.Expand([]string{empty})
		assert.ErrorIs(t, err, apperrors.ErrNoInputFiles)
	})
}

func TestIsSurveyFile(t *testing.T) {
	assert.True(t, IsSurveyFile("公司方_8RG8Y.csv"))
	assert.True(t, IsSurveyFile("export.XLSX"))
	assert.False(t, IsSurveyFile("export.xls"))
	assert.False(t, IsSurveyFile("~$export.xlsx"))
}
