package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gardena/parser/internal/domain"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImages struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func (s *stubImages) FetchImage(_ context.Context, url string) ([]byte, error) {
	s.calls = append(s.calls, url)
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	return s.bodies[url], nil
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestMaterializer_Materialize(t *testing.T) {
	fs := afero.NewMemMapFs()
	images := &stubImages{bodies: map[string][]byte{
		"https://cdn.example/rake.png": []byte("JPEGDATA"),
	}}

	records := []domain.ProductRecord{
		{Link: "https://www.gardena.com/rake", Image: "https://cdn.example/rake.png", NameEn: "Rake", NameRu: "Грабли", ArticleNumber: "3022-20"},
		{Link: "https://www.gardena.com/hoe", Image: "", NameEn: "Hoe", NameRu: "Мотыга/тяпка", ArticleNumber: "3112-20"},
		{Link: "https://www.gardena.com/fork", Image: "/relative/fork.png", NameEn: "Fork", NameRu: "Вилы", ArticleNumber: "3191-20"},
	}

	results, err := NewMaterializer(fs, "build", images).Materialize(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// only absolute URLs are fetched
	assert.Equal(t, []string{"https://cdn.example/rake.png"}, images.calls)

	rakeDir := filepath.Join("build", "Грабли_3022-20")
	assert.Equal(t, "JPEGDATA", readFile(t, fs, filepath.Join(rakeDir, ImageFileName)))
	assert.Equal(t,
		"Link,Image,Name EN,Name RU,Article Number\n"+
			`"https://www.gardena.com/rake","build/Грабли_3022-20/image.png","Rake","Грабли","3022-20"`,
		readFile(t, fs, filepath.Join(rakeDir, RecordFileName)))
	assert.True(t, results[0].ImageSaved)

	hoeDir := filepath.Join("build", "Мотыга_тяпка_3112-20")
	exists, err := afero.Exists(fs, filepath.Join(hoeDir, ImageFileName))
	require.NoError(t, err)
	assert.False(t, exists)
	// the record still cites the intended local path
	assert.Contains(t, readFile(t, fs, filepath.Join(hoeDir, RecordFileName)), `"build/Мотыга_тяпка_3112-20/image.png"`)
	assert.False(t, results[1].ImageSaved)

	assert.False(t, results[2].ImageSaved)
}

func TestMaterializer_CleanSlate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("build/stale_1", 0o755))
	require.NoError(t, afero.WriteFile(fs, "build/stale_1/data.csv", []byte("old"), 0o644))

	_, err := NewMaterializer(fs, "build", &stubImages{}).Materialize(context.Background(), []domain.ProductRecord{
		{NameRu: "Грабли", ArticleNumber: "1"},
	})
	require.NoError(t, err)

	entries, err := afero.ReadDir(fs, "build")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Грабли_1", entries[0].Name())
}

func TestMaterializer_DirectoryCollision(t *testing.T) {
	fs := afero.NewMemMapFs()

	results, err := NewMaterializer(fs, "build", &stubImages{}).Materialize(context.Background(), []domain.ProductRecord{
		{NameRu: "A/B", ArticleNumber: "7"},
		{NameRu: "A:B", ArticleNumber: "7"},
		{NameRu: "C", ArticleNumber: "8"},
	})
	require.ErrorIs(t, err, ErrDirectoryExists)
	assert.Len(t, results, 1)

	exists, err := afero.DirExists(fs, "build/C_8")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMaterializer_RejectsDirectoryOutsideRoot(t *testing.T) {
	cases := map[string]domain.ProductRecord{
		"parent traversal": {NameRu: "Грабли", ArticleNumber: "/../../escaped"},
		"nested":           {NameRu: "Грабли", ArticleNumber: "1/2"},
		"backslash":        {NameRu: "Грабли", ArticleNumber: `1\2`},
	}

	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			m := NewMaterializer(fs, "build", &stubImages{})

			for run := 0; run < 2; run++ {
				results, err := m.Materialize(context.Background(), []domain.ProductRecord{record})
				require.ErrorIs(t, err, ErrInvalidDirectory)
				assert.NotErrorIs(t, err, ErrDirectoryExists)
				assert.Empty(t, results)
			}

			exists, err := afero.Exists(fs, "escaped")
			require.NoError(t, err)
			assert.False(t, exists)

			entries, err := afero.ReadDir(fs, "build")
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestMaterializer_ImageErrorIsTolerated(t *testing.T) {
	fs := afero.NewMemMapFs()
	images := &stubImages{errs: map[string]error{
		"https://cdn.example/x.png": errors.New("connection reset"),
	}}

	results, err := NewMaterializer(fs, "build", images).Materialize(context.Background(), []domain.ProductRecord{
		{Image: "https://cdn.example/x.png", NameRu: "X", ArticleNumber: "1"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].ImageSaved)

	exists, err := afero.Exists(fs, "build/X_1/data.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFormatRecord_EscapesQuotes(t *testing.T) {
	got := FormatRecord(domain.ProductRecord{
		Link: "l", NameEn: `Hose 1/2"`, NameRu: `Шланг 1/2"`, ArticleNumber: "18",
	}, "p")
	assert.Equal(t, "Link,Image,Name EN,Name RU,Article Number\n"+`"l","p","Hose 1/2""","Шланг 1/2""","18"`, got)
}
