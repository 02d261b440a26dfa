package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/happyhackingspace/popscore/errs"
	"github.com/happyhackingspace/popscore/features"
)

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	raw := `[
		{"text": "Hello there", "is_root": true, "controversiality": 0, "children": 2, "popularity_score": 1.5},
		{"text": "second", "is_root": 0, "controversiality": 1, "children": 0, "popularity_score": -0.25}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(raw), 0644))

	docs, err := NewStorage(dir).LoadDocuments("data.json")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, features.Document{
		Text: "Hello there", IsRoot: true, Children: 2, PopularityScore: 1.5,
	}, docs[0])
	assert.False(t, bool(docs[1].IsRoot))
	assert.Equal(t, 1.0, docs[1].Controversiality)
}

func TestLoadDocumentsErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"text":`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flag.json"), []byte(`[{"is_root":"yes"}]`), 0644))

	s := NewStorage(dir)
	for _, name := range []string{"missing.json", "bad.json", "flag.json"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.LoadDocuments(name)
			require.ErrorIs(t, err, errs.ErrInputFormat)
		})
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	s := NewStorage(filepath.Join(t.TempDir(), "processed"))
	records := []features.Record{
		{Text: "a b", IsRoot: 1, Children: 3, PopularityScore: 2, XCounts: []int{1, 1}, Length: 3},
		{Text: "c", XCounts: []int{0, 0}, Length: 1, StemCounts: []int{1}},
	}
	require.NoError(t, s.SaveJSON(SplitFile(SplitTraining), records))

	got, err := s.LoadRecords("training_data.json")
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWriteVocabularyReport(t *testing.T) {
	dir := t.TempDir()
	s := NewStorage(dir)
	require.NoError(t, s.WriteVocabularyReport(filepath.Join("reports", "words.txt"), []string{"the", "a", "to"}))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "words.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1. the\n2. a\n3. to\n", string(data))
}

func TestSplitCorpus(t *testing.T) {
	docs := make([]features.Document, 7)
	for i := range docs {
		docs[i].Children = i
	}

	splits, err := SplitCorpus(docs, SplitSizes{Training: 3, Validation: 2, Test: 1})
	require.NoError(t, err)

	children := func(ds []features.Document) []int {
		out := make([]int, len(ds))
		for i, d := range ds {
			out[i] = d.Children
		}
		return out
	}
	assert.Equal(t, []int{0, 1, 2}, children(splits[SplitTraining]))
	assert.Equal(t, []int{3, 4}, children(splits[SplitValidation]))
	assert.Equal(t, []int{5}, children(splits[SplitTest]))

	_, err = SplitCorpus(docs, DefaultSplitSizes())
	require.ErrorIs(t, err, errs.ErrInputFormat)
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return map[string]Store{
		BackendFile:   NewFileStore(t.TempDir()),
		BackendBadger: b,
	}
}

func TestStores(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("models/b.json", []byte("b")))
			require.NoError(t, s.Put("models/a.json", []byte("a")))
			require.NoError(t, s.Put(VocabularyKey, []byte("{}")))

			data, err := s.Get("models/a.json")
			require.NoError(t, err)
			assert.Equal(t, []byte("a"), data)

			keys, err := s.List(ModelPrefix)
			require.NoError(t, err)
			assert.Equal(t, []string{"models/a.json", "models/b.json"}, keys)

			_, err = s.Get("models/missing.json")
			require.ErrorIs(t, err, errs.ErrInputFormat)
		})
	}
}

func TestFileStoreListMissingDir(t *testing.T) {
	keys, err := NewFileStore(filepath.Join(t.TempDir(), "nothing")).List("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMatrixArtifacts(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
			y := mat.NewVecDense(2, []float64{0.5, -1})

			require.NoError(t, PutMatrix(s, MatrixKey(SplitTraining), x))
			require.NoError(t, PutVector(s, TargetKey(SplitTraining), y))

			gotX, err := GetMatrix(s, "training_X.bin")
			require.NoError(t, err)
			assert.True(t, mat.Equal(x, gotX))

			gotY, err := GetVector(s, "training_y.bin")
			require.NoError(t, err)
			assert.True(t, mat.Equal(y, gotY))

			require.NoError(t, s.Put("broken.bin", []byte{1, 2, 3}))
			_, err = GetMatrix(s, "broken.bin")
			require.ErrorIs(t, err, errs.ErrInputFormat)
			_, err = GetVector(s, "broken.bin")
			require.ErrorIs(t, err, errs.ErrInputFormat)
		})
	}
}

func TestJSONArtifacts(t *testing.T) {
	s := NewFileStore(t.TempDir())
	require.NoError(t, PutJSON(s, ModelKey("ClosedForm_60"), map[string]int{"n": 1}))

	var got map[string]int
	require.NoError(t, GetJSON(s, "models/ClosedForm_60.json", &got))
	assert.Equal(t, 1, got["n"])

	require.NoError(t, s.Put("bad.json", []byte("{")))
	require.ErrorIs(t, GetJSON(s, "bad.json", &got), errs.ErrInputFormat)
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendFile, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(BackendBadger, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("s3", t.TempDir())
	require.Error(t, err)
}

func TestModelName(t *testing.T) {
	name, ok := ModelName(ModelKey("GradientDescent_160"))
	assert.True(t, ok)
	assert.Equal(t, "GradientDescent_160", name)

	for _, key := range []string{"vocabulary.json", "models/x.bin", "models/.json", "models/a/b.json"} {
		_, ok := ModelName(key)
		assert.False(t, ok, key)
	}
}
