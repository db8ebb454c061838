package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	data := []byte(`
extraStopwords: [team, python]
sections:
  skills: ["Technologies", "skills"]
minKeywordLength: 5
lengthBuckets:
  - {min: 0, max: 99, score: 2, note: "Too short."}
  - {min: 100, score: 15}
`)
	vocab, err := ParseProfile(data)
	require.NoError(t, err)

	assert.True(t, vocab.IsStopword("python"))
	assert.True(t, vocab.IsStopword("the"))
	assert.Equal(t, 5, vocab.MinKeywordLen())

	var skills SectionSignal
	for _, s := range vocab.Sections() {
		if s.Name == SectionSkills {
			skills = s
		}
	}
	assert.Equal(t, []string{"technologies", "skills"}, skills.Terms)
	assert.Equal(t, "Missing Skills section.", skills.Flag)

	res := vocab.ScoreLength(50)
	assert.Equal(t, 2.0, res.Score)
	require.NotNil(t, res.Note)
	assert.Equal(t, "Too short.", *res.Note)
	assert.Equal(t, 15.0, vocab.ScoreLength(5000).Score)

	p := NewPipeline(vocab)
	out := p.Score("Technologies: go", "golang rust python")
	assert.Equal(t, []string{"golang"}, out.Analysis.MissingKeywords)
	assert.NotContains(t, out.Analysis.StructureFlags, "Missing Skills section.")
}

func TestParseProfileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"gap", "lengthBuckets:\n  - {min: 0, max: 10, score: 5}\n  - {min: 20, score: 5}\n"},
		{"bounded tail", "lengthBuckets:\n  - {min: 0, max: 10, score: 5}\n"},
		{"score over ceiling", "lengthBuckets:\n  - {min: 0, score: 16}\n"},
		{"unknown section", "sections:\n  hobbies: [hobby]\n"},
		{"empty section", "sections:\n  skills: []\n"},
		{"bad yaml", "stopwords: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	vocab, err := LoadProfile("")
	require.NoError(t, err)
	assert.Same(t, DefaultVocabulary(), vocab)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraStopwords: [golang]\n"), 0o600))
	vocab, err = LoadProfile(path)
	require.NoError(t, err)
	assert.True(t, vocab.IsStopword("golang"))

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVocabularyIsFrozen(t *testing.T) {
	terms := []string{"skills"}
	vocab, err := NewVocabulary(VocabularyOptions{SectionTerms: map[string][]string{SectionSkills: terms}})
	require.NoError(t, err)

	terms[0] = "mutated"
	sections := vocab.Sections()
	sections[2].Terms[0] = "changed"

	for _, s := range vocab.Sections() {
		if s.Name == SectionSkills {
			assert.Equal(t, []string{"skills"}, s.Terms)
		}
	}
}
