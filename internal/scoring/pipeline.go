package scoring

import (
	"slices"

	"golang.org/x/sync/errgroup"

	"atsmatch/internal/types"
)

// Pipeline runs the full deterministic scoring flow. It holds only the frozen
// vocabulary and is safe for concurrent use.
type Pipeline struct {
	vocab     *Vocabulary
	tokenizer *Tokenizer
	structure *StructureScorer
	parallel  bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithParallelScorers evaluates the four sub-scorers on separate goroutines.
// Results are identical to sequential evaluation.
func WithParallelScorers() Option {
	return func(p *Pipeline) { p.parallel = true }
}

// NewPipeline builds a pipeline over vocab. A nil vocab uses the default.
func NewPipeline(vocab *Vocabulary, opts ...Option) *Pipeline {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	p := &Pipeline{
		vocab:     vocab,
		tokenizer: NewTokenizer(vocab),
		structure: NewStructureScorer(vocab),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Vocabulary returns the vocabulary the pipeline was built with.
func (p *Pipeline) Vocabulary() *Vocabulary {
	return p.vocab
}

type subScores struct {
	coverage   CoverageResult
	structure  StructureResult
	length     LengthResult
	similarity SimilarityResult
}

// Score compares resumeText against jobDescription. It is total: any pair of
// strings, including empty ones, produces a well-formed result.
func (p *Pipeline) Score(resumeText, jobDescription string) types.ScoreResult {
	keywords := ExtractKeywords(p.tokenizer.Tokenize(jobDescription), p.vocab.minKeywordLen)
	resumeTokens := p.tokenizer.Tokenize(resumeText)
	resumeSet := resumeTokens.Set()

	var s subScores
	if p.parallel {
		s = p.scoreParallel(resumeText, keywords, resumeTokens, resumeSet)
	} else {
		s = subScores{
			coverage:   ScoreCoverage(keywords, resumeSet),
			structure:  p.structure.Score(resumeText),
			length:     p.vocab.ScoreLength(len(resumeTokens)),
			similarity: ScoreSimilarity(keywords, resumeSet),
		}
	}

	return p.aggregate(s, len(resumeTokens))
}

func (p *Pipeline) scoreParallel(resumeText string, keywords []string, tokens TokenSequence, set TokenSet) subScores {
	var s subScores
	var g errgroup.Group

	// Each goroutine writes a distinct field and reads only immutable inputs.
	g.Go(func() error {
		s.coverage = ScoreCoverage(keywords, set)
		return nil
	})
	g.Go(func() error {
		s.structure = p.structure.Score(resumeText)
		return nil
	})
	g.Go(func() error {
		s.length = p.vocab.ScoreLength(len(tokens))
		return nil
	})
	g.Go(func() error {
		s.similarity = ScoreSimilarity(keywords, set)
		return nil
	})
	_ = g.Wait()

	return s
}

func (p *Pipeline) aggregate(s subScores, wordCount int) types.ScoreResult {
	total := clamp(s.coverage.Score+s.structure.Score+s.length.Score+s.similarity.Score, 0, 100)

	suggestions := BuildSuggestions(SuggestionInput{
		CoverageScore:   s.coverage.Score,
		MissingKeywords: s.coverage.Missing,
		StructureFlags:  s.structure.Flags,
		LengthNote:      s.length.Note,
		SimilarityScore: s.similarity.Score,
	})

	return types.ScoreResult{
		Score: total,
		Breakdown: types.ScoreBreakdown{
			KeywordCoverage:   s.coverage.Score,
			Structure:         s.structure.Score,
			Length:            s.length.Score,
			OverallSimilarity: s.similarity.Score,
			Total:             total,
		},
		Suggestions: suggestions,
		Analysis: types.AnalysisReport{
			MatchedKeywords: s.coverage.Matched,
			MissingKeywords: s.coverage.Missing,
			StructureFlags:  slices.Clone(s.structure.Flags),
			LengthNote:      s.length.Note,
			WordCount:       wordCount,
		},
	}
}

func clamp(x, lo, hi float64) float64 {
	return min(max(x, lo), hi)
}
