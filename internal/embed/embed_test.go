package embed

import (
	"context"
	"errors"
	"math"
	"testing"
)

// fakeEmbedder returns fixed vectors keyed by text and counts calls
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
	inputs  [][]string
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.inputs = append(f.inputs, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  hello   world  ":       "hello world",
		"line one\nline two":      "line one line two",
		"tabs\tand\r\nnewlines\n": "tabs and newlines",
		"":                        "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	cases := map[float64]float64{
		1:         100,
		0.6:       60,
		0.123456:  12.35,
		-0.5:      0,
		-1:        0,
		1.0000001: 100,
		0:         0,
	}
	for in, want := range cases {
		if got := Percent(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("Percent(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestScoreAgainst_OpposedVectorsScoreZero(t *testing.T) {
	scores := ScoreAgainst([]float32{1, 0}, [][]float32{{-1, 0}, {-0.6, 0.8}, {1, 0}})
	want := []float64{0, 0, 100}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("score[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestService_SimilaritiesUsesOneBatch(t *testing.T) {
	f := &fakeEmbedder{vectors: map[string][]float32{
		"claim": {1, 0},
		"same":  {1, 0},
		"other": {0, 1},
	}}
	s := NewService(f)

	scores, err := s.Similarities(context.Background(), "claim\n", []string{"same", "  other "})
	if err != nil {
		t.Fatalf("Similarities failed: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 batch call, got %d", f.calls)
	}
	if len(f.inputs[0]) != 3 || f.inputs[0][0] != "claim" || f.inputs[0][2] != "other" {
		t.Errorf("expected normalised inputs, got %q", f.inputs[0])
	}
	if scores[0] != 100 || scores[1] != 0 {
		t.Errorf("unexpected scores: %v", scores)
	}
}

func TestService_EmptyCandidates(t *testing.T) {
	f := &fakeEmbedder{}
	s := NewService(f)

	scores, err := s.Similarities(context.Background(), "claim", nil)
	if err != nil || len(scores) != 0 {
		t.Fatalf("got %v, %v", scores, err)
	}
	if f.calls != 0 {
		t.Error("no backend call expected for empty candidates")
	}
}

func TestService_PropagatesError(t *testing.T) {
	f := &fakeEmbedder{err: ErrEmbedding}
	s := NewService(f)

	if _, err := s.Similarity(context.Background(), "a", "b"); !errors.Is(err, ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}
