package grading

import (
	"context"
	"math"
)

const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
)

// Option is the slice of an answer option grading needs.
type Option struct {
	ID        string
	IsCorrect bool
}

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID      string
	Type    string
	Options []Option
}

// Response is what a learner submitted for one question.
type Response struct {
	OptionID string
	Text     string
}

// Result is the outcome of grading a single question response.
type Result struct {
	Correct     bool
	NeedsManual bool // stored ungraded and left out of the score
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, resp Response) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, resp Response) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, resp Response) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{NeedsManual: true}, nil
	}
	return s.Grade(ctx, q, resp)
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			TypeMultipleChoice: selectedOptionStrategy{},
			TypeTrueFalse:      selectedOptionStrategy{},
			TypeShortAnswer:    manualStrategy{},
		},
	}
}

// --- Strategies ---

// selectedOptionStrategy marks a response correct when the chosen option
// belongs to the question and carries is_correct.
type selectedOptionStrategy struct{}

func (selectedOptionStrategy) Grade(_ context.Context, q Q, resp Response) (Result, error) {
	for _, o := range q.Options {
		if o.ID == resp.OptionID {
			return Result{Correct: o.IsCorrect}, nil
		}
	}
	return Result{}, nil
}

type manualStrategy struct{}

func (manualStrategy) Grade(context.Context, Q, Response) (Result, error) {
	return Result{NeedsManual: true}, nil
}

// Score turns per-question results into a 0..100 percentage over the
// auto-gradable questions. With nothing gradable the score is 100.
func Score(results []Result) int {
	gradable, correct := 0, 0
	for _, r := range results {
		if r.NeedsManual {
			continue
		}
		gradable++
		if r.Correct {
			correct++
		}
	}
	if gradable == 0 {
		return 100
	}
	return int(math.Round(100 * float64(correct) / float64(gradable)))
}

func Passed(score, passingScore int) bool {
	return score >= passingScore
}
