package models

// Quiz question types, keyed by how the question is generated from the
// user's spending aggregates.
const (
	QuizPercentReduction = "percent_reduction"
	QuizMaxCategory      = "max_category"
	QuizWeekComparison   = "week_comparison"
	QuizTotalSpend       = "total_spend"
	QuizBudgetAllocation = "budget_allocation"
)

// Difficulty tiers for the quiz, in ascending order
var DifficultyLevels = []string{"basic", "intermediate", "advanced"}

// QuizQuestion is one challenge unit of a quiz round. CorrectIndex and
// Meta stay server-side; the client sees a PublicQuizQuestion.
type QuizQuestion struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Prompt       string            `json:"prompt"`
	Choices      []string          `json:"choices"`
	CorrectIndex int               `json:"correct_index"`
	Meta         map[string]string `json:"meta,omitempty"`
}

// PublicQuizQuestion is the client-facing view of a question
type PublicQuizQuestion struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// Public strips the server-held answer from a question
func (q QuizQuestion) Public() PublicQuizQuestion {
	return PublicQuizQuestion{ID: q.ID, Type: q.Type, Prompt: q.Prompt, Choices: q.Choices}
}

// QuizPayload is the server-held content of a quiz round
type QuizPayload struct {
	WeekStart  string         `json:"week_start"`
	Difficulty string         `json:"difficulty"`
	Questions  []QuizQuestion `json:"questions"`
}

// QuizAnswer records one graded submission within a quiz round
type QuizAnswer struct {
	QuestionID    string `json:"question_id"`
	SelectedIndex int    `json:"selected_index"`
	CorrectIndex  int    `json:"correct_index"`
	Correct       bool   `json:"correct"`
	XPEarned      int    `json:"xp_earned"`
	AnsweredAt    string `json:"answered_at"`
}

// QuizProgress is the mutable progress of a quiz round
type QuizProgress struct {
	Answers []QuizAnswer `json:"answers"`
}

// Answered reports whether a question has already been graded
func (p *QuizProgress) Answered(questionID string) bool {
	for _, a := range p.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// CorrectCount counts the correctly answered questions so far
func (p *QuizProgress) CorrectCount() int {
	n := 0
	for _, a := range p.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}
