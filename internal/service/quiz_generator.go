package service

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"finquest/internal/models"
)

// QuizQuestionCount is the number of questions in every quiz round
const QuizQuestionCount = 5

// reductionPercent is the savings-cut percentage used per difficulty
var reductionPercent = map[string]int{
	"basic":        20,
	"intermediate": 15,
	"advanced":     10,
}

// quizInputs are the spending aggregates question generation works from
type quizInputs struct {
	weekTxns  []models.Transaction
	priorTxns []models.Transaction
	totals    []CategoryTotal
	weekTotal decimal.Decimal
}

// generateQuizQuestions builds a round's questions from the user's last
// week of spending. The generator order shifts with difficulty so harder
// tiers lead with comparison and allocation math.
func generateQuizQuestions(in quizInputs, difficulty string, rng *rand.Rand) []models.QuizQuestion {
	type generator func(quizInputs, string, *rand.Rand) *models.QuizQuestion

	var order []generator
	switch difficulty {
	case "advanced":
		order = []generator{genBudgetAllocation, genWeekComparison, genPercentReduction, genMaxCategory, genTotalSpend, genSecondReduction}
	case "intermediate":
		order = []generator{genWeekComparison, genPercentReduction, genMaxCategory, genBudgetAllocation, genTotalSpend, genSecondReduction}
	default:
		order = []generator{genMaxCategory, genTotalSpend, genPercentReduction, genWeekComparison, genSecondReduction, genBudgetAllocation}
	}

	var questions []models.QuizQuestion
	for _, gen := range order {
		if len(questions) == QuizQuestionCount {
			break
		}
		if q := gen(in, difficulty, rng); q != nil {
			q.ID = fmt.Sprintf("q_%d", len(questions))
			questions = append(questions, *q)
		}
	}

	// Total-spend variants always generate, so pad with them if category
	// data was too thin for the themed questions.
	for len(questions) < QuizQuestionCount {
		q := genTotalSpend(in, difficulty, rng)
		q.ID = fmt.Sprintf("q_%d", len(questions))
		q.Prompt = fmt.Sprintf("Rounding to the nearest option, what did you spend in total over the past 7 days? (%d)", len(questions)+1)
		questions = append(questions, *q)
	}
	return questions
}

func genMaxCategory(in quizInputs, _ string, rng *rand.Rand) *models.QuizQuestion {
	if len(in.totals) == 0 {
		return nil
	}
	top := in.totals[0]

	choices := []string{top.Category}
	for _, c := range shuffledStrings(models.CategoryBuckets, rng) {
		if len(choices) == 4 {
			break
		}
		if c != top.Category {
			choices = append(choices, c)
		}
	}
	choices = shuffledStrings(choices, rng)

	correct := indexOf(choices, top.Category)
	return &models.QuizQuestion{
		Type:         models.QuizMaxCategory,
		Prompt:       "Which category did you spend the most on in the past 7 days?",
		Choices:      choices,
		CorrectIndex: correct,
		Meta: map[string]string{
			"explanation": fmt.Sprintf("You spent %s on %s, more than on any other category.", money(top.Total), top.Category),
		},
	}
}

func genTotalSpend(in quizInputs, _ string, rng *rand.Rand) *models.QuizQuestion {
	choices, correct := amountChoices(in.weekTotal, rng)
	return &models.QuizQuestion{
		Type:         models.QuizTotalSpend,
		Prompt:       "What did you spend in total over the past 7 days?",
		Choices:      choices,
		CorrectIndex: correct,
		Meta: map[string]string{
			"explanation": fmt.Sprintf("Your transactions over the past 7 days add up to %s.", money(in.weekTotal)),
		},
	}
}

func genPercentReduction(in quizInputs, difficulty string, rng *rand.Rand) *models.QuizQuestion {
	if len(in.totals) == 0 {
		return nil
	}
	return reductionQuestion(in.totals[0], difficulty, rng)
}

// genSecondReduction targets the runner-up category so two reduction
// questions in one round never repeat
func genSecondReduction(in quizInputs, difficulty string, rng *rand.Rand) *models.QuizQuestion {
	if len(in.totals) < 2 {
		return nil
	}
	return reductionQuestion(in.totals[1], difficulty, rng)
}

func reductionQuestion(ct CategoryTotal, difficulty string, rng *rand.Rand) *models.QuizQuestion {
	percent := reductionPercent[difficulty]
	if percent == 0 {
		percent = reductionPercent["basic"]
	}
	saved := ct.Total.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))

	choices, correct := amountChoices(saved, rng)
	return &models.QuizQuestion{
		Type:   models.QuizPercentReduction,
		Prompt: fmt.Sprintf("You spent %s on %s in the past 7 days. How much would a %d%% cut save you?", money(ct.Total), ct.Category, percent),
		Choices: choices,
		CorrectIndex: correct,
		Meta: map[string]string{
			"explanation": fmt.Sprintf("%d%% of %s is %s.", percent, money(ct.Total), money(saved)),
		},
	}
}

func genWeekComparison(in quizInputs, _ string, rng *rand.Rand) *models.QuizQuestion {
	prior := TotalSpend(in.priorTxns)
	diff := in.weekTotal.Sub(prior)
	if diff.IsZero() {
		return nil
	}

	direction := "more"
	if diff.Sign() < 0 {
		direction = "less"
		diff = diff.Neg()
	}

	choices, correct := amountChoices(diff, rng)
	return &models.QuizQuestion{
		Type:   models.QuizWeekComparison,
		Prompt: fmt.Sprintf("You spent %s this week than the week before. By how much?", direction),
		Choices: choices,
		CorrectIndex: correct,
		Meta: map[string]string{
			"explanation": fmt.Sprintf("This week's %s versus last week's %s is a difference of %s.", money(in.weekTotal), money(prior), money(diff)),
		},
	}
}

func genBudgetAllocation(in quizInputs, _ string, rng *rand.Rand) *models.QuizQuestion {
	if in.weekTotal.IsZero() {
		return nil
	}
	// 50/30/20 framing: treat last week's spend as the "needs" half
	budget := in.weekTotal.Mul(decimal.NewFromInt(2))
	savings := budget.Mul(decimal.NewFromInt(20)).Div(decimal.NewFromInt(100))

	choices, correct := amountChoices(savings, rng)
	return &models.QuizQuestion{
		Type: models.QuizBudgetAllocation,
		Prompt: fmt.Sprintf("Suppose your %s of weekly spending is the 'needs' half of a 50/30/20 budget. How much would that budget put into savings each week?", money(in.weekTotal)),
		Choices: choices,
		CorrectIndex: correct,
		Meta: map[string]string{
			"explanation": fmt.Sprintf("Doubling %s gives a %s budget; 20%% of that is %s for savings.", money(in.weekTotal), money(budget), money(savings)),
		},
	}
}

// amountChoices builds four dollar options around the correct value and
// returns them shuffled with the correct option's index
func amountChoices(correct decimal.Decimal, rng *rand.Rand) ([]string, int) {
	multipliers := []float64{0.70, 0.85, 1.20, 1.45}
	rng.Shuffle(len(multipliers), func(i, j int) {
		multipliers[i], multipliers[j] = multipliers[j], multipliers[i]
	})

	correctStr := money(correct)
	choices := []string{correctStr}
	seen := map[string]bool{correctStr: true}

	for _, m := range multipliers {
		if len(choices) == 4 {
			break
		}
		option := correct.Mul(decimal.NewFromFloat(m))
		s := money(option)
		// tiny amounts can collide after rounding; push them apart
		for offset := 1; seen[s]; offset++ {
			option = option.Add(decimal.NewFromFloat(1.25 * float64(offset)))
			s = money(option)
		}
		seen[s] = true
		choices = append(choices, s)
	}

	choices = shuffledStrings(choices, rng)
	return choices, indexOf(choices, correctStr)
}

// money formats a decimal as a dollar string
func money(d decimal.Decimal) string {
	return "$" + d.RoundBank(2).StringFixed(2)
}

func shuffledStrings(in []string, rng *rand.Rand) []string {
	out := make([]string, len(in))
	copy(out, in)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}
