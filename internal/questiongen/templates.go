package questiongen

import (
	"fmt"

	"github.com/exampulse/exampulse/internal/assessment"
)

type template struct {
	text        string
	options     [4]string
	correct     int
	explanation string
}

// Hand-authored canonical questions, three per subject. The fallback path
// cycles these to fill any requested count, so it can never come up short.
var questionTemplates = map[string][]template{
	"Physics": {
		{
			text:        "A particle moving uniformly in a circle has acceleration directed:",
			options:     [4]string{"Along tangent", "Towards center", "Away from center", "Zero"},
			correct:     1,
			explanation: "Centripetal acceleration always points towards the center of circular motion.",
		},
		{
			text:        "If force is doubled and mass is unchanged, acceleration becomes:",
			options:     [4]string{"Half", "Same", "Double", "Four times"},
			correct:     2,
			explanation: "From Newton's second law, a = F/m. Doubling force doubles acceleration.",
		},
		{
			text:        "Work done by a conservative force over a closed path is:",
			options:     [4]string{"Positive", "Negative", "Zero", "Infinite"},
			correct:     2,
			explanation: "Conservative forces do zero net work over a closed path.",
		},
	},
	"Chemistry": {
		{
			text:        "For an exothermic reaction, increasing temperature shifts equilibrium:",
			options:     [4]string{"To products", "To reactants", "No change", "Becomes irreversible"},
			correct:     1,
			explanation: "By Le Chatelier's principle, heat acts like a product for exothermic reactions.",
		},
		{
			text:        "The pH of a 10^-3 M HCl solution is:",
			options:     [4]string{"1", "2", "3", "4"},
			correct:     2,
			explanation: "For strong acid HCl, [H+] = 10^-3, therefore pH = 3.",
		},
		{
			text:        "Hybridization of carbon in CO2 is:",
			options:     [4]string{"sp", "sp2", "sp3", "dsp2"},
			correct:     0,
			explanation: "CO2 has two electron domains around carbon, giving sp hybridization.",
		},
	},
	"Mathematics": {
		{
			text:        "If f(x) = x^2, then f'(x) is:",
			options:     [4]string{"x", "2x", "x^2", "2"},
			correct:     1,
			explanation: "Derivative of x^2 with respect to x is 2x.",
		},
		{
			text:        "Value of integral from 0 to pi of sin(x) dx is:",
			options:     [4]string{"0", "1", "2", "pi"},
			correct:     2,
			explanation: "Integral of sin(x) over [0, pi] equals 2.",
		},
		{
			text:        "Determinant of matrix [[a,b],[c,d]] is:",
			options:     [4]string{"ab-cd", "ad-bc", "ac-bd", "a+b+c+d"},
			correct:     1,
			explanation: "For a 2x2 matrix, determinant is ad - bc.",
		},
	},
}

func templateSet(subject string, count int, difficulty string) []assessment.Question {
	templates, ok := questionTemplates[subject]
	if !ok {
		templates = questionTemplates["Physics"]
	}

	questions := make([]assessment.Question, 0, count)
	for i := 0; i < count; i++ {
		t := templates[i%len(templates)]
		questions = append(questions, assessment.Question{
			ID:          fmt.Sprintf("q%d", i+1),
			Subject:     subject,
			Text:        fmt.Sprintf("Q%d. [%s] %s", i+1, difficulty, t.text),
			Options:     []string{t.options[0], t.options[1], t.options[2], t.options[3]},
			Correct:     t.correct,
			Explanation: t.explanation,
		})
	}
	return questions
}
