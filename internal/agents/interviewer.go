package agents

import (
	"context"
	"fmt"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
	"github.com/jonathan/roadmap-agent/internal/schemas"
)

// Interviewer generates the clarifying questions asked before any content is
// designed.
type Interviewer struct {
	caller *caller
}

// interviewQuestionCount is what we ask the model for; the schema tolerates
// 3 to 8.
const interviewQuestionCount = 5

type questionPayload struct {
	Question       string `json:"question"`
	Purpose        string `json:"purpose"`
	ExampleOptions []struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"example_options"`
	AllowsFreeform bool `json:"allows_freeform"`
}

// GenerateQuestions produces interview questions for the topic. Question ids
// are assigned here, not by the model.
func (a *Interviewer) GenerateQuestions(ctx context.Context, topic string) ([]roadmap.InterviewQuestion, error) {
	prompt := buildInterviewPrompt(topic)

	var out struct {
		Questions []questionPayload `json:"questions"`
	}
	if err := a.caller.generateValidated(ctx, "interviewer", prompt, llm.TierStandard, schemas.InterviewQuestions, &out); err != nil {
		return nil, err
	}

	questions := make([]roadmap.InterviewQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		question := roadmap.InterviewQuestion{
			ID:             roadmap.NewQuestionID(),
			Question:       q.Question,
			Purpose:        q.Purpose,
			AllowsFreeform: q.AllowsFreeform,
		}
		for _, opt := range q.ExampleOptions {
			question.ExampleOptions = append(question.ExampleOptions, roadmap.ExampleOption{
				Label: opt.Label,
				Text:  opt.Text,
			})
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func buildInterviewPrompt(topic string) string {
	return fmt.Sprintf(`You are an expert learning coach preparing to design a personalized learning roadmap.

The learner said they want to learn: %q

Ask up to %d clarifying questions that will shape the roadmap. Cover their motivation, current experience level, available time, and preferred way of learning. Each question needs:
- "question": the question text
- "purpose": one short sentence on why the answer matters for roadmap design
- "example_options": 2 or 3 one-click answers, each with a short "label" and the full answer "text"
- "allows_freeform": whether a typed answer is also acceptable

Return a JSON object: {"questions": [...]}`, topic, interviewQuestionCount)
}
