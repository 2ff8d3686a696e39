package schemas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONString_Valid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	err := ValidateJSONString(schema, `{"name": "sql"}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_FieldErrors(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	err := ValidateJSONString(schema, `{"name": 42}`)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.NotEmpty(t, verr.Errors)
	assert.Equal(t, "name", verr.Errors[0].Field)
	assert.Contains(t, err.Error(), "name")
}

func TestValidateJSONString_MalformedDocument(t *testing.T) {
	schema := `{"type": "object"}`
	err := ValidateJSONString(schema, `{not json`)
	assert.Error(t, err)
}

func TestInterviewQuestionsSchema(t *testing.T) {
	question := `{"question": "Why do you want to learn this?", "purpose": "goal", "allows_freeform": true,
		"example_options": [{"label": "Work", "text": "I need it for my job"}]}`

	t.Run("valid set", func(t *testing.T) {
		doc := `{"questions": [` + question + `,` + question + `,` + question + `]}`
		assert.NoError(t, ValidateJSONString(InterviewQuestions, doc))
	})

	t.Run("too few questions", func(t *testing.T) {
		doc := `{"questions": [` + question + `,` + question + `]}`
		assert.Error(t, ValidateJSONString(InterviewQuestions, doc))
	})

	t.Run("too many questions", func(t *testing.T) {
		parts := make([]string, 9)
		for i := range parts {
			parts[i] = question
		}
		doc := `{"questions": [` + strings.Join(parts, ",") + `]}`
		assert.Error(t, ValidateJSONString(InterviewQuestions, doc))
	})
}

func TestSessionOutlineSchema(t *testing.T) {
	session := `{"title": "Tables and Rows", "objective": "Understand relational structure",
		"session_type": "concept", "estimated_duration_minutes": 60, "order": 1}`

	t.Run("valid outline", func(t *testing.T) {
		doc := `{"suggested_title": "SQL Foundations", "summary": "A short path.",
			"sessions": [` + session + `,` + session + `,` + session + `]}`
		assert.NoError(t, ValidateJSONString(SessionOutline, doc))
	})

	t.Run("too many sessions", func(t *testing.T) {
		parts := make([]string, 21)
		for i := range parts {
			parts[i] = session
		}
		doc := `{"suggested_title": "SQL", "summary": "x", "sessions": [` + strings.Join(parts, ",") + `]}`
		err := ValidateJSONString(SessionOutline, doc)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("duration out of range", func(t *testing.T) {
		bad := `{"title": "x", "objective": "y", "session_type": "concept", "estimated_duration_minutes": 10, "order": 1}`
		doc := `{"suggested_title": "SQL", "summary": "x", "sessions": [` + bad + `,` + session + `,` + session + `]}`
		assert.Error(t, ValidateJSONString(SessionOutline, doc))
	})

	t.Run("unknown session type passes schema", func(t *testing.T) {
		// Type normalization happens in code, not the schema.
		odd := `{"title": "x", "objective": "y", "session_type": "lecture", "estimated_duration_minutes": 60, "order": 1}`
		doc := `{"suggested_title": "SQL", "summary": "x", "sessions": [` + odd + `,` + session + `,` + session + `]}`
		assert.NoError(t, ValidateJSONString(SessionOutline, doc))
	})
}

func TestResearchedSessionSchema(t *testing.T) {
	assert.NoError(t, ValidateJSONString(ResearchedSession,
		`{"content": "# Tables\nRows and columns.", "key_concepts": ["table"], "exercises": ["create one"]}`))
	assert.Error(t, ValidateJSONString(ResearchedSession, `{"key_concepts": []}`))
}

func TestSessionResourcesSchema(t *testing.T) {
	assert.NoError(t, ValidateJSONString(SessionResources, `{"videos": []}`))
	assert.NoError(t, ValidateJSONString(SessionResources,
		`{"videos": [{"url": "https://example.com/v", "title": "Intro"}]}`))
	assert.Error(t, ValidateJSONString(SessionResources, `{"videos": [{"url": "https://example.com/v"}]}`))
}

func TestValidationReportSchema(t *testing.T) {
	t.Run("valid report", func(t *testing.T) {
		doc := `{"score": 85, "summary": "solid", "issues": [
			{"category": "gap", "severity": "low", "description": "missing joins practice"}]}`
		assert.NoError(t, ValidateJSONString(ValidationReport, doc))
	})

	t.Run("score out of range", func(t *testing.T) {
		doc := `{"score": 140, "summary": "solid", "issues": []}`
		assert.Error(t, ValidateJSONString(ValidationReport, doc))
	})
}
