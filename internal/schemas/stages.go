package schemas

// Stage output contracts. Structural bounds (question and session counts,
// duration and score ranges) live here so an out-of-bounds response fails
// exactly like any other schema violation and goes through the same retry
// path.

// InterviewQuestions is the interviewer stage output contract.
const InterviewQuestions = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 3,
      "maxItems": 8,
      "items": {
        "type": "object",
        "required": ["question", "purpose", "allows_freeform"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "purpose": {"type": "string", "minLength": 1},
          "example_options": {
            "type": "array",
            "maxItems": 4,
            "items": {
              "type": "object",
              "required": ["label", "text"],
              "properties": {
                "label": {"type": "string", "minLength": 1},
                "text": {"type": "string", "minLength": 1}
              }
            }
          },
          "allows_freeform": {"type": "boolean"}
        }
      }
    }
  }
}`

// SessionOutline is the architect stage output contract.
const SessionOutline = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["suggested_title", "summary", "sessions"],
  "properties": {
    "suggested_title": {"type": "string", "minLength": 1, "maxLength": 200},
    "summary": {"type": "string", "minLength": 1},
    "sessions": {
      "type": "array",
      "minItems": 3,
      "maxItems": 20,
      "items": {
        "type": "object",
        "required": ["title", "objective", "session_type", "estimated_duration_minutes", "order"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "objective": {"type": "string", "minLength": 1},
          "session_type": {"type": "string"},
          "estimated_duration_minutes": {"type": "integer", "minimum": 30, "maximum": 180},
          "prerequisites": {"type": "array", "items": {"type": "string"}},
          "order": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

// ResearchedSession is the researcher stage output contract for one session.
const ResearchedSession = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {"type": "string", "minLength": 1},
    "key_concepts": {"type": "array", "items": {"type": "string"}},
    "resources": {"type": "array", "items": {"type": "string"}},
    "exercises": {"type": "array", "items": {"type": "string"}}
  }
}`

// SessionResources is the resource finder stage output contract for one
// session. Zero videos is a valid result.
const SessionResources = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["videos"],
  "properties": {
    "videos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url", "title"],
        "properties": {
          "url": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "channel": {"type": "string"},
          "thumbnail_url": {"type": "string"},
          "duration_minutes": {"type": "integer", "minimum": 0},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

// ValidationReport is the validator stage output contract.
const ValidationReport = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["score", "summary", "issues"],
  "properties": {
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "summary": {"type": "string", "minLength": 1},
    "issues": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category", "severity", "description"],
        "properties": {
          "category": {"type": "string"},
          "severity": {"type": "string"},
          "description": {"type": "string", "minLength": 1},
          "suggested_fix": {"type": "string"},
          "affected_session_ids": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
