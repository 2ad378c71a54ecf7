package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mrlokans/mylibrary/internal/entities"
)

var ErrInvalidResponse = errors.New("invalid model response")

const recommendationSchema = `{
  "type": "object",
  "required": ["recommendations"],
  "properties": {
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "author", "reason"],
        "properties": {
          "title":  {"type": "string", "minLength": 1},
          "author": {"type": "string", "minLength": 1},
          "isbn":   {"type": ["string", "null"]},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

var (
	recommendationValidator = mustSchema(recommendationSchema)
	strictPolicy            = bluemonday.StrictPolicy()
)

func mustSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("ai: invalid schema: %v", err))
	}
	return s
}

type recommendationPayload struct {
	Recommendations []entities.BookRecommendation `json:"recommendations"`
}

// extractJSON returns the JSON document embedded in a model answer, dropping
// markdown fences and surrounding prose. A bare array is wrapped in a
// recommendations object.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		end := strings.LastIndex(text, "]")
		if end < arrStart {
			return "", ErrInvalidResponse
		}
		return `{"recommendations":` + text[arrStart:end+1] + `}`, nil
	case objStart >= 0:
		end := strings.LastIndex(text, "}")
		if end < objStart {
			return "", ErrInvalidResponse
		}
		return text[objStart : end+1], nil
	default:
		return "", ErrInvalidResponse
	}
}

// ParseRecommendations validates a model answer and returns clean
// recommendations with markup stripped.
func ParseRecommendations(text string) ([]entities.BookRecommendation, error) {
	doc, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	result, err := recommendationValidator.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
	}

	var payload recommendationPayload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	recs := make([]entities.BookRecommendation, 0, len(payload.Recommendations))
	for _, r := range payload.Recommendations {
		rec := entities.BookRecommendation{
			Title:  Sanitize(r.Title),
			Author: Sanitize(r.Author),
			ISBN:   strings.ReplaceAll(strings.TrimSpace(r.ISBN), "-", ""),
			Reason: Sanitize(r.Reason),
		}
		if rec.Title == "" || rec.Author == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// maxSanitizePasses bounds the decode loop for nested entity encoding.
const maxSanitizePasses = 5

// Sanitize strips every HTML tag and trims the result. Entities are decoded
// since the text is served as JSON, and the decoded text is stripped again
// until it no longer changes so encoded markup cannot come back to life.
// Input still changing after the last pass is returned entity-escaped.
func Sanitize(text string) string {
	for range maxSanitizePasses {
		decoded := html.UnescapeString(strictPolicy.Sanitize(text))
		if decoded == text {
			return strings.TrimSpace(decoded)
		}
		text = decoded
	}
	return strings.TrimSpace(strictPolicy.Sanitize(text))
}
