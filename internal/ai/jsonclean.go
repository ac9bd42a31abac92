// jsonclean.go - Tolerant JSON extraction from LLM responses
//
// Models are instructed to return bare JSON but frequently wrap it in
// Markdown code fences or surround it with explanatory prose. Every
// AI-facing component routes responses through ExtractJSONObject before
// unmarshaling.

package ai

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when no JSON object can be located in a response
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject recovers a JSON object embedded in an LLM response.
// Cleaning happens in a fixed order: strip Markdown code fences first, then
// slice from the first '{' to the last '}' in what remains. The slice step
// recovers JSON the model buried in prose despite instructions.
func ExtractJSONObject(response string) (string, error) {
	result := strings.TrimSpace(response)

	// Strip ```json ... ``` or ``` ... ``` wrappers
	if strings.HasPrefix(result, "```json") {
		result = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(result, "```json", ""), "```", ""))
	} else if strings.HasPrefix(result, "```") {
		result = strings.TrimSpace(strings.ReplaceAll(result, "```", ""))
	}

	start := strings.Index(result, "{")
	end := strings.LastIndex(result, "}")
	if start == -1 || end <= start {
		return "", ErrNoJSONObject
	}

	return result[start : end+1], nil
}
