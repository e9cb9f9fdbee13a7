package assistant

import (
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// CleanJSONResponse strips the decoration oracles wrap around JSON answers:
// markdown code fences, prose before and after the object, stray backticks,
// and trailing commas. The JSON object itself is located by brace counting.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}

	braceCount := 0
	lastValidBrace := -1
	for i := firstBrace; i < len(response); i++ {
		switch response[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				lastValidBrace = i
			}
		}
		if lastValidBrace != -1 {
			break
		}
	}

	if lastValidBrace == -1 {
		// Unbalanced braces; fall back to the last closing brace.
		lastBrace := strings.LastIndex(response, "}")
		if lastBrace == -1 || lastBrace <= firstBrace {
			return response
		}
		lastValidBrace = lastBrace
	}

	jsonPortion := response[firstBrace : lastValidBrace+1]
	jsonPortion = strings.ReplaceAll(jsonPortion, "`", "")
	jsonPortion = trailingCommaRe.ReplaceAllString(jsonPortion, "$1")

	return strings.TrimSpace(jsonPortion)
}
