package assistant

import (
	"fmt"
	"strings"
)

// classificationPrompt asks the oracle to map the user's instruction onto one
// of the catalog paraphrases. The oracle answers with the paraphrase verbatim,
// never with the command identifier, so the mapping back to an identifier
// stays under our control.
func classificationPrompt(paraphrases []string, text string) string {
	var list strings.Builder
	for _, p := range paraphrases {
		list.WriteString("- ")
		list.WriteString(p)
		list.WriteString("\n")
	}
	return fmt.Sprintf(`You classify travel itinerary instructions.

Here is the list of supported actions, one per line:
%s
Given the user instruction below, pick the single action that best matches it.

Respond with ONLY a JSON object in this exact format:
{"paraphrase": "<the matching action, copied verbatim from the list>"}

If no action matches, respond with:
{"paraphrase": "unknown"}

User instruction: %q`, list.String(), text)
}

func extractDestinationPrompt(text string) string {
	return fmt.Sprintf(`Extract the destination name and the day number from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"destination": "<place name>", "day": <day number, or 0 if not mentioned>}

Instruction: %q`, text)
}

func extractSwapDaysPrompt(text string) string {
	return fmt.Sprintf(`Extract the two day numbers being swapped in this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"day_1": <first day number>, "day_2": <second day number>}

Instruction: %q`, text)
}

func extractDayPrompt(text string) string {
	return fmt.Sprintf(`Extract the day number from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"day": <day number, or 0 if not mentioned>}

Instruction: %q`, text)
}

func extractDayRangePrompt(text string) string {
	return fmt.Sprintf(`Extract the range of day numbers to delete from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"start_day": <first day number>, "end_day": <last day number>}

Instruction: %q`, text)
}

func extractTripNamePrompt(text string) string {
	return fmt.Sprintf(`Extract the new trip name from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"trip_name": "<new trip name>"}

Instruction: %q`, text)
}

func extractMembersPrompt(text string) string {
	return fmt.Sprintf(`Extract the number of trip members from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"members": <member count>}

Instruction: %q`, text)
}

func extractStartDatePrompt(text string) string {
	return fmt.Sprintf(`Extract the trip start date from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"start_date": "<date in YYYY-MM-DD form>"}

Instruction: %q`, text)
}

func extractEndDatePrompt(text string) string {
	return fmt.Sprintf(`Extract the trip end date from this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"end_date": "<date in YYYY-MM-DD form>"}

Instruction: %q`, text)
}

func extractIndexPrompt(subject, text string) string {
	return fmt.Sprintf(`Extract the 1-based index of the %s referenced in this travel instruction.

Respond with ONLY a JSON object in this exact format:
{"index": <the index, or 0 if not mentioned>}

Instruction: %q`, subject, text)
}
