package optimizer

import (
	"encoding/json"
	"regexp"
)

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// parseJSONStringList extracts the first JSON array literal in text and
// decodes it as a list of strings. LLM responses sometimes wrap the array in
// prose despite instructions not to, so this scans for the brackets rather
// than trying json.Unmarshal on the whole response.
func parseJSONStringList(text string) ([]string, bool) {
	match := jsonArrayPattern.FindString(text)
	if match == "" {
		return nil, false
	}
	var out []string
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return nil, false
	}
	return out, true
}
