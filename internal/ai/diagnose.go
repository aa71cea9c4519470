package ai

import "strings"

// Diagnose turns a provider error into a hint for the admin alert.
func Diagnose(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "status code: 401"):
		return "Invalid API key."
	case strings.Contains(msg, "status code: 404"):
		return "Model not found."
	case strings.Contains(msg, "status code: 429"):
		return "Provider rate limit or quota exceeded."
	case strings.Contains(msg, "status code: 400") && strings.Contains(msg, "model"):
		return "Model name rejected."
	case strings.Contains(msg, "status code: 400"):
		return "Malformed request."
	case strings.Contains(msg, "status code: 500"), strings.Contains(msg, "status code: 503"):
		return "Provider internal error."
	case strings.Contains(msg, "deadline exceeded"):
		return "Provider did not answer in time."
	}
	return "Unknown provider error: " + err.Error()
}
