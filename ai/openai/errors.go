package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/libram/ai"
)

// classifyErr maps provider transport errors onto the ai failure taxonomy so
// callers can decide retryability without knowing about HTTP. Matching is by
// message because langchaingo does not expose typed status errors.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
	case strings.Contains(msg, "502"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "504"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"):
		return fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	default:
		return err
	}
}
