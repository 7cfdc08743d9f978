package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoTranslation reports that the provider had no translation for a word.
// It is an absence, not a failure.
var ErrNoTranslation = errors.New("no translation")

// Translator translates a single word.
type Translator interface {
	Translate(ctx context.Context, word string) (string, error)
}

// Func adapts a function to a Translator.
type Func func(ctx context.Context, word string) (string, error)

func (f Func) Translate(ctx context.Context, word string) (string, error) { return f(ctx, word) }

// prompt is shared by the LLM-backed providers.
func prompt(source, target, word string) string {
	return fmt.Sprintf("Translate the %s word '%s' to %s. Respond with only the %s translation, nothing else.",
		source, word, target, target)
}

// clean trims the model answer down to a single line without wrapping quotes.
func clean(answer string) string {
	answer = strings.TrimSpace(answer)
	if i := strings.IndexByte(answer, '\n'); i >= 0 {
		answer = strings.TrimSpace(answer[:i])
	}
	return strings.Trim(answer, `"'.`)
}
