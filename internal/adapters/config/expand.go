package config

import (
	"os"
	"regexp"
	"strings"

	"go.brick.build/brick/internal/core/domain"
	"go.trai.ch/zerr"
)

// envPrefix is the reserved prefix for placeholders substituted into the
// raw manifest text before parsing.
const envPrefix = "BRICK_"

// bracedPlaceholder matches ${BRICK_VAR} and ${BRICK_VAR:-default}.
var bracedPlaceholder = regexp.MustCompile(`\$\{(` + envPrefix + `[A-Za-z0-9_]+)(:-([^}]*))?\}`)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// expandPlaceholders substitutes ${BRICK_VAR} and ${BRICK_VAR:-default}
// tokens in the raw manifest text. Placeholders without the reserved
// prefix are left untouched. A reserved-prefix token that cannot be
// resolved, or uses an unsupported form, is a fatal configuration error.
func expandPlaceholders(raw []byte) ([]byte, error) {
	text := string(raw)
	var expandErr error

	text = bracedPlaceholder.ReplaceAllStringFunc(text, func(token string) string {
		groups := bracedPlaceholder.FindStringSubmatch(token)
		name, hasDefault, fallback := groups[1], groups[2] != "", groups[3]

		if value, ok := lookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return fallback
		}
		if expandErr == nil {
			expandErr = zerr.With(zerr.Wrap(domain.ErrConfig, "could not find environment variable or default value"),
				"variable", name)
		}
		return token
	})
	if expandErr != nil {
		return nil, expandErr
	}

	// Any reserved-prefix token left over is an unsupported form, like
	// an unbraced $BRICK_VAR.
	if idx := strings.Index(text, "$"+envPrefix); idx >= 0 {
		line := 1 + strings.Count(text[:idx], "\n")
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "faulty reserved-prefix environment variable reference"),
			"line", line)
	}

	return []byte(text), nil
}
