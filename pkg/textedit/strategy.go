package textedit

import (
	"fmt"
	"strings"
)

// Strategy selects how styling of a mixed-font node is carried to the new text.
type Strategy string

const (
	StrategyFirst   Strategy = "first"
	StrategyPrevail Strategy = "prevail"
	StrategyStrict  Strategy = "strict"
	StrategySmart   Strategy = "smart"
)

// ParseStrategy accepts the strategy names, "experimental" as an alias of smart,
// and "" as first.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return StrategyFirst, nil
	case "prevail":
		return StrategyPrevail, nil
	case "strict":
		return StrategyStrict, nil
	case "smart", "experimental":
		return StrategySmart, nil
	default:
		return "", fmt.Errorf("unknown text strategy %q", s)
	}
}
