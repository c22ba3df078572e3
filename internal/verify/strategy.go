package verify

import (
	"fmt"
	"strings"
)

// Strategy selects which resolvers a verification consults
type Strategy int

const (
	BestAvailable     Strategy = iota // Database, then registry, then web search
	ClaimDatabaseOnly                 // Claim database only
	RegistryOnly                      // Fact-check registry only
	WebSearchOnly                     // Web search and review only
)

func (s Strategy) String() string {
	switch s {
	case BestAvailable:
		return "best"
	case ClaimDatabaseOnly:
		return "database"
	case RegistryOnly:
		return "registry"
	case WebSearchOnly:
		return "search"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy reads a strategy name. Short and canonical names are
// accepted case-insensitively; blank means BestAvailable.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best", "any", "bestavailable", "best_available":
		return BestAvailable, nil
	case "database", "db", "claimdatabase", "claim_database", "claimdatabaseonly":
		return ClaimDatabaseOnly, nil
	case "registry", "factcheck", "fact_check_registry", "registryonly":
		return RegistryOnly, nil
	case "search", "web", "websearch", "web_search_review", "websearchonly":
		return WebSearchOnly, nil
	default:
		return BestAvailable, fmt.Errorf("unknown strategy %q (supported: best, database, registry, search)", s)
	}
}
