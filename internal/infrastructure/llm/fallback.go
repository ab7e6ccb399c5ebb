package llm

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"PolicyScanner/internal/domain"
	"PolicyScanner/internal/ports"
)

const (
	baseScore        = 70
	concernPenalty   = 5
	reassuranceBonus = 3
	longPolicyChars  = 5000
	shortPolicyChars = 1000
)

// concerningTerms lower a document's score; each distinct matching term
// counts once.
var concerningTerms = []string{
	"third party", "third-party", "share", "sell", "indefinitely",
	"arbitration", "waive", "biometric", "tracking", "surveillance",
	"cannot control", "may modify", "without notice",
}

// reassuringTerms raise the score the same way.
var reassuringTerms = []string{
	"delete", "opt out", "opt-out", "gdpr", "ccpa", "encrypted",
	"never share", "never sell", "your rights", "you can", "contact us",
}

const (
	summaryFriendly = "This privacy policy is relatively user-friendly and transparent. It clearly outlines data collection practices, provides users with control over their information, and demonstrates respect for privacy rights. The policy uses accessible language and offers straightforward options for data management."
	summaryModerate = "This privacy policy has moderate clarity with some areas of concern. While it outlines basic data practices, there are aspects that could be more transparent. Users should be aware of third-party data sharing and review the specific terms that apply to their usage. Some user rights are provided but may require additional steps to exercise."
	summaryConcern  = "This privacy policy raises significant concerns regarding user privacy and data protection. The policy contains vague language, extensive data collection practices, and broad third-party sharing provisions. Users should carefully consider the implications before agreeing to these terms and explore alternative services if privacy is a priority."
)

// FallbackEvaluator scores documents with a deterministic term heuristic so
// the service has a well-defined offline behavior when no remote evaluator
// is configured. The thresholds here are a contract pinned by the tests.
type FallbackEvaluator struct{}

var _ ports.Evaluator = (*FallbackEvaluator)(nil)

// NewFallbackEvaluator returns the stateless local evaluator.
func NewFallbackEvaluator() *FallbackEvaluator {
	return &FallbackEvaluator{}
}

// Provider names the evaluator for health reporting and audit records.
func (f *FallbackEvaluator) Provider() string {
	return "fallback"
}

// Analyze never fails: it scans the lowercased text for fixed term sets,
// adjusts for length, and clamps the score into [0,100].
func (f *FallbackEvaluator) Analyze(_ context.Context, text, sourceURL string) (domain.AnalysisResult, error) {
	lowered := strings.ToLower(text)

	concerns := countMatches(lowered, concerningTerms)
	reassurances := countMatches(lowered, reassuringTerms)

	score := baseScore - concerns*concernPenalty + reassurances*reassuranceBonus
	length := utf8.RuneCountInString(text)
	if length > longPolicyChars {
		score -= 10
	} else if length < shortPolicyChars {
		score += 10
	}
	score = clamp(score, 0, 100)

	return domain.AnalysisResult{
		Score:       score,
		Summary:     summaryForScore(score),
		RedFlags:    buildRedFlags(lowered, concerns, reassurances),
		ActionItems: buildActionItems(lowered, score, sourceURL),
		Timestamp:   time.Now().UTC(),
		SourceURL:   sourceURL,
	}, nil
}

func countMatches(lowered string, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			count++
		}
	}
	return count
}

func summaryForScore(score int) string {
	switch {
	case score >= 80:
		return summaryFriendly
	case score >= 50:
		return summaryModerate
	default:
		return summaryConcern
	}
}

// buildRedFlags maps detected terms to human-readable warnings. Each rule
// fires independently; several flags may stack for one document.
func buildRedFlags(lowered string, concerns, reassurances int) []string {
	flags := make([]string, 0, 4)

	if strings.Contains(lowered, "third party") || strings.Contains(lowered, "third-party") {
		flags = append(flags, "Extensive third-party data sharing mentioned")
	}
	if strings.Contains(lowered, "sell") && strings.Contains(lowered, "data") {
		flags = append(flags, "Policy may allow selling of user data")
	}
	if strings.Contains(lowered, "indefinitely") {
		flags = append(flags, "Data may be retained indefinitely")
	}
	if strings.Contains(lowered, "arbitration") {
		flags = append(flags, "Mandatory arbitration clause limits legal options")
	}
	if strings.Contains(lowered, "biometric") {
		flags = append(flags, "Collection of biometric data mentioned")
	}
	if strings.Contains(lowered, "tracking") {
		flags = append(flags, "User tracking across devices or websites")
	}
	if strings.Contains(lowered, "without notice") {
		flags = append(flags, "Policy can be changed without user notification")
	}
	if concerns > 5 && reassurances < 3 {
		flags = append(flags, "Limited user control over personal data")
	}

	return flags
}

func buildActionItems(lowered string, score int, sourceURL string) []domain.ActionItem {
	items := make([]domain.ActionItem, 0, 4)

	if score < 70 {
		items = append(items, domain.ActionItem{
			Text:     "Review privacy settings and limit data sharing where possible",
			Priority: domain.PriorityHigh,
		})
	}
	if strings.Contains(lowered, "opt out") || strings.Contains(lowered, "opt-out") {
		item := domain.ActionItem{
			Text:     "Look for opt-out options in your account settings",
			Priority: domain.PriorityMedium,
		}
		if sourceURL != "" {
			item.URL = sourceURL + "#settings"
		}
		items = append(items, item)
	}
	if score < 50 {
		items = append(items,
			domain.ActionItem{
				Text:     "Consider using privacy-focused alternatives to this service",
				Priority: domain.PriorityHigh,
			},
			domain.ActionItem{
				Text:     "Use a VPN and privacy browser extensions when using this service",
				Priority: domain.PriorityMedium,
			})
	}
	if strings.Contains(lowered, "delete") {
		items = append(items, domain.ActionItem{
			Text:     "Exercise your right to delete your data if you no longer use the service",
			Priority: domain.PriorityLow,
		})
	}

	return items
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
