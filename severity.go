package main

import "strings"

// Severity keyword tiers. Evaluated against the original (unredacted) text
// so context around masked identifiers still counts. First tier to match
// wins: specificity of harm outranks generic complaint language, so a post
// mentioning both "fee" and "fraud" is High.
var highSeverityKeywords = []string{
	"fraud",
	"fraudulent",
	"stolen",
	"unauthorized",
	"unauthorised",
	"scam",
	"hacked",
	"can't access money",
	"cannot access money",
	"can't access my money",
	"salary not credited",
	"account locked",
	"card blocked",
}

// Attrition-risk phrases count as High: a customer threatening to leave
// needs the same response window as a security incident.
var attritionRiskKeywords = []string{
	"cancel my account",
	"closing account",
	"closing my account",
	"switching banks",
	"switching to",
	"leaving this bank",
	"done with this bank",
	"never again",
	"worst bank",
	"unacceptable",
}

var mediumSeverityKeywords = []string{
	"charge",
	"charged",
	"fee",
	"fees",
	"emi issue",
	"emi problem",
	"declined",
	"overdraft",
	"late payment",
	"dispute",
	"refund",
	"error",
	"not working",
}

// EstimateSeverity assigns a response-urgency tier from keyword signals in
// the raw post text. The label does not influence the tier: the same text
// scores the same severity whatever queue it routes to, and genuinely
// fraudulent wording already lands High through the keyword set. Pure and
// deterministic; case-insensitive.
func EstimateSeverity(label, rawText string) Severity {
	text := strings.ToLower(rawText)

	for _, kw := range highSeverityKeywords {
		if strings.Contains(text, kw) {
			return SeverityHigh
		}
	}
	for _, kw := range attritionRiskKeywords {
		if strings.Contains(text, kw) {
			return SeverityHigh
		}
	}
	for _, kw := range mediumSeverityKeywords {
		if strings.Contains(text, kw) {
			return SeverityMedium
		}
	}
	return SeverityLow
}
