package password

import (
	"strings"
	"unicode"
)

// Requirement names reported back to callers in StrengthResult.Unmet.
const (
	ReqMinLength     = "min_length"
	ReqMaxLength     = "max_length"
	ReqLowercase     = "lowercase"
	ReqUppercase     = "uppercase"
	ReqDigit         = "digit"
	ReqSymbol        = "symbol"
	ReqNotCommon     = "not_common_password"
	ReqNoSequence    = "no_sequential_pattern"
	ReqNoIdentityRef = "no_identity_reference"
)

const (
	MinLength = 8
	MaxLength = 128
)

// Strength tiers by score.
const (
	TierWeak       = "Weak"
	TierFair       = "Fair"
	TierGood       = "Good"
	TierStrong     = "Strong"
	TierVeryStrong = "Very Strong"
)

// commonPasswords is a fixed known-weak set. Matching is case-insensitive.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"letmein123":  {},
	"iloveyou":    {},
	"admin123":    {},
	"welcome1":    {},
	"sunshine":    {},
	"football":    {},
	"baseball":    {},
	"dragon123":   {},
	"monkey123":   {},
	"abc12345":    {},
	"trustno1":    {},
	"superman":    {},
}

// sequentialPatterns is the fixed low-entropy pattern set: keyboard rows
// and trivial runs, matched as substrings case-insensitively.
var sequentialPatterns = []string{
	"12345", "23456", "34567", "45678", "56789", "67890",
	"abcde", "bcdef", "cdefg", "defgh", "efghi",
	"qwert", "werty", "ertyu", "rtyui", "tyuio", "yuiop",
	"asdfg", "sdfgh", "dfghj", "fghjk", "ghjkl",
	"zxcvb", "xcvbn", "cvbnm",
	"09876", "98765", "87654", "76543", "65432", "54321",
	"edcba", "dcba",
}

// StrengthResult is the full policy verdict for one candidate secret.
// Validity requires every requirement, independent of the numeric score.
type StrengthResult struct {
	Valid       bool     `json:"valid"`
	Score       int      `json:"score"`
	Tier        string   `json:"tier"`
	Unmet       []string `json:"unmet_requirements"`
	Suggestions []string `json:"suggestions"`
}

// ClassFlags reports which character classes a secret contains. It is
// persisted on credential history rows as strength metadata.
type ClassFlags struct {
	Lowercase bool
	Uppercase bool
	Digit     bool
	Symbol    bool
}

// Classes scans the secret once and reports its character classes.
func Classes(secret string) ClassFlags {
	var f ClassFlags
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			f.Lowercase = true
		case unicode.IsUpper(r):
			f.Uppercase = true
		case unicode.IsDigit(r):
			f.Digit = true
		default:
			f.Symbol = true
		}
	}
	return f
}

func (f ClassFlags) count() int {
	n := 0
	for _, ok := range []bool{f.Lowercase, f.Uppercase, f.Digit, f.Symbol} {
		if ok {
			n++
		}
	}
	return n
}

// Evaluate scores a candidate secret against the policy. The optional
// email forbids embedding tokens of its local part. Pure function: no
// side effects, failures are encoded in the result, never returned.
func Evaluate(secret, email string) StrengthResult {
	flags := Classes(secret)
	lowered := strings.ToLower(secret)

	checks := []struct {
		name       string
		ok         bool
		suggestion string
	}{
		{ReqMinLength, len(secret) >= MinLength, "use at least 8 characters"},
		{ReqMaxLength, len(secret) <= MaxLength, "use at most 128 characters"},
		{ReqLowercase, flags.Lowercase, "add a lowercase letter"},
		{ReqUppercase, flags.Uppercase, "add an uppercase letter"},
		{ReqDigit, flags.Digit, "add a digit"},
		{ReqSymbol, flags.Symbol, "add a symbol"},
		{ReqNotCommon, !isCommon(lowered), "avoid well-known passwords"},
		{ReqNoSequence, !hasSequentialPattern(lowered), "avoid sequential or keyboard patterns"},
		{ReqNoIdentityRef, !containsIdentity(lowered, email), "do not include parts of your email address"},
	}

	result := StrengthResult{}
	satisfied := 0
	for _, c := range checks {
		if c.ok {
			satisfied++
			continue
		}
		result.Unmet = append(result.Unmet, c.name)
		result.Suggestions = append(result.Suggestions, c.suggestion)
	}
	result.Valid = len(result.Unmet) == 0

	// Weights: 60 requirements, 15 length, 15 class diversity, 10 unique
	// character ratio. Sum is 100; score clamped to [0,100].
	score := float64(satisfied) / float64(len(checks)) * 60
	score += lengthBonus(len(secret))
	score += float64(flags.count()) / 4 * 15
	score += uniqueRatio(secret) * 10
	result.Score = clamp(int(score+0.5), 0, 100)
	result.Tier = tierFor(result.Score)

	return result
}

func lengthBonus(n int) float64 {
	switch {
	case n >= 12:
		return 15
	case n >= 10:
		return 10
	case n >= MinLength:
		return 5
	default:
		return 0
	}
}

func uniqueRatio(secret string) float64 {
	if secret == "" {
		return 0
	}
	seen := make(map[rune]struct{}, len(secret))
	total := 0
	for _, r := range secret {
		seen[r] = struct{}{}
		total++
	}
	return float64(len(seen)) / float64(total)
}

func tierFor(score int) string {
	switch {
	case score < 50:
		return TierWeak
	case score < 65:
		return TierFair
	case score < 80:
		return TierGood
	case score < 90:
		return TierStrong
	default:
		return TierVeryStrong
	}
}

func isCommon(lowered string) bool {
	_, ok := commonPasswords[lowered]
	return ok
}

func hasSequentialPattern(lowered string) bool {
	for _, p := range sequentialPatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// containsIdentity rejects secrets embedding any token of the email's
// local part longer than two characters. Tokens split on common
// separators.
func containsIdentity(lowered, email string) bool {
	if email == "" {
		return false
	}
	local := strings.ToLower(email)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	for _, token := range strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	}) {
		if len(token) > 2 && strings.Contains(lowered, token) {
			return true
		}
	}
	return false
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
