package similarity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/scanmesh/scanmesh/pkg/finding"
)

const (
	tokenOverlapWeight  = 0.40
	fuzzyRatioWeight    = 0.40
	metadataBoostWeight = 0.20
)

// securityKeywords are the tokens that carry meaning across tools' wording.
// Two messages sharing any of them are compared on these tokens only.
var securityKeywords = toSet( //nolint:gochecknoglobals
	"sql", "injection", "sqli", "xss", "scripting", "csrf", "ssrf", "xxe", "rce",
	"command", "traversal", "deserialization", "redirect", "ldap", "xpath", "template",
	"prototype", "pollution", "regex", "redos", "overflow", "race", "eval", "exec", "shell",
	"secret", "password", "credential", "credentials", "token", "apikey", "key", "hardcoded",
	"crypto", "cryptographic", "cipher", "weak", "hash", "md5", "sha1", "random", "insecure",
	"tls", "ssl", "certificate", "authentication", "authorization", "auth", "session", "cookie",
	"privilege", "escalation", "root", "permission", "permissions", "sensitive", "exposure",
	"leak", "disclosure", "upload", "cors", "header", "vulnerable", "vulnerability", "outdated",
	"dependency", "cve", "cwe", "unsafe", "unvalidated", "sanitization", "validation",
)

var metadataTokenPattern = regexp.MustCompile(`(?i)\b(?:CWE-\d+|CVE-\d{4}-\d+)\b`)

// MessageSimilarity compares the messages of a and b.
// Identical messages after normalization score 1. Otherwise keyword overlap,
// edit distance, and shared CWE/CVE tokens are blended.
func (c *Calculator) MessageSimilarity(a, b *finding.Finding) float64 {
	return messageScore(NewFeatures(a), NewFeatures(b))
}

func messageScore(a, b *Features) float64 {
	switch {
	case a.message == "" || b.message == "":
		return 0
	case a.message == b.message:
		return 1
	}
	return blendMessage(tokenOverlap(a, b), fuzzyRatio(a.message, b.message), metadataBoost(a, b))
}

// blendMessage is monotonic in each argument.
func blendMessage(overlap, fuzzy, boost float64) float64 {
	return clamp(tokenOverlapWeight*overlap + fuzzyRatioWeight*fuzzy + metadataBoostWeight*boost)
}

func normalizeMessage(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func tokenOverlap(a, b *Features) float64 {
	for k := range a.keywords {
		if _, ok := b.keywords[k]; ok {
			return jaccard(a.keywords, b.keywords)
		}
	}
	return jaccard(a.tokens, b.tokens)
}

func keywords(tokens map[string]struct{}) map[string]struct{} {
	kw := map[string]struct{}{}
	for t := range tokens {
		if _, ok := securityKeywords[t]; ok {
			kw[t] = struct{}{}
		}
	}
	return kw
}

func fuzzyRatio(normA, normB string) float64 {
	longest := max(utf8.RuneCountInString(normA), utf8.RuneCountInString(normB))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(normA, normB))/float64(longest)
}

func metadataTokens(message string) map[string]struct{} {
	tokens := metadataTokenPattern.FindAllString(message, -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.ToUpper(t)] = struct{}{}
	}
	return set
}

func metadataBoost(a, b *Features) float64 {
	for t := range a.metadataTokens {
		if _, ok := b.metadataTokens[t]; ok {
			return 1
		}
	}
	return 0
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
