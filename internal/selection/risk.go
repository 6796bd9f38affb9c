package selection

import (
	"strings"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/pkg/logger"
)

// Exclusion reasons reported by the risk filter
const (
	ExcludeNamePrefix   = "name_prefix"   // 신규상장(N/C), ST, *ST, S
	ExcludeNameContains = "name_contains" // 이름에 "退" 포함 (상장폐지)
	ExcludeCodePrefix   = "code_prefix"
	ExcludeCodeContains = "code_contains"
)

// RiskRules are the naming patterns that flag a risky security.
// Matching is case-sensitive prefix/substring; any single match excludes the row.
type RiskRules struct {
	NamePrefixes []string `yaml:"name_prefixes" json:"name_prefixes"`
	NameContains []string `yaml:"name_contains" json:"name_contains"`
	CodePrefixes []string `yaml:"code_prefixes" json:"code_prefixes"`
	CodeContains []string `yaml:"code_contains" json:"code_contains"`
}

// DefaultRiskRules returns the built-in exclusion patterns
func DefaultRiskRules() RiskRules {
	return RiskRules{
		NamePrefixes: []string{"C", "N", "*ST", "ST", "S"},
		NameContains: []string{"退"},
		CodePrefixes: []string{"C", "N", "*"},
		CodeContains: []string{"ST"},
	}
}

// RiskFilter removes new listings, special-treatment and delisting securities
// ⭐ SSOT: 위험 종목 제외는 여기서만
type RiskFilter struct {
	rules  RiskRules
	logger *logger.Logger
}

// NewRiskFilter creates a new risk filter
func NewRiskFilter(rules RiskRules, log *logger.Logger) *RiskFilter {
	return &RiskFilter{
		rules:  rules,
		logger: log,
	}
}

// Apply returns the retained rows and the exclusion count per reason.
// A table with neither a code nor a name column is passed through unchanged.
// When only one of the two columns exists, only its rules apply.
func (f *RiskFilter) Apply(table *contracts.Table) (*contracts.Table, map[string]int) {
	excluded := make(map[string]int)

	hasCode := table.Has(contracts.FieldCode)
	hasName := table.Has(contracts.FieldName)
	if table.IsEmpty() || (!hasCode && !hasName) {
		f.logger.WithFields(map[string]interface{}{
			"rows":     table.Len(),
			"has_code": hasCode,
			"has_name": hasName,
		}).Warn("Risk filter skipped")
		return table.Clone(), excluded
	}

	kept := table.Filter(func(r *contracts.SecurityRecord) bool {
		reason := ""
		if hasName {
			reason = f.checkName(r.Name)
		}
		if reason == "" && hasCode {
			reason = f.checkCode(r.Code)
		}
		if reason != "" {
			excluded[reason]++
			return false
		}
		return true
	})

	f.logger.WithFields(map[string]interface{}{
		"total_input": table.Len(),
		"passed":      kept.Len(),
		"excluded":    excluded,
	}).Info("Risk filter completed")

	return kept, excluded
}

// checkName returns the exclusion reason for a display name, or ""
func (f *RiskFilter) checkName(name string) string {
	if hasAnyPrefix(name, f.rules.NamePrefixes) {
		return ExcludeNamePrefix
	}
	if containsAny(name, f.rules.NameContains) {
		return ExcludeNameContains
	}
	return ""
}

// checkCode returns the exclusion reason for an identifier, or ""
func (f *RiskFilter) checkCode(code string) string {
	if hasAnyPrefix(code, f.rules.CodePrefixes) {
		return ExcludeCodePrefix
	}
	if containsAny(code, f.rules.CodeContains) {
		return ExcludeCodeContains
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
