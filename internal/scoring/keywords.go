package scoring

import (
	"sort"
	"strings"
)

// KeywordCategory classifies a keyword match found in a domain name.
type KeywordCategory string

const (
	CategoryTech     KeywordCategory = "tech"
	CategoryAI       KeywordCategory = "ai"
	CategoryFinance  KeywordCategory = "finance"
	CategoryCommerce KeywordCategory = "commerce"
	CategoryWeb      KeywordCategory = "web"
	CategoryMedia    KeywordCategory = "media"

	CategoryAdult KeywordCategory = "adult"
	CategoryJunk  KeywordCategory = "junk"
)

// IsSpam reports whether the category penalizes rather than rewards.
func (c KeywordCategory) IsSpam() bool {
	return c == CategoryAdult || c == CategoryJunk
}

// highValueLexicon maps substrings to the category they signal. Matching is
// substring-based over the lowercased name, same as the market convention
// for appraisal keywords.
var highValueLexicon = map[string]KeywordCategory{
	"tech":    CategoryTech,
	"app":     CategoryTech,
	"dev":     CategoryTech,
	"code":    CategoryTech,
	"smart":   CategoryTech,
	"digital": CategoryTech,
	"systems": CategoryTech,

	"ai":     CategoryAI,
	"bot":    CategoryAI,
	"data":   CategoryAI,
	"neural": CategoryAI,

	"invest":  CategoryFinance,
	"finance": CategoryFinance,
	"money":   CategoryFinance,
	"crypto":  CategoryFinance,
	"nft":     CategoryFinance,
	"forex":   CategoryFinance,
	"trade":   CategoryFinance,
	"capital": CategoryFinance,
	"pay":     CategoryFinance,

	"shop":   CategoryCommerce,
	"store":  CategoryCommerce,
	"market": CategoryCommerce,
	"sale":   CategoryCommerce,
	"buy":    CategoryCommerce,
	"deal":   CategoryCommerce,

	"web":      CategoryWeb,
	"cloud":    CategoryWeb,
	"online":   CategoryWeb,
	"hub":      CategoryWeb,
	"host":     CategoryWeb,
	"platform": CategoryWeb,

	"studio": CategoryMedia,
	"labs":   CategoryMedia,
	"media":  CategoryMedia,
	"design": CategoryMedia,
	"works":  CategoryMedia,
}

var spamLexicon = map[string]KeywordCategory{
	"xxx":   CategoryAdult,
	"porn":  CategoryAdult,
	"adult": CategoryAdult,

	"test":  CategoryJunk,
	"demo":  CategoryJunk,
	"spam":  CategoryJunk,
	"tmp":   CategoryJunk,
	"temp":  CategoryJunk,
	"click": CategoryJunk,
}

// DetectKeywords derives the category hit set for a name. The result is
// sorted so the same name always yields the same slice.
func DetectKeywords(name string) []KeywordCategory {
	name = strings.ToLower(name)
	seen := map[KeywordCategory]bool{}

	for kw, cat := range highValueLexicon {
		if strings.Contains(name, kw) {
			seen[cat] = true
		}
	}
	for kw, cat := range spamLexicon {
		if strings.Contains(name, kw) {
			seen[cat] = true
		}
	}

	out := make([]KeywordCategory, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllHighValueCategories returns every rewarding category, sorted.
func AllHighValueCategories() []KeywordCategory {
	return []KeywordCategory{
		CategoryAI, CategoryCommerce, CategoryFinance,
		CategoryMedia, CategoryTech, CategoryWeb,
	}
}
