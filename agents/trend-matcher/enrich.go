package trendmatcher

import (
	"strings"

	"repack-agent/internal/models"
)

// themeCluster maps a small keyword set to a broader-vocabulary phrase.
// When any keyword appears in a trend's title or summary, the phrase is
// appended to the retrieval query. This is heuristic query expansion for
// recall, not classification: false positives are fine, the evaluation
// stage recovers precision.
type themeCluster struct {
	name     string
	keywords []string
	phrase   string
}

var themeClusters = []themeCluster{
	{
		name:     "technology",
		keywords: []string{"ai", "artificial intelligence", "chatgpt", "software", "tech", "automation", "robot"},
		phrase:   "technology innovation digital tools software artificial intelligence machine learning automation",
	},
	{
		name:     "taxation",
		keywords: []string{"tax", "irs", "deduction", "vat", "levy"},
		phrase:   "taxes tax planning deductions government revenue fiscal policy personal finance",
	},
	{
		name:     "employment",
		keywords: []string{"job", "jobs", "layoff", "hiring", "unemployment", "salary", "wage", "career"},
		phrase:   "employment careers job market hiring layoffs workplace salaries labor",
	},
	{
		name:     "markets",
		keywords: []string{"stock", "stocks", "market", "invest", "crypto", "bitcoin", "bond", "etf", "inflation", "interest rate"},
		phrase:   "investing stock market portfolio returns financial markets crypto assets inflation interest rates",
	},
	{
		name:     "real estate",
		keywords: []string{"housing", "mortgage", "rent", "property", "real estate", "home price"},
		phrase:   "real estate housing market mortgages property investment rent home ownership",
	},
	{
		name:     "energy",
		keywords: []string{"oil", "gas", "energy", "electricity", "solar", "renewable"},
		phrase:   "energy prices oil gas electricity renewables utilities cost of living",
	},
	{
		name:     "regulation",
		keywords: []string{"law", "regulation", "ban", "court", "ruling", "legislation", "policy"},
		phrase:   "government policy regulation legislation legal changes compliance rules",
	},
}

// enrichTrendQuery builds the retrieval query for a trend: the summary
// plus the phrase of every cluster whose keywords match the combined
// title+summary text. No match returns the summary unmodified.
func enrichTrendQuery(trend *models.Trend) string {
	haystack := strings.ToLower(trend.Title + " " + trend.Summary)

	query := trend.Summary
	for _, cluster := range themeClusters {
		for _, kw := range cluster.keywords {
			if strings.Contains(haystack, kw) {
				query += " " + cluster.phrase
				break
			}
		}
	}
	return query
}
