package trendmatcher

import (
	"fmt"

	"repack-agent/internal/models"
	"repack-agent/shared/config"
)

// accept applies the acceptance gate: all four predicates must hold at
// once. The gate is conjunctive rather than weighted on purpose - the
// system prefers false negatives over dishonest repackages, so a
// borderline pair is rejected with no partial credit. The returned reason
// names the first failing predicate.
func accept(eval *models.Evaluation, th config.Thresholds) (bool, string) {
	if !eval.Allowed {
		return false, "model verdict: not allowed"
	}
	if eval.SemanticRelevance < th.SemanticRelevance {
		return false, fmt.Sprintf("semantic relevance %.2f below %.2f", eval.SemanticRelevance, th.SemanticRelevance)
	}
	if eval.IntroSupport < th.IntroSupport {
		return false, fmt.Sprintf("intro support %.2f below %.2f", eval.IntroSupport, th.IntroSupport)
	}
	if eval.HonestyRisk > th.HonestyRisk {
		return false, fmt.Sprintf("honesty risk %.2f above %.2f", eval.HonestyRisk, th.HonestyRisk)
	}
	return true, ""
}
