package verification

// Evaluate maps a score and threshold to a boolean verdict: true means the
// content is judged authentic. The comparison is strictly less-than; a score
// exactly equal to the threshold is judged synthetic. That tie-break is
// policy and must not change.
func Evaluate(score, threshold Score) bool {
	return score < threshold
}
