package idle

// Aggregate reduces one poll's classifications to a verdict. Labels keep
// encounter order and are not deduplicated; "unknown" foreground names count
// as active but are not listed.
func Aggregate(classifications []Classification) PollVerdict {
	verdict := PollVerdict{
		TotalChildren: len(classifications),
		ActiveLabels:  []string{},
	}
	for _, c := range classifications {
		if !c.IsActive() {
			continue
		}
		verdict.ActiveCount++
		if c.Label != "" && c.Label != unknownLabel {
			verdict.ActiveLabels = append(verdict.ActiveLabels, c.Label)
		}
	}
	return verdict
}
