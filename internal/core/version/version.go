// Package version pins the algorithm versions stamped into persisted rows.
// Bump a constant whenever the corresponding behavior changes in a way that
// alters output for the same input; a full reclassification then repairs
// rows stamped with older versions
package version

const (
	// Resolver covers the normalization pipeline and suffix table
	Resolver = 1

	// Similarity covers the scorer, blend, and default thresholds
	Similarity = 1

	// Classifier covers the first-occurrence rules and refile counting
	Classifier = 1
)
