package main

// CandidateLabels is the fixed label set offered to the classifier. Order
// matters only for prompt construction; the classifier returns its own
// ranking.
var CandidateLabels = []string{
	"card issue",
	"account issue",
	"loan issue",
	"digital banking issue",
	"fraud or security issue",
	"general inquiry",
	"praise",
}

// queueByLabel routes a label to its support-department queue.
var queueByLabel = map[string]string{
	"card issue":              "QUEUE_CARDS",
	"account issue":           "QUEUE_ACCOUNTS",
	"loan issue":              "QUEUE_LOANS",
	"digital banking issue":   "QUEUE_DIGITAL",
	"fraud or security issue": "QUEUE_FRAUD",
	"general inquiry":         "QUEUE_GENERAL",
	"praise":                  "QUEUE_SOCIAL",
}

// issueLabels is the subset of labels that represent actionable problems.
// Praise and general inquiries never become tickets.
var issueLabels = map[string]bool{
	"card issue":              true,
	"account issue":           true,
	"loan issue":              true,
	"digital banking issue":   true,
	"fraud or security issue": true,
}

// QueueForLabel returns the department queue for a label, or "" when the
// label is not in the routing table.
func QueueForLabel(label string) string {
	return queueByLabel[label]
}

// IsIssueLabel reports whether a label belongs to the issue subset.
func IsIssueLabel(label string) bool {
	return issueLabels[label]
}
