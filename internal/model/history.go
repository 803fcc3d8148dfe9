package model

// HistoryEntry is one item of a player's submitted browsing history.
// Only the display label and timestamp are required; the rest is
// whatever the submitting client happened to have.
type HistoryEntry struct {
	Title         string `json:"title"`
	URL           string `json:"url,omitempty"`
	LastVisitTime int64  `json:"lastVisitTime"`
	VisitCount    int    `json:"visitCount,omitempty"`
}
