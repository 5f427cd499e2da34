package models

// StatsOverview holds site-wide totals for the admin dashboard.
type StatsOverview struct {
	TotalStories  int `json:"total_stories" db:"total_stories"`
	TotalPassages int `json:"total_passages" db:"total_passages"`
	TotalVisits   int `json:"total_visits" db:"total_visits"`
	// TotalReaders counts distinct signed-in readers seen in visit logs.
	TotalReaders  int `json:"total_readers" db:"total_readers"`
}

type PassageVisitStat struct {
	PassageID   string `json:"passage_id" db:"passage_id"`
	PassageName string `json:"passage_name" db:"passage_name"`
	VisitCount  int    `json:"visit_count" db:"visit_count"`
}
