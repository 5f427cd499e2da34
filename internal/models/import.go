package models

// ImportRowError reports one rejected CSV row. Row counts the header as 1.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a CSV import batch.
type ImportResult struct {
	Imported int              `json:"imported"`
	Updated  int              `json:"updated"`
	Errors   []ImportRowError `json:"errors"`
}
