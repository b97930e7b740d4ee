package domain

// Market is a named instrument trades are filed under.
type Market struct {
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"` // unix ms
}
