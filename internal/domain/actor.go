package domain

// Actor authenticated caller of an engine operation
type Actor struct {
	UserID  int64
	IsAdmin bool
}
