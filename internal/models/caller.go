package models

// Caller - пользователь, от имени которого выполняется запрос.
type Caller struct {
	ID       string
	Username string
}
