package model

// User represents a row in the `users` table.  A user owns a list of
// movies through the `user_movies` association table; the list itself
// is fetched separately so this record stays flat.
//
// Fields:
//
//	ID   – primary key identifier of the user.
//	Name – display name, never empty.
type User struct {
	ID   int64  `json:"id"`   // users.id
	Name string `json:"name"` // users.name
}
