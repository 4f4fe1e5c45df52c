package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL statements in dependency order.  user_movies is a
// pure association table: its composite primary key rejects duplicate
// pairs and both foreign keys cascade so deleting a parent row never
// leaves a dangling association behind.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id   BIGINT       NOT NULL AUTO_INCREMENT,
		name VARCHAR(100) NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		id       BIGINT       NOT NULL AUTO_INCREMENT,
		name     VARCHAR(200) NOT NULL,
		director VARCHAR(100) NOT NULL,
		year     INT          NOT NULL,
		rating   DOUBLE       NOT NULL,
		poster   VARCHAR(500) NULL,
		PRIMARY KEY (id),
		KEY idx_movies_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_movies (
		user_id  BIGINT NOT NULL,
		movie_id BIGINT NOT NULL,
		PRIMARY KEY (user_id, movie_id),
		KEY idx_user_movies_movie (movie_id),
		CONSTRAINT fk_user_movies_user  FOREIGN KEY (user_id)  REFERENCES users (id)  ON DELETE CASCADE,
		CONSTRAINT fk_user_movies_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the users, movies and user_movies tables when they do
// not exist yet.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
