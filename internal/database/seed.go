package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	username, email, password, role string
}

var seedUsers = []seedUser{
	{"editor", "editor@newsroom.local", "editor", "editor"},
	{"author", "author@newsroom.local", "author", "authenticated"},
}

var seedCategories = []struct{ name, slug string }{
	{"News", "news"},
	{"Technology", "technology"},
	{"Culture", "culture"},
}

// Seed populates the database with initial development data: an editor, a
// regular author, a few categories and one published welcome article. It
// does nothing if any user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	userIDs := make(map[string]int64, len(seedUsers))
	for _, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}
		var id int64
		err = tx.QueryRow(`
			INSERT INTO users (username, email, password_hash, role_id)
			VALUES ($1, $2, $3, (SELECT id FROM roles WHERE name = $4))
			RETURNING id
		`, u.username, u.email, string(hash), u.role).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert user %s: %w", u.username, err)
		}
		userIDs[u.username] = id
	}

	categoryIDs := make(map[string]int64, len(seedCategories))
	for _, c := range seedCategories {
		var id int64
		err := tx.QueryRow(`
			INSERT INTO categories (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, c.name, c.slug).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.slug, err)
		}
		categoryIDs[c.slug] = id
	}

	_, err = tx.Exec(`
		INSERT INTO articles (title, slug, content, excerpt, is_featured, reading_time,
		                      tags, published_at, category_id, author_id)
		VALUES ($1, $2, $3, $4, TRUE, 1, '["welcome"]', $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING
	`, "Welcome to Newsroom", "welcome-to-newsroom",
		`"This is the first article. Edit or delete it, then start writing."`,
		"A first article to get you started.", time.Now(),
		categoryIDs["news"], userIDs["author"],
	)
	if err != nil {
		return fmt.Errorf("seed insert article: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	for _, u := range seedUsers {
		slog.Info("database seeded user",
			"username", u.username,
			"password", u.password,
			"role", u.role,
		)
	}
	return nil
}
