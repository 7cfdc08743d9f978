package db

import (
	"database/sql"
	"errors"
	"time"
)

// Cache stores fetched pages and translations so repeated runs avoid the network.
// It implements translate.Store.
type Cache struct {
	db *sql.DB
	// MaxAge expires pages older than this; zero keeps them forever.
	MaxAge time.Duration
}

func NewCache(conn *sql.DB) *Cache {
	return &Cache{db: conn}
}

// GetPage returns a cached page body.
func (c *Cache) GetPage(url string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt time.Time
	err := c.db.QueryRow(`SELECT body, fetched_at FROM pages WHERE url = ?`, url).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.MaxAge > 0 && time.Since(fetchedAt) > c.MaxAge {
		return nil, false, nil
	}
	return body, true, nil
}

// PutPage stores or replaces a page body.
func (c *Cache) PutPage(url string, body []byte) error {
	_, err := c.db.Exec(`INSERT INTO pages (url, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, time.Now())
	return err
}

// GetTranslation returns a stored translation. An empty string with ok == true is a
// remembered absence.
func (c *Cache) GetTranslation(source, target, word string) (string, bool, error) {
	var tr string
	err := c.db.QueryRow(`SELECT translation FROM translations WHERE source_lang = ? AND target_lang = ? AND word = ?`,
		source, target, word).Scan(&tr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tr, true, nil
}

func (c *Cache) PutTranslation(source, target, word, translation string) error {
	_, err := c.db.Exec(`INSERT INTO translations (source_lang, target_lang, word, translation) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_lang, target_lang, word) DO UPDATE SET translation = excluded.translation`,
		source, target, word, translation)
	return err
}
