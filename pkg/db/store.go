package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MaxContexts bounds the context sentences stored per word and source.
const MaxContexts = 5

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// CreateOrGetWord returns the id of the word, inserting it if needed. Non-empty
// enrichment fields overwrite stored ones; empty fields never erase them.
func CreateOrGetWord(db DBExecutor, w Word) (int64, error) {
	trimmedWord := strings.TrimSpace(w.Word)
	if trimmedWord == "" {
		return 0, fmt.Errorf("word must be non-empty")
	}
	if w.Language == "" {
		return 0, fmt.Errorf("language must be non-empty")
	}

	var id int64
	query := `INSERT INTO words (word, lemma, language, pronunciation, part_of_speech, translation, definitions)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(word, lemma, language)
			  DO UPDATE SET
			    pronunciation = COALESCE(NULLIF(excluded.pronunciation, ''), words.pronunciation),
			    part_of_speech = COALESCE(NULLIF(excluded.part_of_speech, ''), words.part_of_speech),
			    translation = COALESCE(NULLIF(excluded.translation, ''), words.translation),
			    definitions = COALESCE(NULLIF(excluded.definitions, ''), words.definitions)
			  RETURNING id`

	err := db.QueryRow(query, trimmedWord, w.Lemma, w.Language, w.Pronunciation, w.PartOfSpeech, w.Translation, w.Definitions).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word: %w", err)
	}
	return id, nil
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, sourceType, title, author, website, url, meta string) (int64, error) {
	trimmedSourceType := strings.TrimSpace(sourceType)
	if trimmedSourceType == "" {
		return 0, fmt.Errorf("sourceType must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := db.QueryRow(
			`SELECT id FROM sources WHERE IFNULL(url, '') = ? AND IFNULL(title, '') = ? AND IFNULL(author, '') = ?`,
			url, title, author,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		res, err := db.Exec(
			`INSERT INTO sources (source_type, title, author, website, url, meta) VALUES (?, ?, ?, ?, ?, ?)`,
			trimmedSourceType, title, author, website, url, meta,
		)
		if err != nil {
			// Another transaction inserted the same source; retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}
		return res.LastInsertId()
	}
	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

func getOrCreateSentence(db DBExecutor, text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, nil
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err == nil {
		return id, nil
	} else if err != sql.ErrNoRows {
		return 0, err
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO sentences (text) VALUES (?)`, trimmed); err != nil {
		return 0, err
	}
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// LinkWordToSource links the word and source, adding incrementAmount to the
// occurrence count and storing up to MaxContexts context sentences.
func LinkWordToSource(db DBExecutor, wordID, sourceID int64, example string, contexts []string, incrementAmount int) error {
	if wordID <= 0 {
		return fmt.Errorf("wordID must be positive")
	}
	if sourceID <= 0 {
		return fmt.Errorf("sourceID must be positive")
	}
	if incrementAmount < 1 {
		return fmt.Errorf("incrementAmount must be positive, got %d", incrementAmount)
	}

	exID, err := getOrCreateSentence(db, example)
	if err != nil {
		return fmt.Errorf("get/create example sentence: %w", err)
	}

	var wordSourceID int64
	err = db.QueryRow(`INSERT INTO word_sources (word_id, source_id, example_sentence_id, occurrence_count, first_seen_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(word_id, source_id) DO UPDATE SET
	  occurrence_count = word_sources.occurrence_count + excluded.occurrence_count,
	  example_sentence_id = COALESCE(excluded.example_sentence_id, word_sources.example_sentence_id)
	RETURNING id`, wordID, sourceID, nullableInt64(exID), incrementAmount, time.Now()).Scan(&wordSourceID)
	if err != nil {
		return err
	}

	for _, c := range contexts {
		ctxID, err := getOrCreateSentence(db, c)
		if err != nil {
			return fmt.Errorf("get/create context sentence: %w", err)
		}
		if ctxID == 0 {
			continue
		}
		// INSERT ... SELECT ... WHERE count < MaxContexts keeps the cap atomic.
		_, err = db.Exec(`
			INSERT INTO word_contexts (word_source_id, sentence_id)
			SELECT ?, ?
			WHERE (SELECT COUNT(*) FROM word_contexts WHERE word_source_id = ?) < ?
			ON CONFLICT DO NOTHING`,
			wordSourceID, ctxID, wordSourceID, MaxContexts)
		if err != nil {
			return fmt.Errorf("store context: %w", err)
		}
	}
	return nil
}

// nullableInt64 returns nil for 0 (meaning no sentence) else the value.
func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

// GetWordsBySource returns words associated with a given source id, most frequent first.
func GetWordsBySource(db DBExecutor, sourceID int64) ([]Word, error) {
	rows, err := db.Query(`SELECT w.id, w.word, w.lemma, w.language, w.pronunciation, w.part_of_speech, w.translation, w.definitions
		FROM words w JOIN word_sources ws ON ws.word_id = w.id
		WHERE ws.source_id = ?
		ORDER BY ws.occurrence_count DESC, ws.id ASC`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Word
	for rows.Next() {
		var w Word
		var pron, pos, tr, defs sql.NullString
		if err := rows.Scan(&w.ID, &w.Word, &w.Lemma, &w.Language, &pron, &pos, &tr, &defs); err != nil {
			return nil, err
		}
		w.Pronunciation = pron.String
		w.PartOfSpeech = pos.String
		w.Translation = tr.String
		w.Definitions = defs.String
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWordSource returns the link between a word and a source together with its example.
func GetWordSource(db DBExecutor, wordID, sourceID int64) (WordSource, error) {
	var ws WordSource
	var example sql.NullString
	err := db.QueryRow(`SELECT ws.id, ws.word_id, ws.source_id, s.text, ws.occurrence_count, ws.first_seen_at
		FROM word_sources ws LEFT JOIN sentences s ON s.id = ws.example_sentence_id
		WHERE ws.word_id = ? AND ws.source_id = ?`, wordID, sourceID).
		Scan(&ws.ID, &ws.WordID, &ws.SourceID, &example, &ws.OccurrenceCount, &ws.FirstSeenAt)
	if err != nil {
		return WordSource{}, err
	}
	ws.ExampleSentence = example.String
	return ws, nil
}

// CountContexts returns how many context sentences are stored for a word-source link.
func CountContexts(db DBExecutor, wordSourceID int64) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM word_contexts WHERE word_source_id = ?`, wordSourceID).Scan(&n)
	return n, err
}
