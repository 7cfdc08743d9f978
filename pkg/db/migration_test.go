package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func tableColumns(t *testing.T, conn *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := conn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragmas: %v", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

// TestInitDBCreatesSchema verifies InitDB creates every table the cache and the
// exporter rely on.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	for _, table := range []string{"words", "sources", "sentences", "word_sources", "word_contexts", "pages", "translations"} {
		var name string
		if err := dbConn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}

	cols := tableColumns(t, dbConn, "word_sources")
	if !cols["example_sentence_id"] || !cols["occurrence_count"] {
		t.Fatalf("expected example_sentence_id and occurrence_count in word_sources, got %v", cols)
	}
	cols = tableColumns(t, dbConn, "words")
	for _, c := range []string{"pronunciation", "part_of_speech", "translation", "definitions"} {
		if !cols[c] {
			t.Fatalf("expected %s in words, got %v", c, cols)
		}
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "talkwords.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := InitDB(conn); err != nil {
		t.Fatalf("second InitDB: %v", err)
	}
	conn.Close()

	conn, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	conn.Close()
}
