package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteSink 将页面正文写入单表 pages(key, body, stored_at)。
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink 打开（或创建）filename 指向的数据库并建表。
func NewSQLiteSink(filename string) (*SQLiteSink, error) {
	if filename == "" {
		return nil, errors.New("sqlite path required")
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			key TEXT PRIMARY KEY,
			body BLOB,
			stored_at INTEGER
		)`,
		"PRAGMA journal_mode=WAL",
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Put(ctx context.Context, key string, body []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if body == nil {
		body = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO pages (key, body, stored_at) VALUES (?, ?, ?)",
		key, body, time.Now().Unix())
	return err
}

// Close 释放数据库连接。
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
