// Package history 保存使用者的掃描紀錄。
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"label-analyzer/internal/infrastructure/database"
)

// MaxLimit 單次查詢上限
const MaxLimit = 50

// MaxUserIDLength user_id 欄位長度
const MaxUserIDLength = 128

// Record 一筆掃描紀錄
type Record struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ProductName  string          `json:"product_name"`
	OverallScore int             `json:"overall_score"`
	RiskLevel    string          `json:"risk_level"`
	ImageHash    string          `json:"image_hash"`
	ImageURL     string          `json:"image_url,omitempty"`
	Provider     string          `json:"provider"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Store 掃描紀錄儲存
type Store interface {
	Save(ctx context.Context, rec *Record) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	Close() error
}

// SQLStore 以 database/sql 實作，支援 sqlite / postgres / mysql
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open 依驅動開啟資料庫並建立資料表
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := database.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLStore(ctx, db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore 使用既有連線，並執行 migration
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	driver, err := database.NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate history table: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	dataType, inlineIndex := "TEXT", ""
	switch s.driver {
	case database.DriverMySQL:
		dataType = "MEDIUMTEXT"
		inlineIndex = ",\n\tINDEX idx_scan_history_user (user_id, created_at)"
	case database.DriverPostgres:
		dataType = "JSONB"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS scan_history (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(128) NOT NULL,
	product_name TEXT NOT NULL,
	overall_score INTEGER NOT NULL,
	risk_level VARCHAR(16) NOT NULL,
	image_hash VARCHAR(64) NOT NULL,
	image_url TEXT NOT NULL,
	provider VARCHAR(32) NOT NULL,
	data %s NOT NULL,
	created_at TIMESTAMP NOT NULL%s
)`, dataType, inlineIndex),
	}
	// mysql 沒有 CREATE INDEX IF NOT EXISTS
	if s.driver != database.DriverMySQL {
		stmts = append(stmts, `CREATE INDEX IF NOT EXISTS idx_scan_history_user ON scan_history (user_id, created_at)`)
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save 新增一筆紀錄
func (s *SQLStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" || rec.UserID == "" {
		return fmt.Errorf("history record requires id and user_id")
	}
	if len(rec.UserID) > MaxUserIDLength {
		return fmt.Errorf("user_id exceeds %d bytes", MaxUserIDLength)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data := rec.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	query := s.rebind(`INSERT INTO scan_history
	(id, user_id, product_name, overall_score, risk_level, image_hash, image_url, provider, data, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.ProductName, rec.OverallScore, rec.RiskLevel,
		rec.ImageHash, rec.ImageURL, rec.Provider, string(data), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}
	return nil
}

// ListByUser 依時間新到舊列出，limit 超出範圍時使用 MaxLimit
func (s *SQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	limit = ClampLimit(limit)

	query := s.rebind(`SELECT id, user_id, product_name, overall_score, risk_level, image_hash, image_url, provider, data, created_at
	FROM scan_history WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var data string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ProductName, &rec.OverallScore, &rec.RiskLevel,
			&rec.ImageHash, &rec.ImageURL, &rec.Provider, &data, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Data = json.RawMessage(data)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return records, nil
}

// Close 關閉資料庫
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ClampLimit 預設與上限皆為 MaxLimit
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// rebind 將 ? 佔位符轉為 postgres 的 $n
func (s *SQLStore) rebind(query string) string {
	if s.driver != database.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
