package storage

import (
	"database/sql"
	"fmt"
	"time"
)

type Waiver struct {
	ID         int64      `json:"id"`
	RuleID     string     `json:"rule_id"`
	File       string     `json:"file,omitempty"`
	Test       string     `json:"test,omitempty"`
	PatternSub string     `json:"pattern_sub,omitempty"`
	Reason     string     `json:"reason"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// WaiverInput is what a caller supplies to create a waiver.
type WaiverInput struct {
	RuleID     string
	File       string
	Test       string
	PatternSub string
	Reason     string
	CreatedBy  string
	ExpiresAt  time.Time
}

func (db *DB) CreateWaiver(in WaiverInput) (int64, error) {
	res, err := db.conn.Exec(`
INSERT INTO waivers(rule_id, file, test, pattern_sub, reason, expires_at, created_by, created_at)
VALUES(?,?,?,?,?,?,?,?)`,
		in.RuleID, nz(in.File), nz(in.Test), nz(in.PatternSub), in.Reason,
		in.ExpiresAt.UTC().Format(time.RFC3339Nano), in.CreatedBy, nowString())
	if err != nil {
		return 0, fmt.Errorf("create waiver: %w", err)
	}
	return res.LastInsertId()
}

// RevokeWaiver marks an active waiver revoked. The revoker is kept in audit.
func (db *DB) RevokeWaiver(id int64) error {
	return execOne(db.conn, `UPDATE waivers SET revoked_at=? WHERE id=? AND revoked_at IS NULL`, nowString(), id)
}

func (db *DB) ListWaivers(activeOnly bool) ([]Waiver, error) {
	q := `
SELECT id, rule_id, COALESCE(file,''), COALESCE(test,''), COALESCE(pattern_sub,''),
       reason, expires_at, created_by, created_at, revoked_at
FROM waivers`
	var args []any
	if activeOnly {
		q += ` WHERE (revoked_at IS NULL) AND (expires_at > ?)`
		args = append(args, nowString())
	}
	q += ` ORDER BY id DESC`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Waiver
	for rows.Next() {
		var (
			w       Waiver
			exp, ca string
			ra      sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.RuleID, &w.File, &w.Test, &w.PatternSub, &w.Reason, &exp, &w.CreatedBy, &ca, &ra); err != nil {
			return nil, err
		}
		w.ExpiresAt = parseTime(exp)
		w.CreatedAt = parseTime(ca)
		if ra.Valid {
			t := parseTime(ra.String)
			w.RevokedAt = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nz(s string) any {
	if s == "" {
		return nil
	}
	return s
}
