package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/champlint/internal/ir"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "champlint.db"))
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRun(id string, started time.Time) ir.Run {
	return ir.Run{
		ID:        id,
		StartedAt: started,
		Source:    "cypress/e2e",
		IRVersion: ir.Version,
		Suite: ir.Suite{
			Files: []string{"a.cy.js"},
			Cases: []ir.TestCase{{Name: "login", Kind: ir.KindTest, Loc: ir.Location{File: "a.cy.js", Line: 1, Column: 1}}},
		},
		Findings: []ir.Finding{
			{ID: "no-assert-in-hook-1", RuleID: "no-assert-in-hook", Severity: ir.SeverityViolation, Loc: ir.Location{File: "a.cy.js", Line: 2, Column: 3}, Message: "m1"},
			{ID: "no-empty-test-1", RuleID: "no-empty-test", Severity: ir.SeverityWarning, Loc: ir.Location{File: "a.cy.js", Line: 5, Column: 3}, Test: "noop", Message: "m2"},
			{ID: "unsupported-construct-1", RuleID: "unsupported-construct", Severity: ir.SeveritySkipped, Loc: ir.Location{File: "a.cy.js", Line: 9, Column: 3}, Message: "m3"},
		},
	}
}

func TestRuns_SaveLoadList(t *testing.T) {
	db := openTestDB(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	r1 := sampleRun("run-1", t0)
	r2 := sampleRun("run-2", t0.Add(time.Hour))
	r2.Findings = r2.Findings[1:]
	require.NoError(t, db.SaveRun(&r1))
	require.NoError(t, db.SaveRun(&r2))
	// saving again replaces findings instead of duplicating them
	require.NoError(t, db.SaveRun(&r1))

	got, err := db.LoadRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, r1.Findings, got.Findings)
	assert.Equal(t, "login", got.Suite.Cases[0].Name)

	latest, err := db.LoadLatestRun()
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)

	rows, err := db.ListRuns(10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "run-2", rows[0].ID)
	assert.Equal(t, 2, rows[0].Findings)
	assert.Equal(t, 0, rows[0].Violations)
	assert.Equal(t, 3, rows[1].Findings)
	assert.Equal(t, 1, rows[1].Violations)

	ok, err := db.HasRun("run-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.HasRun("nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = db.LoadRun("nope")
	assert.Error(t, err)
}

func TestListFindings_MinSeverityKeepsSkipped(t *testing.T) {
	db := openTestDB(t)
	r := sampleRun("run-1", time.Now())
	require.NoError(t, db.SaveRun(&r))

	all, err := db.ListFindings("run-1", "warning")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	strict, err := db.ListFindings("run-1", "violation")
	require.NoError(t, err)
	require.Len(t, strict, 2)
	assert.Equal(t, "no-assert-in-hook", strict[0].RuleID)
	assert.Equal(t, ir.SeveritySkipped, strict[1].Severity)
}

func TestWaivers_CreateListRevoke(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateWaiver(WaiverInput{
		RuleID: "no-fixed-wait", File: "a.cy.js", Reason: "legacy animation",
		CreatedBy: "admin", ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = db.CreateWaiver(WaiverInput{
		RuleID: "no-empty-test", Reason: "expired", CreatedBy: "admin", ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	active, err := db.ListWaivers(true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a.cy.js", active[0].File)
	assert.Empty(t, active[0].Test)

	all, err := db.ListWaivers(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, db.RevokeWaiver(id))
	assert.ErrorIs(t, db.RevokeWaiver(id), ErrNoRows)

	active, err = db.ListWaivers(true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUsersAndSessions(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CreateUser("ada", "hash", "root")
	assert.Error(t, err)

	uid, err := db.CreateUser("ada", "hash", RoleAdmin)
	require.NoError(t, err)

	u, hash, err := db.GetUserByUsername("ada")
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)
	assert.True(t, u.IsAdmin())

	require.NoError(t, db.CreateSession(uid, "tok", time.Now().Add(time.Hour)))
	su, err := db.GetSession("tok")
	require.NoError(t, err)
	assert.Equal(t, "ada", su.Username)

	require.NoError(t, db.CreateSession(uid, "old", time.Now().Add(-time.Hour)))
	_, err = db.GetSession("old")
	assert.Error(t, err)

	require.NoError(t, db.DeleteSession("tok"))
	_, err = db.GetSession("tok")
	assert.Error(t, err)

	assert.NoError(t, db.LogAudit("ada", "login", "", map[string]any{"ip": "127.0.0.1"}))
}
