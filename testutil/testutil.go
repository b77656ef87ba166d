// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/truthpoll/cliparse"
	"github.com/danielhkuo/truthpoll/commitment"
	"github.com/danielhkuo/truthpoll/db"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/models"
)

// Funding given to every test wallet, enough for any scenario's deposits.
const DefaultFunding uint64 = 10_000_000_000

// Start is the clock value every test engine begins at.
var Start = time.Unix(1_700_000_000, 0)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// NewTestStore wraps a fresh test database in a store
func NewTestStore(t *testing.T) (*db.Store, *sql.DB) {
	t.Helper()

	conn := SetupTestDB(t)
	store, err := db.NewStore(conn, db.TypeSQLite)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, conn
}

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Unix() int64 {
	return c.Now().Unix()
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SetUnix moves the clock to the given unix second
func (c *Clock) SetUnix(sec int64) {
	c.Set(time.Unix(sec, 0))
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestEngine bundles an engine with the database and clock behind it
type TestEngine struct {
	*engine.Engine
	DB    *sql.DB
	Store *db.Store
	Clock *Clock
}

// TestParams returns the default protocol constants with a reward floor low
// enough for small worked examples and no delete grace period
func TestParams() engine.Params {
	p := engine.DefaultParams()
	p.MinReward = 1
	p.DeleteGrace = 0
	return p
}

// NewTestEngine creates an engine on a fresh database with a fixed clock
func NewTestEngine(t *testing.T, params engine.Params) *TestEngine {
	t.Helper()

	store, conn := NewTestStore(t)
	clock := NewClock(Start)
	return &TestEngine{
		Engine: engine.New(store, params, engine.WithClock(clock.Now)),
		DB:     conn,
		Store:  store,
		Clock:  clock,
	}
}

// FundWallet credits a participant's wallet
func FundWallet(t *testing.T, eng *engine.Engine, participant string, amount uint64) {
	t.Helper()

	if _, err := eng.Airdrop(context.Background(), participant, amount); err != nil {
		t.Fatalf("Failed to fund %s: %v", participant, err)
	}
}

// JoinTestUser funds a participant with DefaultFunding and joins them
func JoinTestUser(t *testing.T, eng *engine.Engine, participant string) models.UserRecord {
	t.Helper()

	FundWallet(t, eng, participant, DefaultFunding)
	u, err := eng.Join(context.Background(), participant)
	if err != nil {
		t.Fatalf("Failed to join %s: %v", participant, err)
	}
	return u
}

// CreateTestQuestion initializes the asker's counter if needed and creates a
// question whose commit phase ends commitIn after now and whose reveal phase
// lasts revealFor after that
func CreateTestQuestion(t *testing.T, te *TestEngine, asker string, reward uint64, commitIn, revealFor time.Duration) models.Question {
	t.Helper()
	ctx := context.Background()

	if _, err := te.Account(ctx, engine.WalletAccount(asker)); err != nil {
		FundWallet(t, te.Engine, asker, reward+DefaultFunding)
	}
	if _, err := te.InitializeCounter(ctx, asker); err != nil && !errors.Is(err, engine.ErrAlreadyInitialized) {
		t.Fatalf("Failed to initialize counter: %v", err)
	}

	commitEnd := te.Clock.Now().Add(commitIn).Unix()
	q, err := te.CreateQuestion(ctx, asker, models.CreateQuestionRequest{
		Text:          "Will the bridge reopen before winter?",
		Reward:        reward,
		CommitEndTime: commitEnd,
		RevealEndTime: commitEnd + int64(revealFor/time.Second),
	})
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}
	return q
}

// CommitTestVote commits choice under secret
func CommitTestVote(t *testing.T, eng *engine.Engine, voter, questionKey string, choice uint8, secret string) models.Ballot {
	t.Helper()

	digest, err := commitment.Commit(choice, secret)
	if err != nil {
		t.Fatalf("Failed to build commitment: %v", err)
	}
	b, err := eng.CommitVote(context.Background(), voter, questionKey, digest)
	if err != nil {
		t.Fatalf("Failed to commit vote for %s: %v", voter, err)
	}
	return b
}

// RevealTestVote reveals a committed vote
func RevealTestVote(t *testing.T, eng *engine.Engine, voter, questionKey, secret string) models.Ballot {
	t.Helper()

	b, err := eng.RevealVote(context.Background(), voter, questionKey, secret)
	if err != nil {
		t.Fatalf("Failed to reveal vote for %s: %v", voter, err)
	}
	return b
}

// SetReputation overwrites a participant's reputation directly in the store
func SetReputation(t *testing.T, te *TestEngine, participant string, reputation uint8) {
	t.Helper()
	ctx := context.Background()

	err := te.Store.Atomic(ctx, func(tx engine.Tx) error {
		u, err := tx.GetUser(ctx, participant)
		if err != nil {
			return err
		}
		u.Reputation = reputation
		return tx.UpdateUser(ctx, u)
	})
	if err != nil {
		t.Fatalf("Failed to set reputation for %s: %v", participant, err)
	}
}

// Balance returns an account balance, or zero if the account does not exist
func Balance(t *testing.T, conn *sql.DB, key string) uint64 {
	t.Helper()

	var balance uint64
	err := conn.QueryRow(`SELECT balance FROM ledger_account WHERE account_key = ?`, key).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0
	}
	if err != nil {
		t.Fatalf("Failed to read balance of %s: %v", key, err)
	}
	return balance
}

// LedgerTotal sums every ledger balance
func LedgerTotal(t *testing.T, conn *sql.DB) uint64 {
	t.Helper()

	var total uint64
	if err := conn.QueryRow(`SELECT COALESCE(SUM(balance), 0) FROM ledger_account`).Scan(&total); err != nil {
		t.Fatalf("Failed to sum ledger: %v", err)
	}
	return total
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: db.TypeSQLite,
		AdminKeySalt: "test-admin-salt",
		FeeReceiver:  "fee_receiver",
		DeleteGrace:  0,
		DevFaucet:    true,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
