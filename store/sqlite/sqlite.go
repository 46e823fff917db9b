/*
Package sqlite provides a SQLite-backed implementation of ledger.Repository.

PURPOSE:
  Persists real entries, accounts, cards and installment plans. Virtual
  (simulation) entries never reach this package: ledger.Book rejects them
  before any write.

INTERFACES IMPLEMENTED:
  ledger.Store:        Entry persistence and series replacement
  ledger.CatalogStore: Accounts and cards
  ledger.PlanStore:    Installment plans

KEY TABLES:
  entries:      Dated money movements, amounts in integer cents
  accounts:     Bank, savings, investment and cash accounts
  cards:        Credit cards (closing day, due day, payer account)
  plans:        One row per purchase
  installments: One row per installment of a plan

INDEXES:
  - idx_entries_date: Load order (date, id), the projection hot path
  - idx_entries_recurrence: Series replacement
  - idx_entries_card_statement: Card payments per statement

DATES:
  Dates are stored as "YYYY-MM-DD" and competencies as "YYYY-MM" so
  lexicographic order is chronological order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  book := ledger.NewBook(store, nil)

MIGRATION:
  Versioned migrations are embedded (migrations/*.sql) and applied with
  golang-migrate on New().

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/warp/cashflow-engine/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements ledger.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ ledger.Repository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		// Every connection to :memory: is a distinct database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the embedded migrations. The migrate instance is not
// closed: its database driver would close s.db with it.
func (s *Store) migrate() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// =============================================================================
// ENTRY STORE (ledger.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append adds an entry.
func (s *Store) Append(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendEntry(ctx, s.db, e)
}

func (s *Store) appendEntry(ctx context.Context, db execer, e ledger.Entry) error {
	query := `
		INSERT INTO entries
		(id, date, amount_cents, kind, pair_id, account_id, description, category,
		 settled, recurrence_id, card_id, statement, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		string(e.ID),
		e.Date.String(),
		e.Amount.Cents(),
		string(e.Kind),
		e.PairID,
		string(e.AccountID),
		e.Description,
		e.Category,
		e.Settled,
		e.RecurrenceID,
		string(e.CardID),
		competencyText(e.Statement),
		now(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("entry %s: %w", e.ID, ledger.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// AppendBatch adds multiple entries atomically.
func (s *Store) AppendBatch(ctx context.Context, es []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, e := range es {
			if err := s.appendEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

const entryColumns = `id, date, amount_cents, kind, pair_id, account_id, description, category,
		       settled, recurrence_id, card_id, statement`

// Load returns every entry ordered by date, then id.
func (s *Store) Load(ctx context.Context) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		ORDER BY date ASC, id ASC
	`
	return s.queryEntries(ctx, query)
}

// LoadRange returns entries dated within [from, to].
func (s *Store) LoadRange(ctx context.Context, from, to ledger.Date) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, id ASC
	`
	return s.queryEntries(ctx, query, from.String(), to.String())
}

// ReplaceSeries deletes every entry of recurrenceID and inserts es, in
// one transaction.
func (s *Store) ReplaceSeries(ctx context.Context, recurrenceID string, es []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE recurrence_id = ?", recurrenceID); err != nil {
			return fmt.Errorf("failed to delete series %s: %w", recurrenceID, err)
		}
		for _, e := range es {
			if err := s.appendEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSeries deletes every entry of recurrenceID.
func (s *Store) DeleteSeries(ctx context.Context, recurrenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE recurrence_id = ?", recurrenceID)
	if err != nil {
		return fmt.Errorf("failed to delete series %s: %w", recurrenceID, err)
	}
	return nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e                       ledger.Entry
		id, date, kind, account string
		card, statement         string
		cents                   int64
	)
	err := rows.Scan(&id, &date, &cents, &kind, &e.PairID, &account, &e.Description, &e.Category,
		&e.Settled, &e.RecurrenceID, &card, &statement)
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.ID = ledger.EntryID(id)
	e.Amount = ledger.Money(cents)
	e.Kind = ledger.Kind(kind)
	e.AccountID = ledger.AccountID(account)
	e.CardID = ledger.CardID(card)
	if e.Date, err = ledger.ParseDate(date); err != nil {
		return ledger.Entry{}, fmt.Errorf("entry %s: %w", id, err)
	}
	if e.Statement, err = parseCompetency(statement); err != nil {
		return ledger.Entry{}, fmt.Errorf("entry %s: %w", id, err)
	}
	return e, nil
}

// =============================================================================
// CATALOG STORE (ledger.CatalogStore interface)
// =============================================================================

// SaveAccount inserts or updates an account.
func (s *Store) SaveAccount(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accounts (id, name, type, opened_on, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			opened_on = excluded.opened_on
	`
	_, err := s.db.ExecContext(ctx, query, string(a.ID), a.Name, string(a.Type), dateText(a.OpenedOn), now())
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by id.
func (s *Store) GetAccount(ctx context.Context, id ledger.AccountID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT id, name, type, opened_on FROM accounts WHERE id = ?", string(id))
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
	}
	return a, err
}

// ListAccounts returns every account ordered by id.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, type, opened_on FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (ledger.Account, error) {
	var id, name, typ, opened string
	if err := row.Scan(&id, &name, &typ, &opened); err != nil {
		return ledger.Account{}, err
	}
	a := ledger.Account{ID: ledger.AccountID(id), Name: name, Type: ledger.AccountType(typ)}
	if opened != "" {
		d, err := ledger.ParseDate(opened)
		if err != nil {
			return ledger.Account{}, fmt.Errorf("account %s: %w", id, err)
		}
		a.OpenedOn = d
	}
	return a, nil
}

// SaveCard inserts or updates a card.
func (s *Store) SaveCard(ctx context.Context, c ledger.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO cards (id, name, closing_day, due_day, account_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			closing_day = excluded.closing_day,
			due_day = excluded.due_day,
			account_id = excluded.account_id
	`
	_, err := s.db.ExecContext(ctx, query, string(c.ID), c.Name, c.ClosingDay, c.DueDay, string(c.AccountID), now())
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// GetCard retrieves a card by id.
func (s *Store) GetCard(ctx context.Context, id ledger.CardID) (ledger.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT id, name, closing_day, due_day, account_id FROM cards WHERE id = ?", string(id))
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Card{}, fmt.Errorf("card %s: %w", id, ledger.ErrCardNotFound)
	}
	return c, err
}

// ListCards returns every card ordered by id.
func (s *Store) ListCards(ctx context.Context) ([]ledger.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, closing_day, due_day, account_id FROM cards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []ledger.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func scanCard(row scanner) (ledger.Card, error) {
	var id, name, account string
	var c ledger.Card
	if err := row.Scan(&id, &name, &c.ClosingDay, &c.DueDay, &account); err != nil {
		return ledger.Card{}, err
	}
	c.ID = ledger.CardID(id)
	c.Name = name
	c.AccountID = ledger.AccountID(account)
	return c, nil
}

// =============================================================================
// PLAN STORE (ledger.PlanStore interface)
// =============================================================================

// SavePlan stores plan, replacing any plan with the same purchase id.
func (s *Store) SavePlan(ctx context.Context, plan ledger.InstallmentPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deletePlan(ctx, tx, plan.PurchaseID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plans (purchase_id, card_id, purchase_date, total_cents, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, plan.PurchaseID, string(plan.CardID), plan.PurchaseDate.String(), plan.Total.Cents(), plan.Description, now())
		if err != nil {
			return fmt.Errorf("failed to save plan %s: %w", plan.PurchaseID, err)
		}
		for _, inst := range plan.Installments {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO installments (purchase_id, number, amount_cents, competency)
				VALUES (?, ?, ?, ?)
			`, plan.PurchaseID, inst.Number, inst.Amount.Cents(), inst.Competency.String())
			if err != nil {
				return fmt.Errorf("failed to save installment %d of %s: %w", inst.Number, plan.PurchaseID, err)
			}
		}
		return nil
	})
}

// DeletePlan removes a plan and its installments.
func (s *Store) DeletePlan(ctx context.Context, purchaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return deletePlan(ctx, tx, purchaseID)
	})
}

func deletePlan(ctx context.Context, tx *sql.Tx, purchaseID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM installments WHERE purchase_id = ?", purchaseID); err != nil {
		return fmt.Errorf("failed to delete installments of %s: %w", purchaseID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM plans WHERE purchase_id = ?", purchaseID); err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", purchaseID, err)
	}
	return nil
}

// LoadPlans returns the plans of a card ordered by purchase date, then id.
func (s *Store) LoadPlans(ctx context.Context, cardID ledger.CardID) ([]ledger.InstallmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT p.purchase_id, p.card_id, p.purchase_date, p.total_cents, p.description,
		       i.number, i.amount_cents, i.competency
		FROM plans p
		JOIN installments i ON i.purchase_id = p.purchase_id
		WHERE p.card_id = ?
		ORDER BY p.purchase_date ASC, p.purchase_id ASC, i.number ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(cardID))
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []ledger.InstallmentPlan
	for rows.Next() {
		var (
			purchaseID, card, date, description, competency string
			total, amount                                   int64
			number                                          int
		)
		if err := rows.Scan(&purchaseID, &card, &date, &total, &description, &number, &amount, &competency); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}

		if n := len(plans); n == 0 || plans[n-1].PurchaseID != purchaseID {
			purchased, err := ledger.ParseDate(date)
			if err != nil {
				return nil, fmt.Errorf("plan %s: %w", purchaseID, err)
			}
			plans = append(plans, ledger.InstallmentPlan{
				PurchaseID:   purchaseID,
				CardID:       ledger.CardID(card),
				PurchaseDate: purchased,
				Total:        ledger.Money(total),
				Description:  description,
			})
		}

		c, err := ledger.ParseCompetency(competency)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", purchaseID, err)
		}
		last := &plans[len(plans)-1]
		last.Installments = append(last.Installments, ledger.Installment{
			Number:     number,
			Amount:     ledger.Money(amount),
			Competency: c,
		})
	}
	return plans, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all data. Used by tests and demo seeding.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"installments", "plans", "entries", "cards", "accounts"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func dateText(d ledger.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func competencyText(c ledger.Competency) string {
	if c.IsZero() {
		return ""
	}
	return c.String()
}

func parseCompetency(s string) (ledger.Competency, error) {
	if s == "" {
		return ledger.Competency{}, nil
	}
	return ledger.ParseCompetency(s)
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
