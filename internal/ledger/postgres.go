package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wallets and their entries in PostgreSQL. Mutation
// is admitted through SELECT ... FOR UPDATE row locks, so concurrent units
// of work on the same wallet queue behind each other while different wallets
// never contend.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by the given connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateWallet inserts a zero-balance active wallet for the owner.
func (s *PostgresStore) CreateWallet(ctx context.Context, ownerID, currency string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, err
	}
	w := Wallet{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Currency: currency,
		Status:   WalletStatusActive,
	}
	row := s.db.QueryRow(ctx, `INSERT INTO wallets (id, user_id, currency, balance_cents, status)
        VALUES ($1, $2, $3, 0, $4)
        RETURNING updated_at`, uuid.MustParse(w.ID), owner, w.Currency, w.Status)
	if err := row.Scan(&w.UpdatedAt); err != nil {
		return Wallet{}, err
	}
	w.UpdatedAt = w.UpdatedAt.UTC()
	return w, nil
}

// GetWallet fetches the wallet for an owner without locking. Display only;
// the value may be superseded by an in-flight unit of work.
func (s *PostgresStore) GetWallet(ctx context.Context, ownerID string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, user_id, currency, balance_cents, status, updated_at
        FROM wallets WHERE user_id = $1`, owner)
	return scanWallet(row)
}

// Entries returns the newest entries for a wallet, most recent first.
func (s *PostgresStore) Entries(ctx context.Context, walletID string, limit int) ([]Entry, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet id: %w", err)
	}
	if limit <= 0 {
		limit = DefaultEntryLimit
	}
	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, kind, amount_cents, status, description, created_at
        FROM wallet_entries WHERE wallet_id = $1
        ORDER BY created_at DESC LIMIT $2`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			entryID   uuid.UUID
			wid       uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&entryID, &wid, &e.Kind, &e.Amount, &e.Status, &e.Description, &createdAt); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.WalletID = wid.String()
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Begin opens a database transaction as the unit of work.
func (s *PostgresStore) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &postgresUnitOfWork{tx: tx}, nil
}

type postgresUnitOfWork struct {
	tx pgx.Tx
}

func (u *postgresUnitOfWork) LockWallet(ctx context.Context, ownerID string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := u.tx.QueryRow(ctx, `SELECT id, user_id, currency, balance_cents, status, updated_at
        FROM wallets WHERE user_id = $1 FOR UPDATE`, owner)
	return scanWallet(row)
}

func (u *postgresUnitOfWork) SetBalance(ctx context.Context, walletID string, balance int64) error {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return fmt.Errorf("invalid wallet id: %w", err)
	}
	cmd, err := u.tx.Exec(ctx, `UPDATE wallets SET balance_cents = $1, updated_at = NOW()
        WHERE id = $2`, balance, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("wallet %s not updated", walletID)
	}
	return nil
}

func (u *postgresUnitOfWork) AppendEntry(ctx context.Context, entry Entry) (Entry, error) {
	wid, err := uuid.Parse(entry.WalletID)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid wallet id: %w", err)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = EntryStatusCompleted
	}
	row := u.tx.QueryRow(ctx, `INSERT INTO wallet_entries (id, wallet_id, kind, amount_cents, status, description)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`, uuid.MustParse(entry.ID), wid, string(entry.Kind), entry.Amount, entry.Status, entry.Description)
	if err := row.Scan(&entry.CreatedAt); err != nil {
		return Entry{}, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return entry, nil
}

func (u *postgresUnitOfWork) Commit(ctx context.Context) error {
	return u.tx.Commit(ctx)
}

func (u *postgresUnitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		owner     uuid.UUID
		updatedAt time.Time
	)
	if err := row.Scan(&id, &owner, &w.Currency, &w.Balance, &w.Status, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.OwnerID = owner.String()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
