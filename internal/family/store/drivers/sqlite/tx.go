package sqlite

import (
	"context"
	"database/sql"

	"github.com/kinfolkhq/kinfolk/internal/family/store"
)

// txStore is the transaction-scoped view of Store. It hands out the same
// repositories bound to the *sql.Tx and refuses to nest.
type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op. The transaction ends with Commit or Rollback and the
// owning Store keeps the database open.
func (t *txStore) Close() error { return nil }

// Ping is a no-op. A live transaction already holds a connection.
func (t *txStore) Ping(ctx context.Context) error { return nil }

// Tx refuses to nest. SAVEPOINTs could support this if a caller ever needed it.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) Families() store.Families           { return &familiesRepo{db: t.tx} }
func (t *txStore) Memberships() store.Memberships     { return &membershipsRepo{db: t.tx} }
func (t *txStore) Invitations() store.Invitations     { return &invitationsRepo{db: t.tx} }
func (t *txStore) Verifications() store.Verifications { return &verificationsRepo{db: t.tx} }
func (t *txStore) SigningKeys() store.SigningKeys     { return &signingKeysRepo{db: t.tx} }

// ApplyMigrations is a no-op inside a transaction. Migrations run before the
// service takes work.
func (t *txStore) ApplyMigrations() error { return nil }
