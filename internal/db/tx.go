// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// txTimeout bounds how long a request may hold row locks.
const txTimeout = 60 * time.Second

type lazyTxKey struct{}

// lazyTx opens its transaction on the first statement, so requests that
// never touch the database never pay for BEGIN/COMMIT. A failed BEGIN is
// sticky: the rest of the request must not run outside the transaction.
type lazyTx struct {
	ctx   context.Context
	begin func(context.Context) (TxInterface, error)

	tx     TxInterface
	err    error
	cancel context.CancelFunc
	hooks  []func(context.Context)
}

func (lt *lazyTx) get() (TxInterface, error) {
	if lt.err != nil {
		return nil, lt.err
	}
	if lt.tx != nil {
		return lt.tx, nil
	}

	ctx, cancel := context.WithTimeout(lt.ctx, txTimeout)
	tx, err := lt.begin(ctx)
	if err != nil {
		cancel()
		lt.err = fmt.Errorf("failed to open transaction: %w", err)
		return nil, lt.err
	}

	lt.tx, lt.cancel = tx, cancel
	return tx, nil
}

func (lt *lazyTx) release() {
	if lt.cancel != nil {
		lt.cancel()
	}
}

func lazyTxFromContext(ctx context.Context) *lazyTx {
	lt, _ := ctx.Value(lazyTxKey{}).(*lazyTx)
	return lt
}

// WithTx runs fn with a lazily opened transaction in its context. An error
// from fn rolls the transaction back, otherwise it is committed and the
// AfterCommit hooks run on a context that outlives the request. When the
// transaction could not be opened WithTx fails even if fn did not.
func (d *DBClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	lt := &lazyTx{ctx: ctx, begin: d.begin}
	defer lt.release()

	if err := fn(context.WithValue(ctx, lazyTxKey{}, lt)); err != nil {
		if lt.tx != nil {
			if rbErr := lt.tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				d.logger.Errorf("failed to rollback transaction: %v", rbErr)
			}
		}
		return err
	}

	// fn may have swallowed the statement errors, the request still failed
	if lt.err != nil {
		return lt.err
	}

	if lt.tx != nil {
		if err := lt.tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range lt.hooks {
		hook(hookCtx)
	}

	return nil
}

// AfterCommit defers fn until the transaction in ctx commits, it is dropped
// on rollback. Without a transaction fn runs straight away.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if lt := lazyTxFromContext(ctx); lt != nil {
		lt.hooks = append(lt.hooks, fn)
		return
	}

	fn(ctx)
}
