// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/canonical/taskboard/internal/logging"
)

type fakeTx struct {
	commitErr error

	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit() error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback() error {
	f.rolledBack = true
	return nil
}

func (f *fakeTx) Exec(string, ...interface{}) (sql.Result, error) {
	return nil, errors.New("not supported")
}

func (f *fakeTx) Query(string, ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func newTestClient(tx *fakeTx, beginErr error) (*DBClient, *int) {
	begun := 0
	return &DBClient{
		logger: logging.NewNoopLogger(),
		begin: func(context.Context) (TxInterface, error) {
			begun++
			if beginErr != nil {
				return nil, beginErr
			}
			return tx, nil
		},
	}, &begun
}

func TestWithTx(t *testing.T) {
	boom := errors.New("boom")

	testCases := []struct {
		name      string
		touchDB   bool
		fnErr     error
		commitErr error

		expectedErr      error
		expectedBegun    int
		expectedCommit   bool
		expectedRollback bool
		expectedHookRun  bool
	}{
		{
			name:            "no statements opens no transaction",
			expectedHookRun: true,
		},
		{
			name:            "statements commit on success",
			touchDB:         true,
			expectedBegun:   1,
			expectedCommit:  true,
			expectedHookRun: true,
		},
		{
			name:             "error rolls back and drops hooks",
			touchDB:          true,
			fnErr:            boom,
			expectedErr:      boom,
			expectedBegun:    1,
			expectedRollback: true,
		},
		{
			name:           "failed commit drops hooks",
			touchDB:        true,
			commitErr:      boom,
			expectedErr:    boom,
			expectedBegun:  1,
			expectedCommit: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &fakeTx{commitErr: tc.commitErr}
			d, begun := newTestClient(tx, nil)

			hookRan := false
			err := d.WithTx(context.Background(), func(ctx context.Context) error {
				if tc.touchDB {
					// twice, the second call must reuse the open transaction
					d.Statement(ctx)
					d.Statement(ctx)
				}
				AfterCommit(ctx, func(context.Context) { hookRan = true })
				if hookRan {
					t.Error("hook ran before the transaction finished")
				}
				return tc.fnErr
			})

			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected error %v, got %v", tc.expectedErr, err)
			}
			if *begun != tc.expectedBegun {
				t.Errorf("expected %d transactions, got %d", tc.expectedBegun, *begun)
			}
			if tx.committed != tc.expectedCommit {
				t.Errorf("expected committed %v, got %v", tc.expectedCommit, tx.committed)
			}
			if tx.rolledBack != tc.expectedRollback {
				t.Errorf("expected rolled back %v, got %v", tc.expectedRollback, tx.rolledBack)
			}
			if hookRan != tc.expectedHookRun {
				t.Errorf("expected hook run %v, got %v", tc.expectedHookRun, hookRan)
			}
		})
	}
}

func TestWithTxFailedBeginIsSticky(t *testing.T) {
	refused := errors.New("too many connections")
	tx := &fakeTx{}

	begun := 0
	d := &DBClient{
		logger: logging.NewNoopLogger(),
		begin: func(context.Context) (TxInterface, error) {
			begun++
			if begun == 1 {
				return nil, refused
			}
			return tx, nil
		},
	}

	hookRan := false
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		// a caller that ignores the first failure must not get a fresh
		// transaction for the statements that follow
		_ = d.Statement(ctx).Select("1").QueryRowContext(ctx).Scan()

		var n int
		if err := d.Statement(ctx).Select("1").QueryRowContext(ctx).Scan(&n); !errors.Is(err, refused) {
			t.Errorf("expected later statements to fail with %v, got %v", refused, err)
		}
		if _, err := d.Statement(ctx).Insert("audit_logs").Columns("id").Values("a").ExecContext(ctx); !errors.Is(err, refused) {
			t.Errorf("expected exec to fail with %v, got %v", refused, err)
		}

		AfterCommit(ctx, func(context.Context) { hookRan = true })
		return nil
	})

	if !errors.Is(err, refused) {
		t.Errorf("expected WithTx to report %v, got %v", refused, err)
	}
	if begun != 1 {
		t.Errorf("expected a single BEGIN attempt, got %d", begun)
	}
	if tx.committed {
		t.Error("no transaction may commit after BEGIN failed")
	}
	if hookRan {
		t.Error("hooks must not run when the transaction never opened")
	}
}

func TestAfterCommitHookSurvivesCancellation(t *testing.T) {
	d, _ := newTestClient(&fakeTx{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var hookErr error
	_ = d.WithTx(ctx, func(txCtx context.Context) error {
		AfterCommit(txCtx, func(hookCtx context.Context) { hookErr = hookCtx.Err() })
		cancel()
		return nil
	})

	if hookErr != nil {
		t.Errorf("hook context should not be canceled, got %v", hookErr)
	}
}

func TestAfterCommitWithoutTransactionRunsImmediately(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func(context.Context) { ran = true })

	if !ran {
		t.Error("expected hook to run immediately")
	}
}
