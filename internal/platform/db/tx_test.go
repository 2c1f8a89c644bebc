package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *stubTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *stubTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type stubBeginner struct {
	tx   *stubTx
	err  error
	opts pgx.TxOptions
}

func (b *stubBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	beginner := &stubBeginner{tx: &stubTx{}}

	err := WithTx(context.Background(), beginner, func(pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.True(t, beginner.tx.committed)
	require.Equal(t, pgx.RepeatableRead, beginner.opts.IsoLevel)
}

func TestWithTxRollsBackAndReturnsFnErrorUnwrapped(t *testing.T) {
	beginner := &stubBeginner{tx: &stubTx{}}
	boom := errors.New("insufficient stock")

	err := WithTx(context.Background(), beginner, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, beginner.tx.committed)
	require.True(t, beginner.tx.rolledBack)
}

func TestWithTxWrapsBeginAndCommitFailures(t *testing.T) {
	beginErr := errors.New("pool exhausted")
	err := WithTx(context.Background(), &stubBeginner{err: beginErr}, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, beginErr)
	require.ErrorContains(t, err, "begin tx")

	commitErr := errors.New("serialization failure")
	beginner := &stubBeginner{tx: &stubTx{commitErr: commitErr}}
	err = WithTx(context.Background(), beginner, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, commitErr)
	require.ErrorContains(t, err, "commit tx")
}
