// Package txn runs a unit of work inside a MongoDB transaction when the
// deployment supports one, and directly otherwise.
//
// Standalone servers (local development, some hosted tiers) reject
// sessions/transactions; on those the work runs without isolation.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes work in a transaction on Client.
type Runner struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// New returns a Runner bound to client.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{Client: client, Log: logger}
}

// Run calls fn inside a transaction. The context passed to fn carries the
// session, so store calls made with it join the transaction. If the server
// does not support transactions fn is called once more with the plain
// context.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.Client == nil {
		return fn(ctx)
	}

	sess, err := r.Client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if r.Log != nil {
			r.Log.Debug("transactions unavailable; running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// sessions or multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, IllegalOperation (legacy), OperationNotSupportedInTransaction
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hasTxn := strings.Contains(msg, "transaction")
	switch {
	case hasTxn && strings.Contains(msg, "replica set"):
		return true
	case hasTxn && strings.Contains(msg, "session"):
		return true
	case hasTxn && strings.Contains(msg, "illegal operation"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}
