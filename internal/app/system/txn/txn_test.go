package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "generic error", err: errors.New("some random error"), want: false},
		{
			name: "command error code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{
			name: "command error code 263",
			err:  mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"},
			want: true,
		},
		{
			name: "other command error code",
			err:  mongo.CommandError{Code: 112, Message: "WriteConflict"},
			want: false,
		},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("move card: %w", mongo.CommandError{Code: 20, Message: "x"}),
			want: true,
		},
		{
			name: "transaction and replica set keywords",
			err:  errors.New("transaction failed because this is not a replica set member"),
			want: true,
		},
		{
			name: "only one keyword",
			err:  errors.New("transaction failed"),
			want: false,
		},
		{
			name: "case insensitive",
			err:  errors.New("TRANSACTION FAILED on REPLICA SET"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("WriteConflict"), want: false},
		{
			name: "labeled command error",
			err:  mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}},
			want: true,
		},
		{
			name: "wrapped labeled error",
			err:  fmt.Errorf("update column: %w", mongo.CommandError{Code: 112, Labels: []string{"TransientTransactionError"}}),
			want: true,
		},
		{
			name: "commit result unknown is not transient",
			err:  mongo.CommandError{Code: 50, Labels: []string{"UnknownTransactionCommitResult"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
