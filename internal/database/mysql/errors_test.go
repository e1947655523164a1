package mysql

import (
	"errors"
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/clientbook/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		num  uint16
		want errs.ErrKind
	}{
		{"duplicate email", 1062, errs.ErrKindConflict},
		{"unknown client fk", 1452, errs.ErrKindConflict},
		{"email check", 3819, errs.ErrKindInvalidInput},
		{"number too long", 1406, errs.ErrKindInvalidInput},
		{"access denied", 1045, errs.ErrKindPermissionDenied},
		{"unknown database", 1049, errs.ErrKindConnectionFailed},
		{"lock wait", 1205, errs.ErrKindTimeout},
		{"syntax", 1064, errs.ErrKindQueryFailed},
		{"anything else", 9999, errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := classify(&gomysql.MySQLError{Number: tt.num, Message: "boom"})
			assert.True(t, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestClassify_NonDriverError(t *testing.T) {
	_, ok := classify(errors.New("dial tcp: i/o timeout"))
	assert.False(t, ok)
}

func TestMapError(t *testing.T) {
	err := mapError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, "add client")
	assert.True(t, errs.IsConflict(err))
	assert.Equal(t, "add client", err.Message)
	assert.Equal(t, 1, strings.Count(err.Error(), "Duplicate entry"))

	err = mapError(errors.New("bad dsn"), "invalid DSN")
	assert.True(t, errs.IsConnectionFailed(err))
}
