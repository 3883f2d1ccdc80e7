package workflow

import (
	"errors"
	"fmt"
	"testing"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate entry", &mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"wrapped duplicate entry", fmt.Errorf("create idempotency key: %w", &mysqlDriver.MySQLError{Number: 1062}), true},
		{"other mysql error", &mysqlDriver.MySQLError{Number: 1213, Message: "Deadlock found"}, false},
		{"plain error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}
	for _, c := range cases {
		if got := isDuplicateKeyErr(c.err); got != c.want {
			t.Fatalf("isDuplicateKeyErr(%s) expected %v, got %v", c.name, c.want, got)
		}
	}
}
