package execution

import (
	"nimbusdb/dbtypes"
)

// Result is the outcome of a successful statement. DDL and DML statements
// return an acknowledgement with RowsAffected set; SELECT and SHOW TABLES
// also carry Columns and Rows.
type Result struct {
	Columns      []string
	Rows         [][]*dbtypes.Value
	RowsAffected int
}

func ack(n int) *Result {
	return &Result{RowsAffected: n}
}
