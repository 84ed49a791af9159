package execution

import (
	"nimbusdb/catalog"
	"nimbusdb/dbtypes"
)

// Statement is a parsed statement value handed over by the SQL front end.
// The executor consumes these; parsing is out of scope for the engine.
type Statement interface {
	statementNode()
}

// Predicate is an equality filter `column = value`.
type Predicate struct {
	Column string
	Value  *dbtypes.Value
}

// Assignment is one `column = value` pair of an UPDATE's SET list.
type Assignment struct {
	Column string
	Value  *dbtypes.Value
}

type CreateTableStmt struct {
	Name    string
	Columns []catalog.Column
}

type CreateIndexStmt struct {
	Table     string
	Column    string
	IndexName string
}

type DropIndexStmt struct {
	Table     string
	IndexName string
}

type InsertStmt struct {
	Table string

	// Columns names the target columns of Values. When nil, Values are taken
	// in schema order. Unnamed columns get their type's zero value.
	Columns []string
	Values  []*dbtypes.Value
}

type SelectStmt struct {
	Table     string
	Predicate *Predicate

	// Projection lists output columns in requested order. Nil or ["*"] means
	// all columns in schema order.
	Projection []string
}

type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Predicate   *Predicate
}

type DeleteStmt struct {
	Table     string
	Predicate *Predicate
}

type DropTableStmt struct {
	Name string
}

type ShowTablesStmt struct{}

func (CreateTableStmt) statementNode() {}
func (CreateIndexStmt) statementNode() {}
func (DropIndexStmt) statementNode()   {}
func (InsertStmt) statementNode()      {}
func (SelectStmt) statementNode()      {}
func (UpdateStmt) statementNode()      {}
func (DeleteStmt) statementNode()      {}
func (DropTableStmt) statementNode()   {}
func (ShowTablesStmt) statementNode()  {}
