package main

import (
	"fmt"
	"strings"

	"nimbusdb/catalog"
	"nimbusdb/db"
	"nimbusdb/dbtypes"
	"nimbusdb/execution"
)

func main() {
	ndb, err := db.Open("nimbus.db", db.DefaultPoolSize)
	if err != nil {
		panic(err)
	}
	defer ndb.Close()

	stmts := []execution.Statement{
		execution.CreateTableStmt{
			Name: "Users",
			Columns: []catalog.Column{
				catalog.NewColumn("id", dbtypes.IntegerTypeID),
				catalog.NewColumn("name", dbtypes.VarcharTypeID),
				catalog.NewColumn("age", dbtypes.IntegerTypeID),
			},
		},
		execution.CreateIndexStmt{Table: "Users", Column: "id", IndexName: "idx_id"},
		execution.InsertStmt{Table: "Users", Values: row(1, "Alice", 30)},
		execution.InsertStmt{Table: "Users", Values: row(2, "Bob", 25)},
		execution.InsertStmt{Table: "Users", Values: row(3, "Charlie", 35)},
		execution.InsertStmt{Table: "Users", Values: row(4, "David", 25)},
		execution.UpdateStmt{
			Table:       "Users",
			Assignments: []execution.Assignment{{Column: "name", Value: dbtypes.NewVarcharValue("Robert")}},
			Predicate:   &execution.Predicate{Column: "id", Value: dbtypes.NewIntValue(2)},
		},
		execution.DeleteStmt{
			Table:     "Users",
			Predicate: &execution.Predicate{Column: "name", Value: dbtypes.NewVarcharValue("Charlie")},
		},
		execution.SelectStmt{Table: "Users"},
	}

	for _, stmt := range stmts {
		res, err := ndb.Execute(stmt)
		if err != nil {
			panic(err)
		}
		if len(res.Columns) > 0 {
			fmt.Println(strings.Join(res.Columns, " | "))
		}
		for _, r := range res.Rows {
			cells := make([]string, 0, len(r))
			for _, v := range r {
				cells = append(cells, v.String())
			}
			fmt.Println(strings.Join(cells, " | "))
		}
	}
}

func row(id int32, name string, age int32) []*dbtypes.Value {
	return []*dbtypes.Value{
		dbtypes.NewIntValue(id),
		dbtypes.NewVarcharValue(name),
		dbtypes.NewIntValue(age),
	}
}
