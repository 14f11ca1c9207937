package main

import (
	"fmt"

	"github.com/eatonphil/dbtools"
)

func main() {
	mb, err := dbtools.NewMemoryBackend()
	if err != nil {
		panic(err)
	}
	defer mb.Close()

	users, err := dbtools.Create(mb, "users", []dbtools.ColumnSpec{
		{Name: "name", Type: dbtools.TextType},
		{Name: "age", Type: dbtools.IntegerType},
	}, dbtools.CreateOptions{PrimaryKey: "id", Autoincrement: true})
	if err != nil {
		panic(err)
	}

	err = users.Insert(
		dbtools.Record{"name": "Admin", "age": 45},
		[]interface{}{"Anette", 57},
		[]interface{}{"Terry", 23},
	)
	if err != nil {
		panic(err)
	}

	fmt.Println(users)

	results, err := users.Index(dbtools.From(2))
	if err != nil {
		panic(err)
	}
	fmt.Print(results)

	results, err = users.Select([]string{"name"}, dbtools.NewWhere("age>?", 30))
	if err != nil {
		panic(err)
	}
	for _, r := range results.Records() {
		fmt.Printf("%v: %v\n", r["id"], r["name"])
	}
}
