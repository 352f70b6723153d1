package main

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"sort"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/pkg/stormsql"
	"github.com/mdouchement/safehaven/pkg/structs"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
)

// go run tools/console/main.go safehaven.db " SELECT count(*) FROM journeys WHERE Status = 'completed' AND AutoDeleteDate < '2024-06-01 00:00:00';  "

// tables lists the queryable records. Profiles and sessions hold credentials and are left out.
// Protected fields are only ever printed sealed.
var tables = map[string]model.Model{
	"resources":    &model.Resource{},
	"incidents":    &model.Incident{},
	"evidence":     &model.Evidence{},
	"documents":    &model.Document{},
	"journeys":     &model.Journey{},
	"contacts":     &model.Contact{},
	"sos_sessions": &model.SOSSession{},
}

func main() {
	c := &coral.Command{
		Use:   "console DATABASE QUERY",
		Short: "SQL console for safehaven database",
		Args:  coral.ExactArgs(2),
		RunE: func(_ *coral.Command, args []string) error {
			//
			//
			sc, err := stormsql.ParseSelect(args[1])
			if err != nil {
				return err
			}

			table, ok := tables[sc.Tablename]
			if !ok {
				return errors.Errorf("unknown tablename: %s (available: %v)", sc.Tablename, tablenames())
			}

			//
			//
			fmt.Println("Opening", args[0])
			db, err := storm.Open(args[0], database.StormCodec)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			//
			// Prepare request
			//

			query := db.Select(sc.Matcher)
			if sc.Skip > 0 {
				query.Skip(sc.Skip)
			}
			if sc.Limit > 0 {
				query.Limit(sc.Limit)
			}
			if len(sc.OrderBy) > 0 {
				query.OrderBy(sc.OrderBy...)
				if sc.OrderByReversed {
					query.Reverse()
				}
			}

			// Execute

			if sc.Count {
				return count(table, query)
			}

			return list(sc, table, query)
		},
	}

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func count(table model.Model, query storm.Query) error {
	n, err := query.Count(table)
	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	fmt.Println("Count:", n)

	return nil
}

func list(sc *stormsql.SelectClause, table model.Model, query storm.Query) error {
	// &[]*model.X{}
	records := reflect.New(reflect.SliceOf(reflect.TypeOf(table)))

	err := query.Find(records.Interface())
	if err == storm.ErrNotFound {
		fmt.Println("[]")
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	if len(sc.SelectedFields) == 0 {
		jsondump(records.Interface())
		return nil
	}

	rows := make([]map[string]any, 0, records.Elem().Len())
	for i := 0; i < records.Elem().Len(); i++ {
		row, err := structs.Project(records.Elem().Index(i).Interface(), sc.SelectedFields...)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	jsondump(rows)

	return nil
}

func tablenames() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func jsondump(v any) {
	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(d))
}
