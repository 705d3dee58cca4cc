package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Column describes one column of a table as the backend reports it.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// JobsColumns lists the job history columns in table order.
var JobsColumns = []string{
	"id",
	"archive_id",
	"outcome",
	"bytes_sent",
	"chunks",
	"exit_code",
	"started_at",
	"finished_at",
}

// ExpectedJobs builds the expected job history columns from a backend's
// column type map. Every column is NOT NULL.
func ExpectedJobs(types map[string]string) []Column {
	columns := make([]Column, 0, len(JobsColumns))
	for _, name := range JobsColumns {
		columns = append(columns, Column{Name: name, Type: types[name]})
	}
	return columns
}

// CompareColumns reports every expected column that is missing from actual or
// differs in type or nullability. Types are compared case-insensitively.
// Extra columns in actual are allowed.
func CompareColumns(table string, expected []Column, actual []Column) error {
	byName := make(map[string]Column, len(actual))
	for _, col := range actual {
		byName[col.Name] = col
	}

	var missing, mismatched []string
	for _, want := range expected {
		got, ok := byName[want.Name]
		if !ok {
			missing = append(missing, want.Name)
			continue
		}

		if !strings.EqualFold(got.Type, want.Type) {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected %s, got %s", want.Name, want.Type, strings.ToLower(got.Type)))
		}

		if got.Nullable != want.Nullable {
			mismatched = append(mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", want.Name, want.Nullable, got.Nullable))
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "table %s schema validation failed:\n", table)
	if len(missing) > 0 {
		fmt.Fprintf(&msg, "  missing columns: %s\n", strings.Join(missing, ", "))
	}
	if len(mismatched) > 0 {
		msg.WriteString("  mismatched columns:\n")
		for _, m := range mismatched {
			fmt.Fprintf(&msg, "    - %s\n", m)
		}
	}

	return errors.New(msg.String())
}
