package replcmd

import (
	"fmt"
	"strconv"
	"strings"

	"cdcset/cdcset"
	"cdcset/storectl"
)

// Register adds the table/put/get/del/range/len command set, all
// operating on int64 tables in store, to r.
func Register(r *REPL, store *storectl.Store) {
	r.AddCommand("create", createCommand(store), "create <table>: create a new empty table")
	r.AddCommand("tables", tablesCommand(store), "tables: list every table in this store")
	r.AddCommand("put", putCommand(store), "put <table> <n>: insert n into table")
	r.AddCommand("get", getCommand(store), "get <table> <n>: report whether n is in table")
	r.AddCommand("del", delCommand(store), "del <table> <n>: remove n from table")
	r.AddCommand("range", rangeCommand(store), "range <table> <lo> <hi>: list elements in [lo, hi)")
	r.AddCommand("len", lenCommand(store), "len <table>: report the number of elements in table")
}

func createCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		args := strings.Fields(line)
		if len(args) != 2 {
			return "", fmt.Errorf("usage: create <table>")
		}
		if _, err := store.CreateTable(args[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("created table %s", args[1]), nil
	}
}

func tablesCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		names := store.TableNames()
		return strings.Join(names, "\n"), nil
	}
}

func putCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		args := strings.Fields(line)
		if len(args) != 3 {
			return "", fmt.Errorf("usage: put <table> <n>")
		}
		table, err := store.GetTable(args[1])
		if err != nil {
			return "", err
		}
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer %q", args[2])
		}
		old, hadOld, err := table.Put(n)
		if err != nil {
			return "", err
		}
		if hadOld {
			return fmt.Sprintf("replaced %d", old), nil
		}
		return "inserted", nil
	}
}

func getCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		args := strings.Fields(line)
		if len(args) != 3 {
			return "", fmt.Errorf("usage: get <table> <n>")
		}
		table, err := store.GetTable(args[1])
		if err != nil {
			return "", err
		}
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer %q", args[2])
		}
		if table.Set().Contains(n) {
			return "found", nil
		}
		return "not found", nil
	}
}

func delCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		args := strings.Fields(line)
		if len(args) != 3 {
			return "", fmt.Errorf("usage: del <table> <n>")
		}
		table, err := store.GetTable(args[1])
		if err != nil {
			return "", err
		}
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer %q", args[2])
		}
		_, ok, err := table.Remove(n)
		if err != nil {
			return "", err
		}
		if !ok {
			return "not found", nil
		}
		return "removed", nil
	}
}

func rangeCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		args := strings.Fields(line)
		if len(args) != 4 {
			return "", fmt.Errorf("usage: range <table> <lo> <hi>")
		}
		table, err := store.GetTable(args[1])
		if err != nil {
			return "", err
		}
		lo, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer %q", args[2])
		}
		hi, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer %q", args[3])
		}

		it := table.Set().Range(
			cdcset.Bound[int64]{Kind: cdcset.Included, Value: lo},
			cdcset.Bound[int64]{Kind: cdcset.Excluded, Value: hi},
		)
		defer it.Close()

		var sb strings.Builder
		for {
			v, ok := it.Next()
			if !ok {
				break
			}
			fmt.Fprintf(&sb, "%d\n", v)
		}
		return sb.String(), nil
	}
}

func lenCommand(store *storectl.Store) Command {
	return func(line string, _ *Session) (string, error) {
		args := strings.Fields(line)
		if len(args) != 2 {
			return "", fmt.Errorf("usage: len <table>")
		}
		table, err := store.GetTable(args[1])
		if err != nil {
			return "", err
		}
		return strconv.Itoa(table.Set().Len()), nil
	}
}
