package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	datagrid "github.com/gnemet/sqlgrid"
	"github.com/gnemet/sqlgrid/database/sqlsource"
	"github.com/gnemet/sqlgrid/internal/config"
)

// dbtest renders the first page of every grid definition against the
// configured databases and reports row counts or query errors.
func main() {
	cfgPath := flag.String("config", "config.yaml", "configuration file")
	only := flag.String("db", "", "only check the named database")
	timeout := flag.Duration("timeout", 10*time.Second, "per grid timeout")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, closer := config.NewLogger(cfg.Log)
	defer closer.Close()
	slog.SetDefault(logger)

	// function columns only need a binding to render
	funcs := datagrid.FuncMap{"reverse": func(args ...string) string { return strings.Join(args, "") }}
	grids, err := datagrid.LoadDefinitions(cfg.Grids.Path, funcs)
	if err != nil {
		log.Fatalf("Failed to load grids: %v", err)
	}
	names := make([]string, 0, len(grids))
	for name := range grids {
		names = append(names, name)
	}
	slices.Sort(names)

	failed := false
	for _, db := range cfg.Database {
		if *only != "" && db.Name != *only {
			continue
		}
		if db.Driver == "" {
			db.Driver = sqlsource.DriverPostgres
		}

		fmt.Printf("== %s (%s)\n", db.Name, db.Driver)
		src, err := sqlsource.Open(db.Driver, db.ConnString(), sqlsource.Options{MaxConns: 2})
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			failed = true
			continue
		}

		for _, name := range names {
			if err := check(src, grids[name], *timeout); err != nil {
				fmt.Printf("❌ %s: %v\n", name, err)
				failed = true
			}
		}
		src.Close()
	}

	if failed {
		os.Exit(1)
	}
}

func check(src datagrid.DataSource, def *datagrid.Definition, timeout time.Duration) error {
	g := datagrid.New(src)
	if err := def.Apply(g); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	res, err := g.Render(ctx, datagrid.State{Page: 1, Ajax: true})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	fmt.Printf("✅ %s: %d rows, %d pages (%s)\n", def.Title, res.Total, res.Pages, time.Since(start).Round(time.Millisecond))
	return nil
}
