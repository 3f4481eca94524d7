package main

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	datagrid "github.com/gnemet/sqlgrid"
	"github.com/gnemet/sqlgrid/database/sqlsource"
	"github.com/gnemet/sqlgrid/internal/config"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<title>{{.Title}} - {{.App}}</title>
<style>
.tbl { border-collapse: collapse; font-family: sans-serif; font-size: 13px; }
.tbl-header { background: #dde4ee; padding: 4px 8px; font-weight: bold; }
.tbl-cell, .tbl-row-num, .tbl-controls { padding: 3px 8px; }
.tbl-row-odd { background: #f4f6fa; }
.tbl-row-highlight { cursor: pointer; }
.tbl-filter-box { display: none; }
.tbl-error { margin: 10px 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Grids}}<ul>{{range .Grids}}<li><a href="/grids/{{.}}">{{.}}</a></li>{{end}}</ul>{{end}}
{{.Content}}
</body>
</html>`

var tmpl = template.Must(template.New("page").Parse(pageTemplate))

// reverse is available to "function" columns of the grid definitions
func reverse(args ...string) string {
	r := []rune(strings.Join(args, ""))
	slices.Reverse(r)
	return string(r)
}

func main() {
	cfgPath := os.Getenv("CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, closer := config.NewLogger(cfg.Log)
	defer closer.Close()
	slog.SetDefault(logger)

	dbCfg, err := cfg.DefaultDatabase()
	if err != nil {
		log.Fatalf("Invalid database config: %v", err)
	}
	if dbCfg.Driver == "" {
		dbCfg.Driver = sqlsource.DriverPostgres
	}
	idle, abs, err := cfg.Durations()
	if err != nil {
		log.Fatalf("Invalid pool config: %v", err)
	}

	src, err := sqlsource.Open(dbCfg.Driver, dbCfg.ConnString(), sqlsource.Options{
		MaxConns:    cfg.Pool.MaxConnections,
		IdleTimeout: idle,
		AbsTimeout:  abs,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer src.Close()

	if dbCfg.Driver == sqlsource.DriverSQLite {
		if err := seedPeople(src); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	grids, err := datagrid.LoadDefinitions(cfg.Grids.Path, datagrid.FuncMap{"reverse": reverse})
	if err != nil {
		log.Fatalf("Failed to load grids: %v", err)
	}
	names := make([]string, 0, len(grids))
	for name := range grids {
		names = append(names, name)
	}
	slices.Sort(names)

	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render(w, map[string]interface{}{"App": cfg.Application.Name, "Title": cfg.Application.Name, "Grids": names})
	})

	r.Route("/grids/{name}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			def, ok := grids[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			var content bytes.Buffer
			if err := datagrid.WriteAjaxBootstrap(&content, "/grids/"+name+"/table"); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			title := def.Title
			if title == "" {
				title = name
			}
			render(w, map[string]interface{}{"App": cfg.Application.Name, "Title": title, "Content": template.HTML(content.String())})
		})

		r.Get("/table", func(w http.ResponseWriter, r *http.Request) {
			def, ok := grids[chi.URLParam(r, "name")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			datagrid.NewHandlerFromDefinition(src, def).ServeHTTP(w, r)
		})
	})

	slog.Info("Server starting", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port), "grids", len(grids))
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, r))
}

func render(w http.ResponseWriter, data map[string]interface{}) {
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("Template failed", "error", err)
	}
}

func seedPeople(src *sqlsource.Source) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS people (
			Id INTEGER PRIMARY KEY,
			FirstName TEXT,
			LastName TEXT,
			BirthDate TEXT,
			Gender TEXT,
			Done INTEGER,
			Salary REAL,
			Active INTEGER
		)`,
		`DELETE FROM people`,
	}
	for _, s := range stmts {
		if _, err := src.DB().Exec(s); err != nil {
			return err
		}
	}

	first := []string{"Ada", "Alan", "Grace", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Frances", "Edsger"}
	last := []string{"Lovelace", "Turing", "Hopper", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie", "Allen", "Dijkstra"}
	for i := 0; i < 57; i++ {
		gender := "m"
		if i%2 == 0 {
			gender = "f"
		}
		_, err := src.DB().Exec(src.DB().Rebind(`INSERT INTO people (Id, FirstName, LastName, BirthDate, Gender, Done, Salary, Active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			i+1, first[i%len(first)], last[(i*3)%len(last)],
			fmt.Sprintf("19%02d-%02d-%02d", 50+i%40, 1+i%12, 1+i%28),
			gender, (i*7)%101, 1000+float64(i)*137.5, i%3)
		if err != nil {
			return err
		}
	}
	return nil
}
