// Command fsmodel checks, formats and exports FSM model files, and keeps a
// library of models in a SQLite, PostgreSQL, Redis or MongoDB database.
//
// Usage:
//
//	fsmodel [-db file|url] [-compiler path] [-timeout d] [-v] <command> [flags] [args]
//
// Commands:
//
//	check  [-stimuli] <model.fsm>            validate a model
//	dot    [-no-check] [-no-captions] [-split] [-o out] <model.fsm>
//	rfsm   [-no-check] [-testbench] [-used-only] [-o out] <model.fsm>
//
// dot and rfsm check the model first, rfsm requiring a stimulus on every
// input, and export nothing if the check fails.
//	fmt    <model.fsm>...                    rewrite files in canonical form
//	import <model.fsm>...                    store models in the library
//	export [-o out] <name>                   print a stored model
//	ls                                       list stored models
//	rm     <name>...                         delete stored models
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/enetx/fsmodel"
	"github.com/enetx/fsmodel/store"
	"github.com/enetx/g"
)

type app struct {
	dbPath   string
	compiler string
	timeout  time.Duration
	logger   *slog.Logger
	stdout   io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "fsmodel:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fsmodel", flag.ContinueOnError)
	fs.SetOutput(stderr)

	a := &app{stdout: stdout}
	verbose := fs.Bool("v", false, "log debug messages")
	fs.StringVar(&a.dbPath, "db", "fsmodel.db", "model library: SQLite file, or postgres://, redis:// or mongodb:// URL")
	fs.StringVar(&a.compiler, "compiler", "", "RFSM compiler used to check guards and actions (default: no fragment checking)")
	fs.DurationVar(&a.timeout, "timeout", 10*time.Second, "time limit for each compiler invocation")

	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "check":
		return a.check(ctx, rest)
	case "dot":
		return a.dot(ctx, rest)
	case "rfsm":
		return a.rfsm(ctx, rest)
	case "fmt":
		return a.format(rest)
	case "import":
		return a.importModels(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "ls":
		return a.list(ctx)
	case "rm":
		return a.remove(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) checker() fsmodel.FragmentChecker {
	if a.compiler == "" {
		return fsmodel.AcceptAll
	}

	return fsmodel.NewCachingChecker(&fsmodel.CompilerChecker{
		Path:    a.compiler,
		Timeout: a.timeout,
		Logger:  a.logger,
	})
}

func (a *app) load(path string) (*fsmodel.Model, error) {
	m := fsmodel.New("", fsmodel.WithLogger(a.logger), fsmodel.WithChecker(a.checker()))
	if err := m.LoadFile(path); err != nil {
		return nil, err
	}
	return m, nil
}

// openStore opens the library named by -db: a postgres://, redis:// or
// mongodb:// URL, or else a SQLite database file.
func (a *app) openStore(ctx context.Context) (store.Store, func(), error) {
	switch {
	case strings.HasPrefix(a.dbPath, "postgres://"), strings.HasPrefix(a.dbPath, "postgresql://"):
		return openSQL("pgx", a.dbPath, func(db *sql.DB) (store.Store, error) { return store.NewPostgresStore(db) })

	case strings.HasPrefix(a.dbPath, "redis://"), strings.HasPrefix(a.dbPath, "rediss://"):
		opts, err := redis.ParseURL(a.dbPath)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		return store.NewRedisStore(client, ""), func() { client.Close() }, nil

	case strings.HasPrefix(a.dbPath, "mongodb://"), strings.HasPrefix(a.dbPath, "mongodb+srv://"):
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.dbPath))
		if err != nil {
			return nil, nil, err
		}
		return store.NewMongoStore(client, "", ""), func() { client.Disconnect(context.Background()) }, nil

	default:
		return openSQL("sqlite", a.dbPath, func(db *sql.DB) (store.Store, error) { return store.NewSQLiteStore(db) })
	}
}

func openSQL(driver, dsn string, open func(*sql.DB) (store.Store, error)) (store.Store, func(), error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	s, err := open(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return s, func() { db.Close() }, nil
}

func (a *app) check(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	stimuli := fs.Bool("stimuli", false, "require a stimulus on every input")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	m, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}

	if err := m.Check(ctx, *stimuli); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s: ok\n", fs.Arg(0))

	return nil
}

func (a *app) dot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dot", flag.ContinueOnError)
	noCheck := fs.Bool("no-check", false, "export without checking the model first")
	noCaptions := fs.Bool("no-captions", false, "omit signal and variable captions")
	split := fs.Bool("split", false, "write one file per automaton into the -o directory")
	out := fs.String("o", "", "output file, or directory with -split (default: stdout)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	m, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}

	if !*noCheck {
		if err := m.Check(ctx, false); err != nil {
			return err
		}
	}

	var opts []fsmodel.DOTOption
	if *noCaptions {
		opts = append(opts, fsmodel.WithoutCaptions())
	}

	switch {
	case *split:
		dir := *out
		if dir == "" {
			dir = "."
		}
		paths, err := m.ExportDOTFiles(dir, opts...)
		for _, p := range paths {
			fmt.Fprintln(a.stdout, p)
		}
		return err
	case *out != "":
		return m.ExportDOTFile(*out, opts...)
	default:
		_, err := io.WriteString(a.stdout, string(m.ToDOT(opts...)))
		return err
	}
}

func (a *app) rfsm(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rfsm", flag.ContinueOnError)
	noCheck := fs.Bool("no-check", false, "export without checking the model first")
	testbench := fs.Bool("testbench", false, "append automaton instances")
	usedOnly := fs.Bool("used-only", false, "pass each automaton only the signals it mentions")
	out := fs.String("o", "", "output file (default: stdout)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	m, err := a.load(fs.Arg(0))
	if err != nil {
		return err
	}

	if !*noCheck {
		if err := m.Check(ctx, true); err != nil {
			return err
		}
	}

	var opts []fsmodel.RFSMOption
	if *testbench {
		opts = append(opts, fsmodel.WithTestbench())
	}
	if *usedOnly {
		opts = append(opts, fsmodel.WithUsedSignalsOnly())
	}

	if *out != "" {
		return m.ExportRFSMFile(*out, opts...)
	}

	text, err := m.ToRFSM(opts...)
	if err != nil {
		return err
	}

	_, err = io.WriteString(a.stdout, string(text))

	return err
}

func (a *app) format(args []string) error {
	if len(args) == 0 {
		return errors.New("fmt: missing model file")
	}

	for _, path := range args {
		m, err := a.load(path)
		if err != nil {
			return err
		}
		if err := m.SaveFile(path); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) importModels(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("import: missing model file")
	}

	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	for _, path := range args {
		m, err := a.load(path)
		if err != nil {
			return err
		}

		rec, err := s.Save(ctx, m)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		fmt.Fprintf(a.stdout, "%s\trevision %d\n", rec.Name, rec.Revision)
	}

	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default: stdout)")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	m := fsmodel.New("", fsmodel.WithLogger(a.logger))
	if err := s.Load(ctx, fs.Arg(0), m); err != nil {
		return fmt.Errorf("export %s: %w", fs.Arg(0), err)
	}

	if *out != "" {
		return m.SaveFile(*out)
	}

	return m.Encode(a.stdout)
}

func (a *app) list(ctx context.Context) error {
	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	records, err := s.List(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		line := g.Format("{}\t{}\t{}\n", g.String(rec.Name), rec.Revision, g.String(rec.UpdatedAt.Format(time.RFC3339)))
		io.WriteString(a.stdout, string(line))
	}

	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("rm: missing model name")
	}

	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	for _, name := range args {
		if err := s.Delete(ctx, name); err != nil {
			return fmt.Errorf("rm %s: %w", name, err)
		}
	}

	return nil
}

// parse parses subcommand flags and requires exactly n positional arguments.
func parse(fs *flag.FlagSet, args []string, n int) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != n {
		return fmt.Errorf("%s: want %d argument(s), got %d", fs.Name(), n, fs.NArg())
	}

	return nil
}
