// Package main is tripctl, the admin CLI of the trip manager.
// It opens storage exactly like the API server does (same environment
// variables, same probe and fallback) and runs one operation against it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pkordes/trip-manager/internal/backend"
	"github.com/pkordes/trip-manager/internal/cascade"
	"github.com/pkordes/trip-manager/internal/config"
	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/logging"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/schema"
	"github.com/pkordes/trip-manager/internal/service"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "tripctl",
		Usage:     "Inspect and maintain trip manager data",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Document store to probe (mongo, surrealdb, postgres, none); overrides DOCSTORE_DRIVER",
			},
			&cli.StringFlag{
				Name:  "data-file",
				Usage: "JSON file used when no document store is reachable; overrides DATA_FILE",
			},
		},
		Before: func(c *cli.Context) error {
			slog.SetDefault(logging.New(c.App.ErrWriter, "text", c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "probe",
				Usage:  "Print the backend the server would select",
				Action: probeCommand,
			},
			{
				Name:      "list",
				Usage:     "List the records of a collection",
				ArgsUsage: "[--filter field=value]... [--sort [-]field]... <collection>",
				Action:    listCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "Keep records whose field loosely equals value (field=value, repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "sort",
						Aliases: []string{"s"},
						Usage:   "Sort by field; prefix with - for descending (repeatable)",
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Print one record",
				ArgsUsage: "<collection> <id>",
				Action:    getCommand,
			},
			{
				Name:      "delete-trip",
				Usage:     "Delete a trip and every record that belongs to it",
				ArgsUsage: "<trip-id>",
				Action:    deleteTripCommand,
			},
			{
				Name:   "export",
				Usage:  "Dump all seven collections as JSON",
				Action: exportCommand,
			},
		},
	}
}

// session is the storage opened for one command.
type session struct {
	sel   backend.Selection
	store repo.Store
}

func open(c *cli.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if d := c.String("driver"); d != "" {
		cfg.Driver = strings.ToLower(d)
	}
	if f := c.String("data-file"); f != "" {
		cfg.DataFile = f
	}

	opts := backend.OptionsFor(cfg)
	opts.Logger = slog.Default()
	sel, err := backend.Select(c.Context, opts)
	if err != nil {
		return nil, err
	}
	return &session{sel: sel, store: repo.New(sel.Store, schema.Default())}, nil
}

func (s *session) close() {
	if err := s.sel.Close(context.Background()); err != nil {
		slog.Error("failed to close document store", "error", err)
	}
}

func probeCommand(c *cli.Context) error {
	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	out := map[string]string{"backend": string(s.sel.Mode), "driver": s.sel.Driver}
	if s.sel.Err != nil {
		out["error"] = s.sel.Err.Error()
	}
	return printJSON(c, out)
}

func listCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: tripctl list <collection>")
	}
	collection, err := collectionArg(c)
	if err != nil {
		return err
	}
	q, err := parseQuery(c.StringSlice("filter"), c.StringSlice("sort"))
	if err != nil {
		return err
	}

	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	recs, err := s.store.List(c.Context, collection, q)
	if err != nil {
		return err
	}
	return printJSON(c, recs)
}

func getCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: tripctl get <collection> <id>")
	}
	collection, err := collectionArg(c)
	if err != nil {
		return err
	}
	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	rec, err := s.store.GetByID(c.Context, collection, c.Args().Get(1))
	if err != nil {
		return err
	}
	return printJSON(c, rec)
}

func deleteTripCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: tripctl delete-trip <trip-id>")
	}
	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	rep, err := cascade.New(s.store, cascade.WithLogger(slog.Default())).DeleteTrip(c.Context, c.Args().First())
	if perr := printJSON(c, rep); perr != nil {
		return perr
	}
	return err
}

func exportCommand(c *cli.Context) error {
	s, err := open(c)
	if err != nil {
		return err
	}
	defer s.close()

	snap, err := service.NewExportService(s.store).Snapshot(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, snap)
}

// parseQuery turns field=value filters and [-]field sorts into a repo.Query.
func parseQuery(filters, sorts []string) (repo.Query, error) {
	var q repo.Query
	for _, f := range filters {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" {
			return q, fmt.Errorf("invalid filter %q: want field=value", f)
		}
		if q.Filter == nil {
			q.Filter = repo.Filter{}
		}
		q.Filter[field] = value
	}
	for _, s := range sorts {
		field, desc := strings.CutPrefix(s, "-")
		if field == "" {
			return q, fmt.Errorf("invalid sort %q", s)
		}
		q.Sort = append(q.Sort, repo.SortField{Field: field, Descending: desc})
	}
	return q, nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func collectionArg(c *cli.Context) (string, error) {
	name := c.Args().First()
	if !domain.IsCollection(name) {
		return "", fmt.Errorf("unknown collection %q (want one of %s)", name, strings.Join(domain.Collections, ", "))
	}
	return name, nil
}
