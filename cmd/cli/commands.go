package main

import (
	"context"
	"errors"
	"flag"
	"io"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/store"
)

var errNeedID = errors.New("need -id")

// activityFlags binds the editable activity fields to a flag set.
type activityFlags struct {
	id, title, description, category, date, city, venue *string
}

func bindActivity(fs *flag.FlagSet) activityFlags {
	return activityFlags{
		id:          fs.String("id", "", "activity id"),
		title:       fs.String("title", "", "title"),
		description: fs.String("description", "", "description"),
		category:    fs.String("category", "", "category"),
		date:        fs.String("date", "", "date (RFC 3339, 2006-01-02T15:04 or 2006-01-02)"),
		city:        fs.String("city", "", "city"),
		venue:       fs.String("venue", "", "venue"),
	}
}

// apply overwrites the fields that were set on the command line.
func (f activityFlags) apply(fs *flag.FlagSet, a *api.ActivityDTO) error {
	var err error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "id":
			a.ID = *f.id
		case "title":
			a.Title = *f.title
		case "description":
			a.Description = *f.description
		case "category":
			a.Category = *f.category
		case "city":
			a.City = *f.city
		case "venue":
			a.Venue = *f.venue
		case "date":
			ts, perr := api.ParseTimestamp(*f.date)
			if perr != nil {
				err = perr
				return
			}
			a.Date = ts
		}
	})
	return err
}

func cmdList(ctx context.Context, s *store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	grouped := fs.Bool("grouped", false, "group by calendar day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := s.LoadAll(ctx); err != nil {
		return err
	}
	if *grouped {
		printJSON(out, s.Grouped())
		return nil
	}
	printJSON(out, s.ByDate())
	return nil
}

func cmdGet(ctx context.Context, s *store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	id := fs.String("id", "", "activity id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errNeedID
	}
	a, err := s.LoadOne(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(out, a)
	return nil
}

func cmdCreate(ctx context.Context, s *store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	af := bindActivity(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var a api.ActivityDTO
	if err := af.apply(fs, &a); err != nil {
		return err
	}
	created, err := s.Create(ctx, a)
	if err != nil {
		return err
	}
	printJSON(out, created)
	return nil
}

func cmdEdit(ctx context.Context, s *store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	af := bindActivity(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *af.id == "" {
		return errNeedID
	}
	a, err := s.LoadOne(ctx, *af.id)
	if err != nil {
		return err
	}
	if err := af.apply(fs, &a); err != nil {
		return err
	}
	if err := s.Edit(ctx, a); err != nil {
		return err
	}
	printJSON(out, a)
	return nil
}

func cmdRemove(ctx context.Context, s *store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	id := fs.String("id", "", "activity id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errNeedID
	}
	if err := s.Delete(ctx, *id); err != nil {
		return err
	}
	_, _ = io.WriteString(out, "ok\n")
	return nil
}
