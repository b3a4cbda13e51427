// Command vault is a terminal client for the document vault. It talks to the
// database and the blob store directly and keeps its session token in a local
// SQLite file between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"dokubox/internal/apperr"
	"dokubox/internal/category"
	"dokubox/internal/config"
	"dokubox/internal/database"
	"dokubox/internal/kv"
	"dokubox/internal/logger"
	"dokubox/internal/model"
	"dokubox/internal/query"
	"dokubox/internal/repository/postgres"
	"dokubox/internal/service"
	"dokubox/internal/session"
	"dokubox/internal/storage"
	"dokubox/internal/token"
	"dokubox/internal/vault"
)

const usage = `usage: vault <command> [flags]

commands:
  register   -name -email -password
  login      -email -password
  whoami
  passwd     -current -new
  rename     -name
  logout
  categories
  list       [-sort uploadDate|title|expirationDate] [-order ASC|DESC] [-q text] [-category id]
  show       <id>
  add        -title -category [-store] [-notes] [-expires YYYY-MM-DD] [-image path]
  edit       <id> [-title] [-category] [-store] [-notes] [-expires YYYY-MM-DD|none] [-image path|none]
  rm         <id>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Only warnings and up reach the terminal.
	log := logger.NewWithWriter(os.Stderr, "warn")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, apperr.ErrValidation) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *zap.Logger, cmd string, args []string, out io.Writer) error {
	tokens, err := kv.OpenSQLite(cfg.Client.TokenDBPath)
	if err != nil {
		return err
	}
	defer tokens.Close()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	blobs, err := storage.NewMinIO(ctx, cfg.MinIO, log)
	if err != nil {
		return err
	}
	maxUpload, err := cfg.Storage.MaxUploadBytes()
	if err != nil {
		return err
	}

	client := vault.New(vault.Deps{
		Accounts: postgres.NewAccountPostgres(db, token.New(cfg.Auth.JWTSecret), postgres.AccountPolicy{
			SessionTTL:        cfg.Auth.SessionTTL.Std(),
			MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
			LockoutDuration:   cfg.Auth.LockoutDuration.Std(),
		}),
		Documents: postgres.NewDocumentPostgres(db),
		Attachments: service.NewAttachmentService(blobs, service.AttachmentConfig{
			PublicEndpoint: cfg.Storage.PublicEndpoint,
			Project:        cfg.Storage.Project,
			MaxBytes:       maxUpload,
		}, nil, log),
		Categories: category.Default(),
		Tokens:     tokens,
		Retry:      session.RetryPolicy{Backoff: cfg.Auth.RetryBackoff.Std()},
		Blobs:      service.BlobPolicy{PurgeReplaced: cfg.Storage.PurgeReplaced},
		Log:        log,
	})
	if _, err := client.Restore(ctx); err != nil {
		return err
	}
	return dispatch(ctx, client, cmd, args, out)
}

func dispatch(ctx context.Context, v vault.API, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch cmd {
	case "register":
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := parse(fs, args); err != nil {
			return err
		}
		sess, err := v.Register(ctx, *name, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "signed in as %s\n", sess.UserID)
		return nil

	case "login":
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := parse(fs, args); err != nil {
			return err
		}
		sess, err := v.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "signed in as %s\n", sess.UserID)
		return nil

	case "whoami":
		u, err := v.CurrentUser(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <%s> since %s\n", u.Name, u.Email, u.RegistrationDate.Format(time.DateOnly))
		return nil

	case "passwd":
		current := fs.String("current", "", "current password")
		next := fs.String("new", "", "new password")
		if err := parse(fs, args); err != nil {
			return err
		}
		return v.ChangePassword(ctx, *current, *next)

	case "rename":
		name := fs.String("name", "", "display name")
		if err := parse(fs, args); err != nil {
			return err
		}
		_, err := v.UpdateName(ctx, *name)
		return err

	case "logout":
		return v.SignOut(ctx)

	case "categories":
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, c := range v.ListCategories() {
			fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
		}
		return w.Flush()

	case "list":
		sortBy := fs.String("sort", "", "sort field")
		order := fs.String("order", "", "ASC or DESC")
		text := fs.String("q", "", "text filter")
		cat := fs.String("category", "", "category id")
		if err := parse(fs, args); err != nil {
			return err
		}
		docs, err := v.ListForCurrentUser(ctx, model.SortField(*sortBy), model.SortOrder(*order))
		if err != nil {
			return err
		}
		printDocuments(out, v.Filter(docs, query.Predicate{Text: *text, CategoryID: *cat}))
		return nil

	case "show":
		id, err := positional(fs, args)
		if err != nil {
			return err
		}
		doc, err := v.GetByID(ctx, id)
		if err != nil {
			return err
		}
		printDocuments(out, []model.Document{*doc})
		if doc.HasImage() {
			fmt.Fprintln(out, doc.ImageURL)
		}
		return nil

	case "add":
		var draft model.Draft
		fs.StringVar(&draft.Title, "title", "", "title")
		fs.StringVar(&draft.CategoryID, "category", "", "category id")
		fs.StringVar(&draft.Store, "store", "", "store")
		fs.StringVar(&draft.Notes, "notes", "", "notes")
		expires := fs.String("expires", "", "expiration date")
		image := fs.String("image", "", "image file")
		if err := parse(fs, args); err != nil {
			return err
		}
		if *expires != "" {
			t, err := parseDay("expires", *expires)
			if err != nil {
				return err
			}
			draft.ExpirationDate = &t
		}
		if *image != "" {
			draft.Image = &model.ImageAsset{URI: *image}
		}
		doc, err := v.Create(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, doc.ID)
		return nil

	case "edit":
		return edit(ctx, v, fs, args, out)

	case "rm":
		id, err := positional(fs, args)
		if err != nil {
			return err
		}
		return v.Delete(ctx, id)
	}
	return apperr.Invalid("command", fmt.Sprintf("unknown command %q\n%s", cmd, usage))
}

// edit sends only the flags given on the command line. "none" clears the
// expiration date or the image.
func edit(ctx context.Context, v vault.API, fs *flag.FlagSet, args []string, out io.Writer) error {
	var (
		patch                    model.Patch
		title, cat, store, notes string
		expires, image           string
	)
	fs.StringVar(&title, "title", "", "title")
	fs.StringVar(&cat, "category", "", "category id")
	fs.StringVar(&store, "store", "", "store")
	fs.StringVar(&notes, "notes", "", "notes")
	fs.StringVar(&expires, "expires", "", "expiration date or none")
	fs.StringVar(&image, "image", "", "image file or none")
	id, err := positional(fs, args)
	if err != nil {
		return err
	}

	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = &title
		case "category":
			patch.CategoryID = &cat
		case "store":
			patch.Store = &store
		case "notes":
			patch.Notes = &notes
		case "expires":
			if expires == "none" || expires == "" {
				patch.ClearExpiration = true
				return
			}
			t, err := parseDay("expires", expires)
			if err != nil {
				parseErr = err
				return
			}
			patch.ExpirationDate = &t
		case "image":
			patch.ImageChanged = true
			if image != "none" && image != "" {
				patch.Image = &model.ImageAsset{URI: image}
			}
		}
	})
	if parseErr != nil {
		return parseErr
	}

	doc, err := v.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s revision %d\n", doc.ID, doc.Revision)
	return nil
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return apperr.Invalid("flags", err.Error())
	}
	return nil
}

// positional parses "<id> [flags]" and returns the id.
func positional(fs *flag.FlagSet, args []string) (string, error) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "", apperr.Invalid("id", "is required")
	}
	return args[0], parse(fs, args[1:])
}

func parseDay(field, v string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "must be YYYY-MM-DD")
	}
	return t, nil
}

func printDocuments(out io.Writer, docs []model.Document) {
	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tSTORE\tUPLOADED\tEXPIRES")
	for _, d := range docs {
		expires := "-"
		if d.ExpirationDate != nil {
			expires = d.ExpirationDate.Format(time.DateOnly)
			if query.IsExpired(d, now) {
				expires += " (expired)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Title, d.CategoryName, d.Store, d.UploadDate.Format(time.DateOnly), expires)
	}
	w.Flush()
}
