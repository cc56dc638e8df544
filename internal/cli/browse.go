package cli

import (
	"context"
	"io"
	"time"

	"bookingcrm/internal/apiclient"
	"bookingcrm/internal/config"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/repositories"
	"bookingcrm/internal/services"

	"github.com/spf13/cobra"
)

const (
	sourceAPI = "api"
	sourceDB  = "db"
)

type browseOptions struct {
	source      string
	pageSize    int
	searchDelay time.Duration
	email       string
	password    string
}

func newBrowseCmd(a *app) *cobra.Command {
	var opts browseOptions

	cmd := &cobra.Command{
		Use:       "browse bookings|leads",
		Short:     "Browse bookings or leads in the terminal",
		Long:      "Browse bookings or leads in the terminal.\n\n" + browseHelp,
		ValidArgs: []string{"bookings", "leads"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.pageSize == 0 {
				opts.pageSize = a.env.PageSize
			}
			return a.browse(cmd.Context(), args[0], opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", sourceAPI, "where rows come from: api or db")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "rows per page (default PAGE_SIZE)")
	cmd.Flags().DurationVar(&opts.searchDelay, "search-delay", listing.DefaultSearchDelay, "how long search input settles before fetching")
	cmd.Flags().StringVar(&opts.email, "email", "", "log in with this email when API_TOKEN is not set")
	cmd.Flags().StringVar(&opts.password, "password", "", "password for --email")
	return cmd
}

// listSource is what the browser needs from a backend.
type listSource struct {
	fetcher   listing.Fetcher
	reference listing.ReferenceSource
	editor    listing.BulkEditor
	close     func()
}

func (a *app) browse(ctx context.Context, resource string, opts browseOptions, in io.Reader, out io.Writer) error {
	view, ok := browseResources[resource]
	if !ok {
		return domain.ValidationError{Field: "resource", Msg: "must be bookings or leads"}
	}

	var (
		src listSource
		err error
	)
	switch opts.source {
	case sourceAPI:
		src, err = a.apiSource(ctx, resource, opts)
	case sourceDB:
		src, err = a.dbSource(ctx, resource)
	default:
		return domain.ValidationError{Field: "source", Msg: "must be api or db"}
	}
	if err != nil {
		return err
	}
	defer src.close()

	ctrl := listing.NewController(listing.Options{
		Fetcher:     src.fetcher,
		PageSize:    opts.pageSize,
		SearchDelay: opts.searchDelay,
		Logger:      a.log.WithField("resource", resource),
		Reference:   src.reference,
		Editor:      src.editor,
		Observe:     a.metrics.FetchObserver(resource),
	})
	defer ctrl.Close()

	b := &browser{ctrl: ctrl, view: view, out: out}
	return b.run(ctx, in)
}

func (a *app) apiSource(ctx context.Context, resource string, opts browseOptions) (listSource, error) {
	client, err := apiclient.New(a.env.Client)
	if err != nil {
		return listSource{}, err
	}
	if opts.email != "" {
		if err := client.Login(ctx, opts.email, opts.password); err != nil {
			return listSource{}, err
		}
	}
	src := listSource{fetcher: client.Bookings(), close: func() {}}
	if resource == "leads" {
		src = listSource{fetcher: client.Leads(), reference: client, editor: client, close: func() {}}
	}
	return src, nil
}

func (a *app) dbSource(ctx context.Context, resource string) (listSource, error) {
	sqlDB, err := config.OpenDB(ctx, a.env.Database)
	if err != nil {
		return listSource{}, err
	}
	closeDB := func() { _ = sqlDB.Close() }

	if resource == "leads" {
		reference := repositories.ReferenceRepository{DB: sqlDB}
		svc := services.LeadService{Leads: repositories.LeadRepository{DB: sqlDB}, Reference: reference}
		return listSource{fetcher: svc.Fetcher(), reference: reference, editor: svc, close: closeDB}, nil
	}
	svc := services.BookingService{
		Bookings: repositories.BookingRepository{DB: sqlDB},
		Users:    repositories.UserRepository{DB: sqlDB},
	}
	return listSource{fetcher: svc.Fetcher(), close: closeDB}, nil
}
