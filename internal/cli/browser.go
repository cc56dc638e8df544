package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/listing"
	"bookingcrm/internal/utils"

	"github.com/shopspring/decimal"
)

const browseHelp = `type text to search, or a command:
  :page N            go to page N
  :next / :prev      move one page
  :size N            rows per page (10, 20, 50 or 100)
  :filter k=v ...    replace the filters; from=/to= filter the date column
  :reset             clear search and filters
  :update agent=ID status=ID ids...   reassign rows (leads); ids may be comma separated
  :delete ids...     delete rows (leads)
  :refresh           reload the current page
  :quit              leave`

// resourceView is how one resource is listed in the terminal.
type resourceView struct {
	name      string
	columns   []string
	dateField string
	bulk      bool
}

var browseResources = map[string]resourceView{
	"bookings": {
		name:      "bookings",
		columns:   []string{"name", "contact_number", "project_name", "status", "booking_date", "total"},
		dateField: "booking_date",
	},
	"leads": {
		name:      "leads",
		columns:   []string{"name", "phone", "email", "source", "agent_id", "status_id", "created_at"},
		dateField: "created_at",
		bulk:      true,
	},
}

// browser reads commands line by line and prints the list after each one.
type browser struct {
	ctrl *listing.Controller
	view resourceView
	out  io.Writer
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	b.ctrl.Refresh()
	b.ctrl.Wait()
	b.render()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(b.out)
			return sc.Err()
		}
		quit, err := b.exec(ctx, sc.Text())
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintln(b.out, "error:", err)
			continue
		}
		b.ctrl.Wait()
		b.render()
	}
}

func (b *browser) exec(ctx context.Context, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		b.ctrl.SetSearchText(trimmed)
		b.ctrl.FlushSearch()
		return false, nil
	}

	fields := strings.Fields(trimmed)
	args := fields[1:]
	switch fields[0] {
	case ":quit", ":q":
		return true, nil
	case ":help":
		fmt.Fprintln(b.out, browseHelp)
		return false, nil
	case ":page":
		n, err := intArg(args)
		if err != nil {
			return false, err
		}
		if !b.ctrl.SetPage(n) {
			return false, domain.ValidationError{Field: "page", Msg: fmt.Sprintf("%d is out of range", n)}
		}
	case ":next", ":prev":
		p := b.ctrl.Pagination()
		n := p.Current + 1
		if fields[0] == ":prev" {
			n = p.Current - 1
		}
		if !b.ctrl.SetPage(n) {
			return false, domain.ValidationError{Field: "page", Msg: "no more pages"}
		}
	case ":size":
		n, err := intArg(args)
		if err != nil {
			return false, err
		}
		if err := b.ctrl.SetPageSize(n); err != nil {
			return false, err
		}
	case ":filter":
		criteria, err := parseFilters(args, b.view.dateField)
		if err != nil {
			return false, err
		}
		if err := b.ctrl.SetAdvancedFilters(criteria); err != nil {
			return false, err
		}
	case ":reset":
		b.ctrl.ResetFilters()
	case ":refresh":
		b.ctrl.Refresh()
	case ":update", ":delete":
		if !b.view.bulk {
			return false, domain.ValidationError{Msg: b.view.name + " do not support bulk actions"}
		}
		return false, b.bulk(ctx, fields[0], args)
	default:
		return false, domain.ValidationError{Msg: fmt.Sprintf("unknown command %s, try :help", fields[0])}
	}
	return false, nil
}

func (b *browser) bulk(ctx context.Context, cmd string, args []string) error {
	var (
		u   listing.BulkUpdate
		ids []string
	)
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			ids = append(ids, utils.SplitList(a)...)
			continue
		}
		switch key {
		case "agent":
			u.AgentID = val
		case "status":
			u.StatusID = val
		default:
			return domain.ValidationError{Field: key, Msg: "expected agent= or status="}
		}
	}
	if cmd == ":delete" {
		if err := b.ctrl.BulkDelete(ctx, ids); err != nil {
			return err
		}
		fmt.Fprintf(b.out, "deleted %d %s\n", len(ids), b.view.name)
		return nil
	}
	if err := b.ctrl.BulkUpdate(ctx, ids, u); err != nil {
		return err
	}
	fmt.Fprintf(b.out, "updated %d %s\n", len(ids), b.view.name)
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, domain.ValidationError{Msg: "expected one number"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, domain.ValidationError{Msg: fmt.Sprintf("%q is not a number", args[0])}
	}
	return n, nil
}

// parseFilters turns k=v tokens into criteria. from= and to= bound dateField.
func parseFilters(args []string, dateField string) (listing.Criteria, error) {
	criteria := listing.Criteria{}
	var rng listing.DateRange
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, domain.ValidationError{Field: "filter", Msg: fmt.Sprintf("expected key=value, got %q", a)}
		}
		switch key {
		case "from", "to":
			if dateField == "" {
				return nil, domain.ValidationError{Field: key, Msg: "no date column to filter"}
			}
			t, err := utils.ParseDate(val)
			if err != nil {
				return nil, domain.ValidationError{Field: key, Msg: "must be YYYY-MM-DD"}
			}
			if key == "from" {
				rng.Start = &t
			} else {
				rng.End = &t
			}
		default:
			criteria[key] = listing.Eq{Value: val}
		}
	}
	if !rng.Empty() {
		criteria[dateField] = rng
	}
	return criteria, nil
}

func (b *browser) render() {
	v := b.ctrl.Snapshot()
	fmt.Fprintf(b.out, "%s page %d/%d (%d total)", b.view.name, v.Page.Current, max(1, v.Page.Pages()), v.Page.Total)
	if v.SearchText != "" {
		fmt.Fprintf(b.out, " search=%q", v.SearchText)
	}
	fmt.Fprintln(b.out)
	if v.Err != "" {
		fmt.Fprintln(b.out, "error:", v.Err)
	}
	if len(v.Rows) == 0 {
		fmt.Fprintln(b.out, "no rows")
		return
	}

	tw := tabwriter.NewWriter(b.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t"+strings.ToUpper(strings.Join(b.view.columns, "\t")))
	for _, r := range v.Rows {
		cells := make([]string, 0, len(b.view.columns)+1)
		cells = append(cells, r.ID)
		for _, col := range b.view.columns {
			val, ok := r.Get(col)
			cells = append(cells, formatCell(val, ok))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func formatCell(v any, ok bool) string {
	if !ok {
		return "-"
	}
	switch x := v.(type) {
	case time.Time:
		return utils.FormatDate(x)
	case decimal.Decimal:
		return utils.FormatRupees(x)
	case string:
		if x == "" {
			return "-"
		}
		return x
	}
	return fmt.Sprint(v)
}
