package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"staywise/internal/app/dto"
	"staywise/internal/client"
	"staywise/internal/domain/shared/daterange"
)

const usage = `usage: staywisectl [-api URL] [-session FILE] <command> [flags]

commands:
  signup -email E -password P -first F -last L
  login -email E -password P
  logout
  whoami
  properties [-search S] [-type T] [-city C] [-min N] [-max N] [-capacity N] [-page N] [-limit N]
  property ID
  book -property ID -in DATE -out DATE -guests N
  bookings
  admin bookings | admin set-booking ID STATUS
  admin users | admin set-user ID [-role R] [-active true|false]
  admin set-property ID [-approved true|false] [-active true|false]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "staywisectl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("staywisectl", flag.ContinueOnError)
	apiURL := global.String("api", envOr("STAYWISE_API_URL", "http://localhost:8080"), "API base url")
	sessionPath := global.String("session", envOr("STAYWISE_SESSION", defaultSessionPath()), "session file")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	session, err := client.LoadSession(*sessionPath)
	if err != nil {
		return err
	}
	c, err := client.New(*apiURL, session)
	if err != nil {
		return err
	}
	cli := &cli{client: c, session: session, out: out}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "signup":
		return cli.signup(ctx, cmdArgs)
	case "login":
		return cli.login(ctx, cmdArgs)
	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil
	case "whoami":
		return cli.whoami(ctx)
	case "properties":
		return cli.properties(ctx, cmdArgs)
	case "property":
		return cli.property(ctx, cmdArgs)
	case "book":
		return cli.book(ctx, cmdArgs)
	case "bookings":
		bookings, err := c.MyBookings(ctx)
		if err != nil {
			return err
		}
		cli.printBookings(bookings)
		return nil
	case "admin":
		return cli.admin(ctx, cmdArgs)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type cli struct {
	client  *client.Client
	session *client.Session
	out     io.Writer
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	in := client.SignupInput{}
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := c.client.Signup(ctx, in)
	if err != nil {
		return err
	}
	if err := c.session.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed up as %s (%s)\n", res.User.Email, res.User.Role)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := c.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := c.session.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s (%s)\n", res.User.Email, res.User.Role)
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	user, err := c.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s <%s> role=%s active=%t\n", user.FirstName, user.LastName, user.Email, user.Role, user.IsActive)
	return nil
}

func (c *cli) properties(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("properties", flag.ContinueOnError)
	var f client.CatalogFilter
	fs.StringVar(&f.Search, "search", "", "text search")
	fs.StringVar(&f.Type, "type", "", "apartment|house|villa|studio")
	fs.StringVar(&f.City, "city", "", "city")
	fs.Float64Var(&f.MinPrice, "min", 0, "minimum nightly price")
	maxPrice := fs.Float64("max", 0, "maximum nightly price")
	fs.IntVar(&f.Capacity, "capacity", 0, "minimum capacity")
	fs.IntVar(&f.Page, "page", 0, "page")
	fs.IntVar(&f.Limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "max" {
			f.MaxPrice = maxPrice
		}
	})
	catalog, err := c.client.Properties(ctx, f)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tCITY\tPRICE\tCAPACITY")
	for _, p := range catalog.Properties {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Title, p.Type, p.Location.City, p.Price, p.Capacity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pg := catalog.Pagination
	fmt.Fprintf(c.out, "page %d/%d, %d properties\n", pg.CurrentPage, pg.TotalPages, pg.TotalProperties)
	return nil
}

func (c *cli) property(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("property: expected an id")
	}
	p, err := c.client.Property(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s\n  %s\n  %s, %s, %s\n  %.2f per night, sleeps %d, %s\n  amenities: %s\n",
		p.Title, p.Description, p.Location.Address, p.Location.City, p.Location.Country,
		p.Price, p.Capacity, p.Type, strings.Join(p.Amenities, ", "))
	return nil
}

func (c *cli) book(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	propertyID := fs.String("property", "", "property id")
	checkIn := fs.String("in", "", "check-in date (ISO-8601)")
	checkOut := fs.String("out", "", "check-out date (ISO-8601)")
	guests := fs.Int("guests", 1, "guests")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in, err := daterange.ParseTime(*checkIn)
	if err != nil {
		return fmt.Errorf("book: check-in: %w", err)
	}
	outDate, err := daterange.ParseTime(*checkOut)
	if err != nil {
		return fmt.Errorf("book: check-out: %w", err)
	}
	b, err := c.client.CreateBooking(ctx, client.BookingInput{
		PropertyID:     *propertyID,
		CheckIn:        in,
		CheckOut:       outDate,
		Guests:         *guests,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "booking %s %s: %d nights, total %.2f\n", b.ID, b.Status, b.Nights, b.TotalPrice)
	return nil
}

func (c *cli) admin(ctx context.Context, args []string) error {
	if !c.session.IsAdmin() {
		return errors.New("admin: log in with an admin account first")
	}
	if len(args) == 0 {
		return errors.New("admin: missing subcommand")
	}
	switch args[0] {
	case "bookings":
		bookings, err := c.client.AllBookings(ctx)
		if err != nil {
			return err
		}
		c.printBookings(bookings)
		return nil
	case "set-booking":
		if len(args) != 3 {
			return errors.New("admin set-booking: expected ID STATUS")
		}
		b, err := c.client.UpdateBookingStatus(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "booking %s is now %s\n", b.ID, b.Status)
		return nil
	case "users":
		users, err := c.client.Users(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%t\n", u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.IsActive)
		}
		return tw.Flush()
	case "set-user":
		return c.setUser(ctx, args[1:])
	case "set-property":
		return c.setProperty(ctx, args[1:])
	default:
		return fmt.Errorf("admin: unknown subcommand %q", args[0])
	}
}

func (c *cli) setUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("admin set-user: expected an id")
	}
	fs := flag.NewFlagSet("set-user", flag.ContinueOnError)
	role := fs.String("role", "", "user|admin")
	active := optionalBool{}
	fs.Var(&active, "active", "true|false")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	update := client.UserUpdate{IsActive: active.value}
	if *role != "" {
		update.Role = role
	}
	u, err := c.client.UpdateUser(ctx, args[0], update)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "user %s role=%s active=%t\n", u.Email, u.Role, u.IsActive)
	return nil
}

func (c *cli) setProperty(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("admin set-property: expected an id")
	}
	fs := flag.NewFlagSet("set-property", flag.ContinueOnError)
	approved, active := optionalBool{}, optionalBool{}
	fs.Var(&approved, "approved", "true|false")
	fs.Var(&active, "active", "true|false")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	p, err := c.client.UpdateProperty(ctx, args[0], client.PropertyUpdate{IsApproved: approved.value, IsActive: active.value})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "property %s approved=%t active=%t\n", p.ID, p.IsApproved, p.IsActive)
	return nil
}

func (c *cli) printBookings(bookings []dto.BookingView) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROPERTY\tCHECK-IN\tCHECK-OUT\tGUESTS\tTOTAL\tSTATUS")
	for _, b := range bookings {
		title := b.PropertyID
		if b.Property != nil {
			title = b.Property.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f\t%s\n", b.ID, title,
			b.CheckIn.Format(time.DateOnly), b.CheckOut.Format(time.DateOnly), b.Guests, b.TotalPrice, b.Status)
	}
	_ = tw.Flush()
}

// optionalBool is a flag that stays nil unless given.
type optionalBool struct {
	value *bool
}

func (o *optionalBool) String() string {
	if o == nil || o.value == nil {
		return ""
	}
	return fmt.Sprint(*o.value)
}

func (o *optionalBool) Set(raw string) error {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		v := true
		o.value = &v
	case "false", "0", "no":
		v := false
		o.value = &v
	default:
		return fmt.Errorf("invalid boolean %q", raw)
	}
	return nil
}

func (o *optionalBool) IsBoolFlag() bool { return true }

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "staywise", "session.json")
}
