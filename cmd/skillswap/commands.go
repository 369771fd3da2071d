package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/skillswap/client/internal/directory"
	"github.com/skillswap/client/internal/domain"
)

var errUsage = errors.New("usage")

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {"login [-email e] [-password p]", "log in and store the session", cmdLogin},
	"logout":   {"logout", "forget the stored session", cmdLogout},
	"register": {"register -first f -last l -email e [-password p]", "create an account", cmdRegister},
	"verify":   {"verify <token>", "confirm an email address", cmdVerify},
	"whoami":   {"whoami", "show the logged-in member", cmdWhoami},
	"browse":   {"browse [-page n] [-search s] [-availability a]", "list public profiles", cmdBrowse},
	"stats":    {"stats", "show platform counters", cmdStats},
	"show":     {"show <profile-id>", "show one public profile", cmdShow},
	"request":  {"request [-message m] <profile-id>", "ask a member to connect", cmdRequest},
	"requests": {"requests [-sent]", "list received (or sent) requests", cmdRequests},
	"accept":   {"accept <request-id>", "accept a received request", cmdRespond(domain.DecisionAccept)},
	"decline":  {"decline <request-id>", "decline a received request", cmdRespond(domain.DecisionDecline)},
	"me":       {"me", "show your own profile", cmdMe},
	"edit":     {"edit [-first f] [-last l] [-bio b] [-location l] [-availability a] [-public=bool] [-offer csv] [-want csv]", "edit your profile", cmdEdit},
	"photo":    {"photo <image-file>", "upload a profile photo", cmdPhoto},
	"rate":     {"rate [-review r] <profile-id> <1-5>", "rate a member", cmdRate},
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() != positional {
		return nil, errUsage
	}
	return fs.Args(), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

// prompt reads one line from stdin
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label+": ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = a.prompt("Email"); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.prompt("Password"); err != nil {
			return err
		}
	}

	user, err := a.account.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.DisplayName(), user.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if _, err := parse(newFlagSet("logout"), args, 0); err != nil {
		return err
	}
	if err := a.account.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	first := fs.String("first", "", "")
	last := fs.String("last", "", "")
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	req := domain.RegisterRequest{
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		Password:  *password,
	}
	if req.Password == "" {
		var err error
		if req.Password, err = a.prompt("Password"); err != nil {
			return err
		}
		if req.ConfirmPassword, err = a.prompt("Confirm password"); err != nil {
			return err
		}
	} else {
		req.ConfirmPassword = req.Password
	}

	msg, err := a.account.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func cmdVerify(ctx context.Context, a *app, args []string) error {
	rest, err := parse(newFlagSet("verify"), args, 1)
	if err != nil {
		return err
	}
	msg, err := a.account.VerifyEmail(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	if _, err := parse(newFlagSet("whoami"), args, 0); err != nil {
		return err
	}
	user, ok := a.account.Current()
	if !ok {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (id %d)\n", user.DisplayName(), user.Email, user.ID)
	return nil
}

func cmdBrowse(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("browse")
	page := fs.Int("page", 1, "")
	search := fs.String("search", "", "")
	availability := fs.String("availability", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	b := directory.NewBrowser(a.directory, a.cfg.Client.PageSize)
	if err := b.Open(ctx, *page, *search, *availability); err != nil {
		return err
	}

	v := b.View()
	fmt.Fprintln(a.out, b.Summary())
	if len(v.Listing.Items) > 0 {
		fmt.Fprintln(a.out)
		printCards(a.out, v.Listing.Items)
	}
	if pages := b.Pages(); len(pages) > 1 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Pages: "+renderPages(pages, v.Page))
	}
	return nil
}

func cmdStats(ctx context.Context, a *app, args []string) error {
	if _, err := parse(newFlagSet("stats"), args, 0); err != nil {
		return err
	}
	s, err := directory.NewStatsTracker(a.directory).Refresh(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Active members\t%d\n", s.ActiveMembers)
	fmt.Fprintf(w, "Successful matches\t%d\n", s.SuccessfulMatches)
	fmt.Fprintf(w, "Skills offered\t%d\n", s.TotalSkillsOffered)
	fmt.Fprintf(w, "Connection requests\t%d\n", s.TotalConnectionRequests)
	return w.Flush()
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	rest, err := parse(newFlagSet("show"), args, 1)
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	card, err := a.directory.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	printCard(a.out, card)
	return nil
}

func cmdRequest(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("request")
	message := fs.String("message", "", "")
	rest, err := parse(fs, args, 1)
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	res, err := a.connections.SendRequest(ctx, id, *message)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func cmdRequests(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("requests")
	sent := fs.Bool("sent", false, "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	list := a.connections.ListReceived
	if *sent {
		list = a.connections.ListSent
	}
	items, err := list(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No connection requests")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tWITH\tSENT\tMESSAGE")
	for _, r := range items {
		other := r.Sender
		if *sent {
			other = r.Receiver
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, other.Name, r.CreatedAt.Format("2006-01-02"), r.Message)
	}
	return w.Flush()
}

func cmdRespond(decision domain.Decision) func(ctx context.Context, a *app, args []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		rest, err := parse(newFlagSet(strings.ToLower(string(decision))), args, 1)
		if err != nil {
			return err
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}

		// load first so the answer is applied to a cached request
		if _, err := a.connections.ListReceived(ctx); err != nil {
			return err
		}
		res, err := a.connections.Respond(ctx, id, decision)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, res.Message)
		return nil
	}
}

func cmdMe(ctx context.Context, a *app, args []string) error {
	if _, err := parse(newFlagSet("me"), args, 0); err != nil {
		return err
	}
	p, err := a.editor.Load(ctx)
	if err != nil {
		return err
	}
	printProfile(a.out, p)
	return nil
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("edit")
	first := fs.String("first", "", "")
	last := fs.String("last", "", "")
	bio := fs.String("bio", "", "")
	location := fs.String("location", "", "")
	availability := fs.String("availability", "", "")
	public := fs.Bool("public", true, "")
	offer := fs.String("offer", "", "")
	want := fs.String("want", "", "")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		return errUsage
	}

	e := a.editor
	if _, err := e.Load(ctx); err != nil {
		return err
	}
	if err := e.Edit(); err != nil {
		return err
	}

	edits := []struct {
		flag  string
		apply func() error
	}{
		{"first", func() error { return e.SetFirstName(*first) }},
		{"last", func() error { return e.SetLastName(*last) }},
		{"bio", func() error { return e.SetBio(*bio) }},
		{"location", func() error { return e.SetLocation(*location) }},
		{"availability", func() error { return e.SetAvailability(*availability) }},
		{"public", func() error { return e.SetPublic(*public) }},
		{"offer", func() error {
			return replaceSkills(len(e.Draft().SkillsOffered), e.RemoveSkillOffered, e.AddSkillOffered, *offer)
		}},
		{"want", func() error {
			return replaceSkills(len(e.Draft().SkillsWanted), e.RemoveSkillWanted, e.AddSkillWanted, *want)
		}},
	}
	for _, ed := range edits {
		if !set[ed.flag] {
			continue
		}
		if err := ed.apply(); err != nil {
			return err
		}
	}

	if err := e.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile saved")
	printProfile(a.out, e.Committed())
	return nil
}

func replaceSkills(n int, remove func(int) error, add func(string) error, csv string) error {
	for i := n - 1; i >= 0; i-- {
		if err := remove(i); err != nil {
			return err
		}
	}
	for _, s := range strings.Split(csv, ",") {
		if err := add(s); err != nil {
			return err
		}
	}
	return nil
}

func cmdPhoto(ctx context.Context, a *app, args []string) error {
	rest, err := parse(newFlagSet("photo"), args, 1)
	if err != nil {
		return err
	}
	f, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := a.editor.Load(ctx); err != nil {
		return err
	}
	url, err := a.editor.UploadPhoto(ctx, filepath.Base(rest[0]), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Photo uploaded: %s\n", url)
	return nil
}

func cmdRate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("rate")
	review := fs.String("review", "", "")
	rest, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(rest[1])
	if err != nil {
		return errUsage
	}
	if err := a.directory.Rate(ctx, id, rating, *review); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Rating submitted")
	return nil
}
