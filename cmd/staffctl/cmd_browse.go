package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	prefsbadger "github.com/ogurasousui/staff-directory/internal/adapters/prefs/badger"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/frontend"
	"github.com/spf13/cobra"
)

type browseOptions struct {
	server     string
	token      string
	instance   string
	department string
	search     string
	letter     string
	sort       string
	page       int
	view       string
	prefsDir   string
}

func newBrowseCmd() *cobra.Command {
	o := &browseOptions{}
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Query a running directory over its JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.server, "server", "http://localhost:8080", "base URL of the directory HTTP API")
	f.StringVar(&o.token, "token", os.Getenv("STAFFCTL_TOKEN"), "bearer token (defaults to STAFFCTL_TOKEN)")
	f.StringVar(&o.instance, "instance", "", "named embedded directory with locked constraints")
	f.StringVar(&o.department, "department", "", "department filter")
	f.StringVar(&o.search, "search", "", "free-text search over name, email and login")
	f.StringVar(&o.letter, "letter", "", "first letter of the display name; overrides --search")
	f.StringVar(&o.sort, "sort", "", "name_asc, name_desc, start_date_desc or department_asc (remembered)")
	f.IntVar(&o.page, "page", 1, "page number")
	f.StringVar(&o.view, "view", "", "grid, list or vertical (remembered)")
	f.StringVar(&o.prefsDir, "prefs-dir", defaultPrefsDir(), "directory for remembered preferences; empty keeps them in memory")
	return cmd
}

func defaultPrefsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "staffctl", "prefs")
}

func runBrowse(cmd *cobra.Command, o *browseOptions) error {
	prefsCfg := prefsbadger.InMemoryConfig()
	if o.prefsDir != "" {
		prefsCfg = prefsbadger.Config{Path: o.prefsDir}
	}
	store, err := prefsbadger.Open(prefsCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher := frontend.NewHTTPFetcher(o.server, frontend.WithBearerToken(o.token))
	c := frontend.NewController(fetcher, frontend.Locked{Instance: o.instance},
		frontend.WithPreferences(store),
		frontend.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer c.Close()

	steps := []func(){c.Load}
	if o.view != "" {
		view, ok := frontend.ParseView(o.view)
		if !ok {
			return fmt.Errorf("unknown view %q", o.view)
		}
		steps = append(steps, func() { c.ToggleView(view) })
	}
	if o.sort != "" {
		steps = append(steps, func() { c.ChangeSort(directory.SortKey(o.sort)) })
	}
	if o.department != "" {
		steps = append(steps, func() { c.ChangeDepartment(o.department) })
	}
	switch {
	case o.letter != "":
		steps = append(steps, func() { c.ClickLetter(o.letter) })
	case o.search != "":
		steps = append(steps, func() {
			c.TypeSearch(o.search)
			c.Flush()
		})
	}
	if o.page > 1 {
		steps = append(steps, func() { c.ClickPage(o.page, false) })
	}

	for _, step := range steps {
		step()
		c.Wait()
		if st := c.State(); st.LastError != nil {
			break
		}
	}

	st := c.State()
	switch {
	case st.LoginRequired:
		return errors.New("the directory requires login; pass --token")
	case st.LastError != nil:
		return st.LastError
	}
	return renderState(cmd.OutOrStdout(), st)
}

func renderState(out io.Writer, st frontend.State) error {
	if st.Result == nil || len(st.Result.Items) == 0 {
		_, err := fmt.Fprintln(out, "No employees found.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch st.View {
	case frontend.ViewVertical:
		for _, item := range st.Result.Items {
			fmt.Fprintf(tw, "%s\n", item.DisplayName)
			for _, line := range []struct{ label, value string }{
				{"title", item.JobTitle},
				{"department", item.Department},
				{"email", item.Email},
				{"tenure", item.Tenure},
			} {
				if line.value != "" {
					fmt.Fprintf(tw, "  %s:\t%s\n", line.label, line.value)
				}
			}
		}
	case frontend.ViewList:
		for _, item := range st.Result.Items {
			fmt.Fprintf(tw, "%s\t%s\n", item.DisplayName, item.Email)
		}
	default:
		fmt.Fprintln(tw, "NAME\tDEPARTMENT\tTITLE\tTENURE")
		for _, item := range st.Result.Items {
			name := item.DisplayName
			if item.NewHire {
				name += " (new)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, item.Department, item.JobTitle, item.Tenure)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := st.Result.Pagination
	_, err := fmt.Fprintf(out, "page %d of %d, %d employees%s\n", p.CurrentPage, p.TotalPages, st.Result.Total, pageButtons(p.Buttons))
	return err
}

func pageButtons(buttons []frontend.Button) string {
	if len(buttons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		switch {
		case b.Ellipsis:
			parts = append(parts, "…")
		case b.Current:
			parts = append(parts, fmt.Sprintf("[%d]", b.Page))
		default:
			parts = append(parts, fmt.Sprint(b.Page))
		}
	}
	return " (" + strings.Join(parts, " ") + ")"
}
