package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

var (
	addTitle    string
	addTags     string
	addNotes    string
	addCategory string

	listPending  bool
	listQuery    string
	listCategory string
	listTags     string
)

var addCmd = &cobra.Command{
	Use:     "add <url>",
	Short:   "Queue a bookmark for the next sync",
	GroupID: "links",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := domain.NewBookmark(args[0], addTitle, domain.SplitTags(addTags), addNotes, addCategory, "", time.Now())
		if err != nil {
			return err
		}
		if err := a.Store.AppendLink(cmd.Context(), b); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, b)
		}
		printSuccess(out, fmt.Sprintf("queued %s", b.URL))
		printField(out, "id", b.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List saved bookmarks",
	GroupID: "links",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		var links []domain.Bookmark
		if listPending {
			links, err = a.Store.PendingLinks(ctx)
		} else {
			links, err = a.Store.AllLinks(ctx)
		}
		if err != nil {
			return err
		}

		tags := domain.SplitTags(listTags)
		out := make([]domain.Bookmark, 0, len(links))
		for _, b := range links {
			if b.Matches(listQuery, listCategory, tags) {
				out = append(out, b)
			}
		}

		out = domain.RankBookmarks(listQuery, out)

		w := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(w, out)
		}
		if len(out) == 0 {
			printInfo(w, "No bookmarks found")
			return nil
		}
		for _, b := range out {
			_, _ = fmt.Fprintf(w, "%s  %s\n", b.Title, dimColor.Sprint(b.URL))
			_, _ = fmt.Fprintf(w, "  %s  [%s] %v\n", dimColor.Sprint(b.ID), b.Category, b.Tags)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a bookmark from the local queue and mirror",
	GroupID: "links",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.DeleteLink(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "deleted "+args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "Title, defaults to the url")
	addCmd.Flags().StringVar(&addTags, "tags", "", "Comma separated tags")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category (default \""+domain.DefaultCategory+"\")")

	listCmd.Flags().BoolVar(&listPending, "pending", false, "Only bookmarks waiting for sync")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Text search over title, url, notes and tags")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Exact category")
	listCmd.Flags().StringVar(&listTags, "tags", "", "Comma separated tags, all required")

	rootCmd.AddCommand(addCmd, listCmd, deleteCmd)
}
