package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/wordbook/internal/catalog"
	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/services"
	"github.com/spf13/cobra"
)

var (
	errNothingToChange  = errors.New("nothing to change: pass at least one field flag")
	errMediaNotAttached = errors.New("media not attached")
)

func missingURLs(requested []string, removed models.MediaList) []string {
	found := make(map[string]struct{}, len(removed))
	for _, m := range removed {
		found[m.URL] = struct{}{}
	}
	var out []string
	for _, u := range requested {
		if _, ok := found[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func printEntries(w io.Writer, list []*models.Entry) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTERM\tDESCRIPTION\tMEDIA")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.ID, e.Term, e.Preview(common.DescriptionPreviewLength), len(e.Media))
	}
	return tw.Flush()
}

func printEntry(w io.Writer, e *models.Entry) {
	fmt.Fprintf(w, "%s\n\n%s\n", e.Term, e.Description)
	if e.Source != "" {
		fmt.Fprintf(w, "\nSource: %s\n", e.Source)
	}
	for _, m := range e.Media {
		fmt.Fprintf(w, "[%s] %s\n", m.Kind, m.URL)
	}
	fmt.Fprintf(w, "\nid %s, added %s, updated %s\n", e.ID,
		e.CreatedAt.Local().Format("2006-01-02 15:04"), e.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

func listCommand(s *state) *cobra.Command {
	var sortFlag, filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			order, err := models.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			view := catalog.NewView(s.app.api)
			if err := view.SetOrder(cmd.Context(), order); err != nil {
				return err
			}
			view.SetQuery(filter)
			return printEntries(cmd.OutOrStdout(), view.Results())
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", string(models.SortLatest), "latest or alphabetical")
	cmd.Flags().StringVar(&filter, "filter", "", "show only terms containing this text")
	return cmd
}

func showCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			e, err := s.app.api.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func addCommand(s *state) *cobra.Command {
	var (
		draft models.Draft
		media []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			if err := services.Validate(draft); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			files, err := readFiles(media)
			if err != nil {
				return err
			}
			if len(files) > 0 {
				uploaded, err := s.app.api.UploadMedia(cmd.Context(), files)
				if err != nil {
					reportUpload(out, err)
					return err
				}
				draft.Media = uploaded
			}

			e, err := s.app.api.CreateEntry(cmd.Context(), draft)
			if err != nil {
				for _, m := range draft.Media {
					fmt.Fprintf(out, "Uploaded but not attached: %s\n", m.URL)
				}
				return err
			}
			fmt.Fprintf(out, "Added %s (%s)\n", e.Term, e.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.Term, "term", "", "word or phrase")
	f.StringVar(&draft.Description, "description", "", "meaning, examples")
	f.StringVar(&draft.Source, "source", "", "where the term was met")
	f.StringSliceVar(&media, "media", nil, "image or video files to attach")
	return cmd
}

func editCommand(s *state) *cobra.Command {
	var (
		term, description, source string
		addMedia, removeMedia     []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			ctx, out, id := cmd.Context(), cmd.OutOrStdout(), args[0]

			var patch models.Patch
			f := cmd.Flags()
			if f.Changed("term") {
				patch.Term = &term
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if f.Changed("source") {
				patch.Source = &source
			}

			if err := services.ValidatePatch(patch); err != nil {
				return err
			}

			if len(addMedia) > 0 || len(removeMedia) > 0 {
				files, err := readFiles(addMedia)
				if err != nil {
					return err
				}
				current, err := s.app.api.GetEntry(ctx, id)
				if err != nil {
					return err
				}
				kept, removed := current.Media.Without(removeMedia...)
				if missing := missingURLs(removeMedia, removed); len(missing) > 0 {
					return fmt.Errorf("%w to %s: %s", errMediaNotAttached, id, strings.Join(missing, ", "))
				}
				if len(files) > 0 {
					uploaded, err := s.app.api.UploadMedia(ctx, files)
					if err != nil {
						reportUpload(out, err)
						return err
					}
					kept = append(kept, uploaded...)
				}
				patch.Media = &kept
			}

			if patch.IsEmpty() {
				return errNothingToChange
			}
			e, err := s.app.api.UpdateEntry(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Updated %s (%s)\n", e.Term, e.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&term, "term", "", "new term")
	f.StringVar(&description, "description", "", "new description")
	f.StringVar(&source, "source", "", "new source, empty to clear")
	f.StringSliceVar(&addMedia, "add-media", nil, "files to upload and attach")
	f.StringSliceVar(&removeMedia, "remove-media", nil, "media URLs to detach")
	return cmd
}

func deleteCommand(s *state) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			ctx, id := cmd.Context(), args[0]
			sio := streams(cmd)

			if !yes {
				e, err := s.app.api.GetEntry(ctx, id)
				if err != nil {
					return err
				}
				ok, err := Confirm(sio.reader, fmt.Sprintf("Delete %q?", e.Term), sio.out)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(sio.out, "Aborted.")
					return nil
				}
			}

			if err := s.app.api.DeleteEntry(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(sio.out, "Deleted %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
