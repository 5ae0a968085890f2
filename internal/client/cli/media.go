package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func mediaCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Upload or remove media objects",
	}
	cmd.AddCommand(mediaUploadCommand(s), mediaRemoveCommand(s))
	return cmd
}

func mediaUploadCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files without attaching them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			files, err := readFiles(args)
			if err != nil {
				return err
			}
			media, err := s.app.api.UploadMedia(cmd.Context(), files)
			if err != nil {
				reportUpload(out, err)
				return err
			}
			for _, m := range media {
				fmt.Fprintf(out, "[%s] %s\n", m.Kind, m.URL)
			}
			return nil
		},
	}
}

func mediaRemoveCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <url>",
		Short: "Delete an uploaded object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.requireSession(); err != nil {
				return err
			}
			if err := s.app.api.RemoveMedia(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
