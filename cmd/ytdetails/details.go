package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ytget/ytdetails/youtube/formats"
)

var errNotFound = errors.New("video does not exist")

func newDetailsCmd(root *rootOptions) *cobra.Command {
	var (
		withFormats bool
		selector    string
		ext         string
	)
	cmd := &cobra.Command{
		Use:   "details <video-id|url>",
		Short: "Print the details of a track as JSON",
		Example: `  ytdetails details dQw4w9WgXcQ
  ytdetails details --formats https://youtu.be/dQw4w9WgXcQ
  ytdetails details --select audio --ext webm dQw4w9WgXcQ`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.setup()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			selecting := selector != "" || ext != ""
			details, err := a.client.Load(cmd.Context(), args[0], withFormats || selecting)
			if err != nil {
				return err
			}
			if details == nil {
				return errNotFound
			}

			var out any = details
			if selecting {
				f := formats.SelectFormat(details.Formats(), selector, ext)
				if f == nil {
					return errors.New("no format matches the selection")
				}
				out = f
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVarP(&withFormats, "formats", "f", false, "Require the player script URL so formats can be deciphered")
	cmd.Flags().StringVarP(&selector, "select", "s", "", "Print one format instead: best, worst, audio, itag=N, height<=N, height>=N")
	cmd.Flags().StringVarP(&ext, "ext", "e", "", "Restrict --select to a container, e.g. mp4 or webm")
	return cmd
}
