package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Jce-C/megregalo/internal/media/dataurl"
	"github.com/Jce-C/megregalo/internal/photoclient"
)

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload photos, keeping a local copy when the API is unreachable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}

				photo, err := a.client.UploadPhoto(cmd.Context(), filepath.Base(path), raw)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed++
					continue
				}

				where := "server"
				if photoclient.IsLocal(photo) {
					where = "local backup"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", photo.ID, photo.Filename, where)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List photos in the cascade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing := a.client.ListPhotos(cmd.Context())
			if listing.Fallback != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "api unavailable (%v), showing local backup\n", listing.Fallback)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILENAME\tUPLOADED\tURL")
			for _, p := range listing.Photos {
				url := p.URL
				if dataurl.IsDataURL(url) {
					url = "(embedded)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Filename, p.UploadedAt.Format("2006-01-02 15:04"), url)
			}
			return w.Flush()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a photo from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.client.DeletePhoto(cmd.Context(), args[0]) {
				return errors.New("delete failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
