package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newMeshCmd(opts *rootOptions) *cobra.Command {
	var imagePath string
	var polycount int

	cmd := &cobra.Command{
		Use:   "mesh <prompt>",
		Short: "Generate a 3D asset from a prompt or image",
		Long: `Generates a 3D asset via the two-phase Meshy pipeline (preview then
refine) and downloads the GLB, thumbnail and texture maps. With --image
the asset is generated from the image in a single phase and the prompt
is only used for naming.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if polycount > 0 {
				a.mesher.SetTargetPolycount(polycount)
			}

			prompt := strings.Join(args, " ")
			progress := func(p int) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rprogress: %3d%%", p)
			}

			var bundlePath, thumbPath string
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				bundle, entry, err := a.session.GenerateMeshFromImage(cmd.Context(), data, prompt, progress)
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				bundlePath, thumbPath = bundle.GLBPath, bundle.ThumbnailPath
				fmt.Fprintf(cmd.ErrOrStderr(), "recorded as %s\n", shortID(entry.ID))
			} else {
				bundle, entry, err := a.session.GenerateMesh(cmd.Context(), prompt, progress)
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				bundlePath, thumbPath = bundle.GLBPath, bundle.ThumbnailPath
				fmt.Fprintf(cmd.ErrOrStderr(), "recorded as %s\n", shortID(entry.ID))
			}

			fmt.Fprintln(cmd.OutOrStdout(), bundlePath)
			if thumbPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), thumbPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "generate from this image instead of the prompt")
	cmd.Flags().IntVar(&polycount, "polycount", 0, "target polycount (snapped to tier limits)")
	return cmd
}
