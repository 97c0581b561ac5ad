package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mit-pdos/go-rsfs/config"
	"github.com/mit-pdos/go-rsfs/disk"
	"github.com/mit-pdos/go-rsfs/fs"
)

const chunk = 4096

// withVolume mounts the configured image, runs f, and closes the image.
func withVolume(cfg *config.Config, f func(*fs.Fs) error) error {
	d, err := disk.OpenFileDisk(cfg.Image)
	if err != nil {
		return err
	}
	defer d.Close()
	v, err := fs.MkFs(d, fs.WithMaxFileSize(cfg.MaxFileSize))
	if err != nil {
		return err
	}
	if err := v.Mount(); err != nil {
		return err
	}
	return f(v)
}

func formatCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Create or wipe the image and write an empty volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := disk.NewFileDisk(cfg.Image, cfg.Sectors)
			if err != nil {
				return err
			}
			defer d.Close()
			v, err := fs.MkFs(d)
			if err != nil {
				return err
			}
			if err := v.Format(); err != nil {
				return err
			}
			free, _ := v.FreeSpace()
			fmt.Fprintf(cmd.OutOrStdout(), "formatted %s: %d bytes free\n", cfg.Image, free)
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&cfg.Sectors, "sectors", "n", cfg.Sectors, "image size in 4096-byte sectors")
	return cmd
}

func lsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List files and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVolume(cfg, func(v *fs.Fs) error {
				infos, err := v.List()
				if err != nil {
					return err
				}
				for _, info := range infos {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %10d\n", info.Name, info.Size)
				}
				return nil
			})
		},
	}
}

func dfCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "df",
		Short: "Report free space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVolume(cfg, func(v *fs.Fs) error {
				free, err := v.FreeSpace()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\n", free)
				return nil
			})
		},
	}
}

func touchCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "touch NAME",
		Short: "Create an empty file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVolume(cfg, func(v *fs.Fs) error {
				_, err := v.Create(args[0])
				return err
			})
		},
	}
}

func putCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "put HOSTFILE [NAME]",
		Short: "Copy a host file into the volume, replacing any file of that name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := filepath.Base(args[0])
			if len(args) == 2 {
				name = args[1]
			}
			src, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			return withVolume(cfg, func(v *fs.Fs) error {
				h, err := v.Open(name, fs.ModeWrite)
				if err != nil {
					return err
				}
				abort := func(err error) error {
					v.Close(h)
					v.Remove(name)
					return err
				}
				p := make([]byte, chunk)
				for {
					n, rerr := src.Read(p)
					if n > 0 {
						if _, err := v.Write(h, p[:n]); err != nil {
							return abort(err)
						}
					}
					if rerr == io.EOF {
						break
					}
					if rerr != nil {
						return abort(rerr)
					}
				}
				return v.Close(h)
			})
		},
	}
}

func catCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cat NAME",
		Short: "Write a file's contents to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVolume(cfg, func(v *fs.Fs) error {
				h, err := v.Open(args[0], fs.ModeRead)
				if err != nil {
					return err
				}
				defer v.Close(h)
				for {
					p, err := v.Read(h, chunk)
					if err != nil {
						return err
					}
					if len(p) == 0 {
						return nil
					}
					if _, err := cmd.OutOrStdout().Write(p); err != nil {
						return err
					}
				}
			})
		},
	}
}

func rmCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME...",
		Short: "Remove files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVolume(cfg, func(v *fs.Fs) error {
				for _, name := range args {
					if err := v.Remove(name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
