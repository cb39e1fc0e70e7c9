package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/internal/util"
	"github.com/brettbedarf/memfs/mount"
	"github.com/spf13/cobra"
)

var (
	Unmount bool

	treeCmd = &cobra.Command{
		Use:   "tree [path]",
		Short: "Print every node below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := argOr(args, ".")
			out := cmd.OutOrStdout()
			return fsys.Walk(root, func(st filesystem.FileStatus, err error) error {
				if err != nil {
					return err
				}
				printStatus(out, st)
				return nil
			})
		},
	}

	lsCmd = &cobra.Command{
		Use:   "ls [path]",
		Short: "List the immediate children of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sts, err := fsys.ListStatus(argOr(args, "."))
			if err != nil {
				return err
			}
			for _, st := range sts {
				printStatus(cmd.OutOrStdout(), st)
			}
			return nil
		},
	}

	statCmd = &cobra.Command{
		Use:   "stat <path>",
		Short: "Print the status of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := fsys.GetFileStatus(args[0])
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}

	catCmd = &cobra.Command{
		Use:   "cat <path>...",
		Short: "Print the content of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				r, err := fsys.Open(p)
				if err != nil {
					return err
				}
				_, err = io.Copy(cmd.OutOrStdout(), r)
				r.Close()
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	mountCmd = &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Serve the tree read only over FUSE until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.GetLogger("main")
			mnt := args[0]
			if Unmount {
				// Ignore the error if it was not mounted
				exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
			}

			srv, err := mount.Mount(fsys, mnt, cfg.MountOptions, cfg.LogLvl)
			if err != nil {
				return err
			}

			signalChan := make(chan os.Signal, 1)
			signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			go func() {
				sig := <-signalChan
				logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
				if err := srv.Unmount(); err != nil {
					logger.Error().Err(err).Msg("Failed to unmount filesystem")
				}
			}()

			srv.Wait()
			logger.Info().Msg("Filesystem unmounted successfully")
			return nil
		},
	}
)

func init() {
	mountCmd.Flags().BoolVar(&Unmount, "umount", false,
		"unmount first if needed; useful after a debugger did not exit cleanly")
}

func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

// printStatus writes one ls -l style line: mode, owner, group, length and path.
func printStatus(w io.Writer, st filesystem.FileStatus) {
	fmt.Fprintf(w, "%s %s %s %d %s\n", st.Mode(), st.Owner, st.Group, st.Length, st.Path)
}
