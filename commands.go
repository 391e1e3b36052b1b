package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/spf13/cobra"
)

var addFlags struct {
	label            string
	downloadLocation string
}

func addOptions() deluge.AddOptions {
	opts := deluge.AddOptions{
		AddPaused:        cfg.Deluge.AddPaused,
		SeedMode:         cfg.Deluge.SeedMode,
		AutoManaged:      cfg.Deluge.AutoManaged,
		DownloadLocation: cfg.Deluge.DownloadLocation,
	}
	if addFlags.downloadLocation != "" {
		opts.DownloadLocation = addFlags.downloadLocation
	}
	return opts
}

func uploadLabel() string {
	if addFlags.label != "" {
		return addFlags.label
	}
	return cfg.Deluge.Label
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file.torrent>...",
	Short: "Upload .torrent files, label them and start them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(c *deluge.Client) error {
			results, err := c.UploadTorrentFiles(cmd.Context(), args, addOptions(), uploadLabel())
			if err != nil {
				return err
			}
			return printJSON(results)
		})
	},
}

// addURICmd builds add-magnet and add-url, which differ only in the source.
func addURICmd(use, short string, source func(string) deluge.Source) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := make([]deluge.Source, len(args))
			for i, a := range args {
				sources[i] = source(a)
			}
			return withSession(cmd.Context(), func(c *deluge.Client) error {
				results, err := c.UploadMany(cmd.Context(), sources, addOptions(), uploadLabel())
				if err != nil {
					return err
				}
				return printJSON(results)
			})
		},
	}
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List labels known to the Label plugin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(c *deluge.Client) error {
			resp, err := c.GetLabels(cmd.Context())
			if err != nil {
				return err
			}
			var labels []string
			if err := resp.Decode(&labels); err != nil {
				return err
			}
			sort.Strings(labels)
			for _, l := range labels {
				fmt.Println(l)
			}
			return nil
		})
	},
}

var statusState string

var statusCmd = &cobra.Command{
	Use:   "status [info-hash]",
	Short: "Show the status of one torrent, or of all torrents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withSession(ctx, func(c *deluge.Client) error {
			var (
				resp *deluge.Response
				err  error
			)
			if len(args) == 1 {
				resp, err = c.GetTorrentStatus(ctx, args[0], deluge.DefaultStatusKeys, false)
			} else {
				filter := map[string]any{}
				if statusState != "" {
					state, perr := deluge.ParseTorrentState(statusState)
					if perr != nil {
						return perr
					}
					filter["state"] = state.String()
				}
				resp, err = c.GetTorrentsStatus(ctx, filter, deluge.DefaultStatusKeys, false)
			}
			if err != nil {
				return err
			}
			var out any
			if err := resp.Decode(&out); err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

var freeSpaceCmd = &cobra.Command{
	Use:   "free-space [path]",
	Short: "Show free disk space on the daemon host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		return withSession(cmd.Context(), func(c *deluge.Client) error {
			resp, err := c.GetFreeSpace(cmd.Context(), path)
			if err != nil {
				return err
			}
			var free int64
			if err := resp.Decode(&free); err != nil {
				return err
			}
			fmt.Printf("%s (%d bytes)\n", humanize.IBytes(uint64(max(free, 0))), free)
			return nil
		})
	},
}

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List daemons configured in the Web UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(c *deluge.Client) error {
			resp, err := c.GetHosts(cmd.Context())
			if err != nil {
				return err
			}
			hosts, err := deluge.ParseHosts(resp)
			if err != nil {
				return err
			}
			for _, h := range hosts {
				fmt.Printf("%s\t%s:%d\t%s\n", h.ID, h.Address, h.Port, h.User)
			}
			return nil
		})
	},
}

func init() {
	addMagnetCmd := addURICmd("add-magnet <magnet-uri>...", "Add torrents from magnet links", deluge.MagnetSource)
	addURLCmd := addURICmd("add-url <url>...", "Add torrents from .torrent URLs", deluge.URLSource)

	for _, c := range []*cobra.Command{uploadCmd, addMagnetCmd, addURLCmd} {
		c.Flags().StringVarP(&addFlags.label, "label", "l", "", "label to apply (lowercased; default from config)")
		c.Flags().StringVarP(&addFlags.downloadLocation, "download-location", "d", "", "download directory on the daemon host")
	}
	statusCmd.Flags().StringVar(&statusState, "state", "", "only torrents in this state (e.g. Seeding)")

	rootCmd.AddCommand(uploadCmd, addMagnetCmd, addURLCmd, labelsCmd, statusCmd, freeSpaceCmd, hostsCmd)
}
