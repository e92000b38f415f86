// Package versioncmder prints build information for the relay binary.
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/utils"
)

type versionCommander struct {
	jsonOut bool
}

type buildInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"buildtime"`
	GoVersion string `json:"goVersion"`
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the relay version",
		Long:  "Print the version, commit, and build time of this relay binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print build information as JSON")

	return cmd
}

func (c *versionCommander) run(w io.Writer) error {
	info := buildInfo{
		Version:   utils.Version,
		Sha:       utils.Sha,
		Buildtime: utils.Buildtime,
		GoVersion: runtime.Version(),
	}

	if c.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	_, err := fmt.Fprintf(w, "Version: %s\nSha: %s\nBuilt at: %s\nGo: %s\n",
		info.Version, info.Sha, info.Buildtime, info.GoVersion)
	return err
}
