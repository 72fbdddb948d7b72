package main

import (
	"fmt"
	"runtime"

	"github.com/sallytsm/sally"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sallyd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sallyd %s (%s, %s/%s)\n", sally.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
