package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "futusense",
	Short: "futusense - futures sentiment fusion engine",
	Long: `futusense fuses macro news, symbol news and market technicals into a
per-symbol sentiment index with an ATR-based trade plan, published as a
static data tree and served over a read-only API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
