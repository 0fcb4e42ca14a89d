package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "framehouse",
	Short: "framehouse decodes Ethernet frames carrying ARP and IPv4 and stores summaries in clickhouse",
	Long: `framehouse decodes raw Ethernet II frames including stacked 802.1q tags,
ARP and IPv4 headers. It collects frames exported via UDP, aggregates them
and stores the result in clickhouse. Captures can be decoded offline.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(decodeCmd)
}
