package main

import "github.com/stupid-simple/assetkeeper/config"

type Command struct {
	Version struct{} `cmd:"" help:"Print version information."`
	Daemon  struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"database path" short:"d" required:""`
		DryRun   bool   `help:"don't delete any rows or files, just print the output"`
	} `cmd:"" help:"Run the asset lifecycle service."`
	Sweep struct {
		Config      string                  `help:"config file path" short:"c" required:""`
		Database    string                  `help:"database path" short:"d" required:""`
		Kind        string                  `help:"only sweep this asset kind (image or video)" short:"k"`
		GracePeriod config.DurationArgument `help:"override the configured grace period"`
		DryRun      bool                    `help:"don't delete any rows or files, just print the output"`
	} `cmd:"" help:"Manually sweep orphaned assets past the grace period."`
	Scan struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"database path" short:"d" required:""`
		Delete   bool   `help:"delete unreferenced files instead of only reporting them"`
	} `cmd:"" help:"Reconcile physical files against the database."`
}
