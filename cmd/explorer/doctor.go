package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"openlibrary-explorer/internal/cache"
	"openlibrary-explorer/internal/kafka"
	"openlibrary-explorer/internal/ol"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to Open Library, Redis and Kafka",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := false
	report := func(name string, err error, detail string) {
		if err != nil {
			failed = true
			fmt.Fprintf(out, "%s %s: %v\n", errStyle.Render("✗"), name, err)
			return
		}
		fmt.Fprintf(out, "%s %s: %s\n", okStyle.Render("✓"), name, detail)
	}

	rules, err := a.Client.Robots(ctx)
	if err == nil {
		detail := fmt.Sprintf("reachable at %s", a.Client.BaseURL())
		if rule, disallowed := rules.Rule(ol.SearchPath); disallowed {
			detail += warnStyle.Render(fmt.Sprintf(" (robots.txt disallows %s for crawlers; keep request rates low)", rule))
		}
		report("open library", nil, detail)
	} else {
		report("open library", err, "")
	}

	if rc, ok := a.Cache.(*cache.RedisCache); ok {
		report("redis", rc.Ping(ctx), a.Config.Cache.RedisAddr)
	} else {
		fmt.Fprintln(out, mutedStyle.Render("- redis: not configured (in-process cache)"))
	}

	if a.Stats != nil {
		report("stats store", a.Stats.Ping(ctx), a.Config.Cache.RedisAddr+" "+a.Config.Stats.Prefix)
	}

	if broker := a.Config.Kafka.Broker; broker != "" {
		partitions, err := kafka.Ping(ctx, broker)
		report("kafka", err, fmt.Sprintf("connected to %s (%d partitions)", broker, partitions))
	} else {
		fmt.Fprintln(out, mutedStyle.Render("- kafka: not configured (search events disabled)"))
	}

	if failed {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}
