package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"quicksearch/internal/assistant"
	"quicksearch/internal/chat"
	"quicksearch/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// askCmd answers queries without the interactive widget
var askCmd = &cobra.Command{
	Use:   "ask <query> [query...]",
	Short: "Answer one or more queries and print the replies",
	Long: `Runs each query in its own session and prints the assistant replies
in argument order. Queries run concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// catalogCmd lists the catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog categories and products",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

var onboardingCmd = &cobra.Command{
	Use:   "onboarding",
	Short: "Manage the first-run explanation screen",
}

var onboardingResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Show the explanation screen again on next open",
	Args:  cobra.NoArgs,
	RunE:  runOnboardingReset,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	replies := make([][]chat.Message, len(args))
	g, gctx := errgroup.WithContext(ctx)
	for i, query := range args {
		g.Go(func() error {
			session := assistant.New(assistant.Options{Config: e.config, Catalog: e.catalog})
			defer session.Close()

			qctx, qcancel := context.WithTimeout(gctx, timeout)
			defer qcancel()

			msgs, err := session.Ask(qctx, query)
			if err != nil {
				return fmt.Errorf("ask %q: %w", query, err)
			}
			logger.Debug("query answered", zap.String("query", query), zap.Int("messages", len(msgs)))
			replies[i] = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, query := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "> %s\n", query)
		writeTranscript(out, replies[i])
	}
	return nil
}

// writeTranscript prints messages as plain text.
func writeTranscript(w io.Writer, msgs []chat.Message) {
	for _, m := range msgs {
		switch m := m.(type) {
		case chat.UserText:
			fmt.Fprintf(w, "> %s\n", m.Text)
		case chat.AssistantText:
			fmt.Fprintln(w, m.Text)
		case chat.Products:
			if m.Title != "" {
				fmt.Fprintln(w, m.Title)
			}
			for _, p := range m.Visible() {
				fmt.Fprintf(w, "  - %s", p.Title)
				if p.Price > 0 {
					fmt.Fprintf(w, " ($%.2f)", p.Price)
				}
				fmt.Fprintln(w)
			}
			if hidden := len(m.Products) - len(m.Visible()); m.ShowMore && hidden > 0 {
				fmt.Fprintf(w, "  (+%d more)\n", hidden)
			}
			if m.Footer != "" {
				fmt.Fprintln(w, m.Footer)
			}
		case chat.Actions:
			labels := make([]string, len(m.Actions))
			for i, a := range m.Actions {
				labels[i] = "[" + a.Label + "]"
			}
			fmt.Fprintln(w, strings.Join(labels, " "))
		case chat.Feedback:
			fmt.Fprintln(w, "How was your search? (rate 1-5)")
		case chat.ConnectionLost:
			fmt.Fprintln(w, "Connection lost.")
		case chat.Error:
			fmt.Fprintf(w, "error: %s\n", m.Text)
		}
	}
}

func runCatalog(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Categories:")
	for _, c := range e.catalog.Categories() {
		fmt.Fprintf(out, "  %s: %s\n", c.Name, strings.Join(c.Subchips, ", "))
	}
	fmt.Fprintln(out, "Products:")
	for _, p := range e.catalog.Products() {
		fmt.Fprintf(out, "  %-12s %s\n", p.ID, p.Title)
	}
	return nil
}

func runOnboardingReset(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := e.prefs.ResetOnboarding(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Onboarding reset (%s)\n", e.prefs.Path())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(ws)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
