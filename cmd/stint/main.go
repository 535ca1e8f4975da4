package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jkendrick/stint/internal/assist"
	"github.com/jkendrick/stint/internal/briefing"
	"github.com/jkendrick/stint/internal/gates"
	"github.com/jkendrick/stint/internal/gitops"
	"github.com/jkendrick/stint/internal/graph"
	"github.com/jkendrick/stint/internal/item"
	"github.com/jkendrick/stint/internal/learning"
	"github.com/jkendrick/stint/internal/recommend"
	"github.com/jkendrick/stint/internal/render"
	"github.com/jkendrick/stint/internal/session"
	"github.com/jkendrick/stint/internal/store"
	"github.com/jkendrick/stint/internal/ui"
)

var (
	flagRoot      string
	flagStatus    string
	flagMilestone string
	flagType      string
	flagIncDone   bool
	flagFocus     string
	flagFormat    string
	flagOut       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stint",
		Short: "Session-oriented workflow orchestrator for work-item graphs",
		Long: `Stint tracks work items and their dependencies, computes critical paths
and bottlenecks, recommends what to pick up next, and wraps each piece
of work in a session with quality gates and a git branch.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "Project root (where .stint/ lives)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(depCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(nextCmd())
	rootCmd.AddCommand(focusCmd())
	rootCmd.AddCommand(briefCmd())
	rootCmd.AddCommand(gatesCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(learnCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func gatesPath(root string) string {
	return filepath.Join(root, store.Dir, "gates.yaml")
}

// buildGraph loads the store and applies the list filters shared by
// graph, next and watch.
func buildGraph() (*graph.Graph, error) {
	s, err := store.Open(flagRoot)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(s.Snapshot())
	if err != nil {
		return nil, err
	}

	pred := func(it *item.WorkItem) bool {
		if !flagIncDone && it.Status == item.StatusCompleted {
			return false
		}
		if flagStatus != "" && string(it.Status) != flagStatus {
			return false
		}
		if flagMilestone != "" && it.Milestone != flagMilestone {
			return false
		}
		if flagType != "" && string(it.Type) != flagType {
			return false
		}
		return true
	}

	if flagIncDone && flagStatus == "" && flagMilestone == "" && flagType == "" {
		return g, nil
	}
	return g.Filter(pred)
}

// nextGraph builds the graph the recommendation runs on. Completed
// items stay in: the partition needs them to tell "everything is done"
// apart from "nothing exists", and ready items need their completed
// dependencies present.
func nextGraph(root, milestone, typ string) (*graph.Graph, error) {
	s, err := store.Open(root)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(s.Snapshot())
	if err != nil {
		return nil, err
	}
	if milestone == "" && typ == "" {
		return g, nil
	}
	return g.Filter(func(it *item.WorkItem) bool {
		if milestone != "" && it.Milestone != milestone {
			return false
		}
		if typ != "" && string(it.Type) != typ {
			return false
		}
		return true
	})
}

// reportNotFound turns a missing-id error into a message listing the
// ids that do exist.
func reportNotFound(err error, s *store.Store) error {
	var nf *graph.NotFoundError
	if !errors.As(err, &nf) {
		return err
	}
	ids := make([]string, 0, s.Len())
	for _, it := range s.List() {
		ids = append(ids, it.ID)
	}
	sort.Strings(ids)
	return fmt.Errorf("no work item %q; known ids: %s", nf.ID, strings.Join(ids, ", "))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a stint project in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return err
			}

			gp := gatesPath(flagRoot)
			if _, err := os.Stat(gp); os.IsNotExist(err) {
				if err := gates.WriteConfig(gp, gates.DefaultConfig()); err != nil {
					return err
				}
				fmt.Printf("  %s wrote default gates to %s\n", ui.Green("✓"), ui.Dim(gp))
			}

			fmt.Printf("%s Initialized %s\n", ui.BoldCyan("stint:"), ui.Dim(filepath.Join(flagRoot, store.Dir)))
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var (
		flagItemType  string
		flagPriority  string
		flagItemState string
		flagDeps      []string
		flagMile      string
	)

	cmd := &cobra.Command{
		Use:   "add <id> <title>",
		Short: "Add a work item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := item.ParseType(flagItemType)
			if err != nil {
				return err
			}
			prio, err := item.ParsePriority(flagPriority)
			if err != nil {
				return err
			}
			status, err := item.ParseStatus(flagItemState)
			if err != nil {
				return err
			}

			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}

			it := &item.WorkItem{
				ID:           args[0],
				Title:        args[1],
				Type:         typ,
				Priority:     prio,
				Status:       status,
				Dependencies: flagDeps,
				Milestone:    flagMile,
			}
			if err := s.Add(it); err != nil {
				return err
			}

			fmt.Printf("%s %s %s %s\n", ui.Green("✓"), ui.ID(it.ID), it.Title, ui.PriorityBadge(it.Priority))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagItemType, "type", "feature", "Item type (feature, bug, refactor, security, integration_test, deployment)")
	cmd.Flags().StringVar(&flagPriority, "priority", "medium", "Priority (critical, high, medium, low)")
	cmd.Flags().StringVar(&flagItemState, "status", "not_started", "Initial status")
	cmd.Flags().StringSliceVar(&flagDeps, "dep", nil, "Dependency id (repeatable)")
	cmd.Flags().StringVar(&flagMile, "milestone", "", "Milestone name")

	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				fmt.Println("No work items. Add one with: stint add <id> <title>")
				return nil
			}

			for _, it := range s.List() {
				if flagStatus != "" && string(it.Status) != flagStatus {
					continue
				}
				if flagMilestone != "" && it.Milestone != flagMilestone {
					continue
				}
				deps := ""
				if len(it.Dependencies) > 0 {
					deps = ui.Dim(" ← " + strings.Join(it.Dependencies, ", "))
				}
				fmt.Printf("  %s %s %s  %s%s\n",
					ui.StatusGlyph(it.Status), ui.PriorityBadge(it.Priority), ui.ID(it.ID), it.Title, deps)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagStatus, "status", "", "Filter by status")
	cmd.Flags().StringVar(&flagMilestone, "milestone", "", "Filter by milestone")

	return cmd
}

func depCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage dependencies between work items",
	}
	cmd.AddCommand(depAddCmd())
	cmd.AddCommand(depInferCmd())
	return cmd
}

func depAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <dependency-id>",
		Short: "Record that one item depends on another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			if err := s.AddDependency(args[0], args[1]); err != nil {
				return reportNotFound(err, s)
			}
			fmt.Printf("%s %s now waits on %s\n", ui.Green("✓"), ui.ID(args[0]), ui.ID(args[1]))
			return nil
		},
	}
}

func depInferCmd() *cobra.Command {
	var (
		flagApply bool
		flagModel string
	)

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Use Claude to propose dependency edges from item titles",
		Long: `Sends item summaries to Claude and proposes dependency edges. Every
proposal is validated against the graph first; edges that would
introduce a cycle or reference an unknown item are skipped. Dry-run by
default, use --apply to persist the accepted edges.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				return fmt.Errorf("no work items to infer dependencies for")
			}

			summaries := make([]assist.ItemSummary, 0, s.Len())
			for _, it := range s.List() {
				summaries = append(summaries, assist.ItemSummary{
					ID:       it.ID,
					Title:    it.Title,
					Priority: string(it.Priority),
					Type:     string(it.Type),
				})
			}

			client, err := assist.NewClient("", flagModel)
			if err != nil {
				return err
			}

			fmt.Printf("🔍 Asking Claude about %s items...\n", ui.Bold(len(summaries)))
			proposal, err := client.InferDependencies(context.Background(), summaries)
			if err != nil {
				return fmt.Errorf("infer dependencies: %w", err)
			}

			accepted, skipped := assist.Validate(s.Snapshot(), proposal)
			for _, sk := range skipped {
				fmt.Printf("  %s %s → %s: %s\n", ui.Yellow("⏭  skip:"),
					sk.Edge.DependentID, sk.Edge.DependencyID, sk.Reason)
			}

			if len(accepted) == 0 {
				fmt.Println("No usable edges proposed.")
				return nil
			}

			fmt.Printf("\n🔗 %s edges accepted:\n", ui.Bold(len(accepted)))
			for _, e := range accepted {
				fmt.Printf("  %s %s waits on %s  %s\n",
					ui.Cyan("→"), ui.ID(e.DependentID), ui.ID(e.DependencyID), ui.Dim(e.Reason))
			}
			if proposal.Summary != "" {
				fmt.Printf("\n💡 %s\n", proposal.Summary)
			}

			if !flagApply {
				fmt.Printf("\n%s\n", ui.Yellow("Dry run. Use --apply to record these edges."))
				return nil
			}

			applied := 0
			for _, e := range accepted {
				if err := s.AddDependency(e.DependentID, e.DependencyID); err != nil {
					fmt.Printf("  %s %s → %s: %v\n", ui.Red("✗"), e.DependentID, e.DependencyID, err)
					continue
				}
				applied++
			}
			fmt.Printf("\n🏁 Recorded %s/%d edges.\n", ui.BoldGreen(applied), len(accepted))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Persist accepted edges (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model override")

	return cmd
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGraph()
			if err != nil {
				return err
			}

			if flagFocus != "" {
				g2, err := focusSubgraph(g, flagFocus)
				if err != nil {
					if s, serr := store.Open(flagRoot); serr == nil {
						return reportNotFound(err, s)
					}
					return err
				}
				g = g2
			}

			v := render.NewView(g)

			switch flagFormat {
			case "text":
				render.Text(os.Stdout, v)
			case "dot":
				render.DOT(os.Stdout, v)
			case "image":
				out := flagOut
				if out == "" {
					out = "graph.png"
				}
				if err := render.Image(context.Background(), v, out); err != nil {
					var toolErr *render.ExternalToolError
					if errors.As(err, &toolErr) {
						fmt.Fprintf(os.Stderr, "%s %v; falling back to DOT\n", ui.Yellow("⚠"), toolErr)
						render.DOT(os.Stdout, v)
						return nil
					}
					return err
				}
				fmt.Printf("%s wrote %s\n", ui.Green("✓"), out)
			default:
				return fmt.Errorf("unknown format %q (use text, dot, or image)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagStatus, "status", "", "Filter by status")
	cmd.Flags().StringVar(&flagMilestone, "milestone", "", "Filter by milestone")
	cmd.Flags().StringVar(&flagType, "type", "", "Filter by item type")
	cmd.Flags().BoolVar(&flagIncDone, "include-completed", false, "Include completed items")
	cmd.Flags().StringVar(&flagFocus, "focus", "", "Show only one item and its direct neighborhood")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format (text, dot, image)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file for image format")

	return cmd
}

// focusSubgraph narrows g to id plus its direct dependencies and
// dependents.
func focusSubgraph(g *graph.Graph, id string) (*graph.Graph, error) {
	n, err := g.Focus(id)
	if err != nil {
		return nil, err
	}
	keep := map[string]bool{id: true}
	for _, dep := range n.Dependencies {
		keep[dep.ID] = true
	}
	for _, d := range n.Dependents {
		keep[d.ID] = true
	}
	return g.Filter(func(it *item.WorkItem) bool { return keep[it.ID] })
}

func nextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Recommend which item to work on next",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := nextGraph(flagRoot, flagMilestone, flagType)
			if err != nil {
				return err
			}

			rec := recommend.Next(g)
			if rec.Reason != recommend.ReasonNone {
				fmt.Printf("%s %s\n", ui.Yellow("∅"), rec.Detail)
				return nil
			}

			it := g.Item(rec.ID)
			fmt.Printf("%s %s %s  %s\n", ui.BoldCyan("Next:"), ui.PriorityBadge(it.Priority), ui.ID(it.ID), it.Title)
			if rec.Detail != "" {
				fmt.Printf("  %s\n", ui.Dim(rec.Detail))
			}
			fmt.Printf("  Start with: %s\n", ui.Bold("stint session start "+it.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagMilestone, "milestone", "", "Restrict to one milestone")
	cmd.Flags().StringVar(&flagType, "type", "", "Restrict to one item type")

	return cmd
}

func focusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus <id>",
		Short: "Show one item with its dependencies and dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			g, err := graph.Build(s.Snapshot())
			if err != nil {
				return err
			}

			n, err := g.Focus(args[0])
			if err != nil {
				return reportNotFound(err, s)
			}

			fmt.Printf("%s %s %s  %s\n", ui.StatusGlyph(n.Item.Status),
				ui.PriorityBadge(n.Item.Priority), ui.ID(n.Item.ID), n.Item.Title)
			if n.Item.Milestone != "" {
				fmt.Printf("  milestone: %s\n", n.Item.Milestone)
			}

			if len(n.Dependencies) > 0 {
				fmt.Printf("\nWaits on:\n")
				for _, dep := range n.Dependencies {
					fmt.Printf("  %s %s  %s\n", ui.StatusGlyph(dep.Status), ui.ID(dep.ID), dep.Title)
				}
			}
			if len(n.Dependents) > 0 {
				fmt.Printf("\nUnlocks:\n")
				for _, d := range n.Dependents {
					fmt.Printf("  %s %s  %s\n", ui.StatusGlyph(d.Status), ui.ID(d.ID), d.Title)
				}
			}
			return nil
		},
	}
}

func briefCmd() *cobra.Command {
	var flagTemplate string

	cmd := &cobra.Command{
		Use:   "brief <id>",
		Short: "Print a work briefing for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			g, err := graph.Build(s.Snapshot())
			if err != nil {
				return err
			}

			data, err := briefing.Collect(g, args[0], g.CriticalPath())
			if err != nil {
				return reportNotFound(err, s)
			}
			text, err := briefing.Render(data, flagTemplate)
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagTemplate, "template", "", "Custom briefing template path")

	return cmd
}

func gatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gates",
		Short: "Run the quality gates and report the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gates.LoadConfig(gatesPath(flagRoot))
			if err != nil {
				return err
			}

			report := runGates(cfg)
			printGateReport(report)
			if !report.Passed() {
				return fmt.Errorf("blocking gates failed: %s", strings.Join(report.FailedBlocking(), ", "))
			}
			return nil
		},
	}
	return cmd
}

// runGates executes the gate set with interrupt handling so a ^C kills
// the in-flight gate command.
func runGates(cfg *gates.Config) *gates.Report {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	return gates.Run(ctx, cfg, flagRoot)
}

func printGateReport(report *gates.Report) {
	for _, res := range report.Results {
		mark := ui.Green("✓")
		if !res.Passed {
			mark = ui.Red("✗")
			if !res.Blocking {
				mark = ui.Yellow("⚠")
			}
		}
		kind := ui.Dim("blocking")
		if !res.Blocking {
			kind = ui.Dim("advisory")
		}
		fmt.Printf("  %s %s (%s, %s)\n", mark, ui.Bold(res.Name), kind, res.Duration.Round(10*time.Millisecond))
		if res.Detail != "" {
			fmt.Printf("      %s\n", ui.Dim(res.Detail))
		}
	}
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start, close, and inspect work sessions",
	}
	cmd.AddCommand(sessionStartCmd())
	cmd.AddCommand(sessionCloseCmd())
	cmd.AddCommand(sessionStatusCmd())
	return cmd
}

func sessionStartCmd() *cobra.Command {
	var flagNoBranch bool

	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start a work session on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			it, err := s.Get(args[0])
			if err != nil {
				return reportNotFound(err, s)
			}
			if it.Status == item.StatusCompleted {
				return fmt.Errorf("%s is already completed", it.ID)
			}

			g, err := graph.Build(s.Snapshot())
			if err != nil {
				return err
			}
			parts := g.Partition()
			for _, b := range parts.Blocked {
				if b.ID == it.ID {
					fmt.Fprintf(os.Stderr, "%s %s is still waiting on: %s\n",
						ui.Yellow("⚠"), it.ID, strings.Join(b.Unmet, ", "))
				}
			}

			branch := ""
			if !flagNoBranch && gitops.IsRepo(flagRoot) {
				dirty, err := gitops.IsDirty(flagRoot)
				if err != nil {
					return err
				}
				if dirty {
					return fmt.Errorf("working tree has uncommitted changes; commit or stash first")
				}
				branch, err = gitops.SwitchToSessionBranch(flagRoot, it.ID)
				if err != nil {
					return err
				}
				fmt.Printf("  %s switched to branch %s\n", ui.Green("✓"), ui.Bold(branch))
			}

			sess, err := session.Start(flagRoot, it.ID, branch)
			if err != nil {
				return err
			}
			if err := s.SetStatus(it.ID, item.StatusInProgress); err != nil {
				return err
			}

			fmt.Printf("%s session on %s %s (started %s)\n", ui.BoldCyan("stint:"),
				ui.ID(it.ID), it.Title, sess.StartedAt.Format("15:04"))

			data, err := briefing.Collect(g, it.ID, g.CriticalPath())
			if err == nil {
				if text, rerr := briefing.Render(data, ""); rerr == nil {
					fmt.Println()
					fmt.Print(text)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagNoBranch, "no-branch", false, "Skip git branch handling")

	return cmd
}

func sessionCloseCmd() *cobra.Command {
	var flagNoCommit bool

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Run the gates and close the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Load(flagRoot)
			if err != nil {
				return fmt.Errorf("no active session: %w", err)
			}

			cfg, err := gates.LoadConfig(gatesPath(flagRoot))
			if err != nil {
				return err
			}

			fmt.Printf("%s running gates for %s...\n", ui.BoldCyan("stint:"), ui.ID(sess.ItemID))
			report := runGates(cfg)
			printGateReport(report)

			if err := sess.Close(flagRoot, report); err != nil {
				return err
			}

			if !report.Passed() {
				fmt.Printf("\n%s blocking gates failed: %s\n", ui.BoldRed("✗"),
					strings.Join(report.FailedBlocking(), ", "))
				fmt.Println("Fix the failures and run stint session close again.")
				return fmt.Errorf("session close failed")
			}

			s, err := store.Open(flagRoot)
			if err != nil {
				return err
			}
			if err := s.SetStatus(sess.ItemID, item.StatusCompleted); err != nil {
				return err
			}

			if !flagNoCommit && gitops.IsRepo(flagRoot) {
				it, err := s.Get(sess.ItemID)
				if err == nil {
					committed, cerr := gitops.CommitAll(flagRoot, gitops.CommitMessage(it))
					if cerr != nil {
						fmt.Fprintf(os.Stderr, "%s commit failed: %v\n", ui.Yellow("⚠"), cerr)
					} else if committed {
						fmt.Printf("  %s committed session changes\n", ui.Green("✓"))
					}
				}
			}

			fmt.Printf("\n%s %s closed. ", ui.BoldGreen("✓"), ui.ID(sess.ItemID))

			g, err := graph.Build(s.Snapshot())
			if err == nil {
				rec := recommend.Next(g)
				if rec.Reason == recommend.ReasonNone {
					fmt.Printf("Up next: %s\n", ui.ID(rec.ID))
				} else {
					fmt.Printf("%s\n", rec.Detail)
				}
			} else {
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagNoCommit, "no-commit", false, "Skip committing session changes")

	return cmd
}

func sessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session and recent history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if session.Exists(flagRoot) {
				sess, err := session.Load(flagRoot)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s on %s since %s\n", ui.BoldCyan("Active:"),
					ui.ID(sess.ItemID), ui.Bold(sess.Branch), sess.StartedAt.Format("Jan 2 15:04"))
				if sess.Status == session.StatusFailed && sess.GateReport != nil {
					fmt.Printf("  %s last close failed: %s\n", ui.Red("✗"),
						strings.Join(sess.GateReport.FailedBlocking(), ", "))
				}
			} else {
				fmt.Println("No active session.")
			}

			hist, err := session.History(flagRoot)
			if err != nil {
				return err
			}
			if len(hist) == 0 {
				return nil
			}

			fmt.Printf("\nRecent sessions:\n")
			start := 0
			if len(hist) > 5 {
				start = len(hist) - 5
			}
			for _, h := range hist[start:] {
				when := ""
				if h.ClosedAt != nil {
					when = h.ClosedAt.Format("Jan 2 15:04")
				}
				fmt.Printf("  %s %s %s\n", ui.Green("✓"), ui.ID(h.ItemID), ui.Dim(when))
			}
			return nil
		},
	}
}

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Capture and browse lessons from past sessions",
	}
	cmd.AddCommand(learnAddCmd())
	cmd.AddCommand(learnListCmd())
	return cmd
}

func learnAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Record a learning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := learning.Open(flagRoot)
			if err != nil {
				return err
			}

			itemID := ""
			if session.Exists(flagRoot) {
				if sess, err := session.Load(flagRoot); err == nil {
					itemID = sess.ItemID
				}
			}

			entry, created, err := log.Add(strings.Join(args, " "), itemID)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("%s recorded under %s\n", ui.Green("✓"), ui.Bold(string(entry.Category)))
			} else {
				fmt.Printf("%s already known (seen %d times)\n", ui.Yellow("↻"), entry.SeenCount)
			}
			return nil
		},
	}
}

func learnListCmd() *cobra.Command {
	var flagCategory string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured learnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := learning.Open(flagRoot)
			if err != nil {
				return err
			}

			entries := log.List(learning.Category(flagCategory))
			if len(entries) == 0 {
				fmt.Println("No learnings recorded.")
				return nil
			}

			for _, e := range entries {
				seen := ""
				if e.SeenCount > 1 {
					seen = ui.Dim(fmt.Sprintf(" (×%d)", e.SeenCount))
				}
				fmt.Printf("  %s %s%s\n", ui.BoldCyan("["+string(e.Category)+"]"), e.Text, seen)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagCategory, "category", "", "Filter by category")

	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the graph whenever the item store changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the directory, not the file: atomic renames replace
			// the inode on every save.
			if err := watcher.Add(filepath.Join(flagRoot, store.Dir)); err != nil {
				return fmt.Errorf("watch %s: %w", store.Dir, err)
			}

			redraw := func() {
				fmt.Print("\033[2J\033[H")
				g, err := buildGraph()
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s %v\n", ui.Red("✗"), err)
					return
				}
				render.Text(os.Stdout, render.NewView(g))
			}
			redraw()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Base(ev.Name) != "items.json" {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
						redraw()
					}
				case werr, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "%s watch error: %v\n", ui.Yellow("⚠"), werr)
				case <-sigCh:
					fmt.Println()
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&flagStatus, "status", "", "Filter by status")
	cmd.Flags().StringVar(&flagMilestone, "milestone", "", "Filter by milestone")
	cmd.Flags().BoolVar(&flagIncDone, "include-completed", false, "Include completed items")

	return cmd
}
