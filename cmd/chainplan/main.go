package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hexveil/chainplan/internal/catalog"
	"github.com/hexveil/chainplan/internal/models"
	"github.com/hexveil/chainplan/internal/solver"
	"github.com/hexveil/chainplan/internal/solver/lp"
	"github.com/hexveil/chainplan/internal/solver/recursive"
)

var (
	dataDir    string
	dbPath     string
	configFile string
	mode       string
	jsonOut    bool
	quiet      bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chainplan",
		Short: "Production Chain Planner",
		Long: `An LP-based planner that computes which recipes to run, how many
machines to build, and what raw materials, fuel and fertilizer to
supply in order to sustain the requested output rates.`,
		Run: runPlan,
	}

	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "data", "Path to data directory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite catalog (overrides --data)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to JSON planner config file")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "lp", "Planner mode: lp or recursive")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "Print the plan as JSON trees")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and manage the knowledge base",
	}
	catalogCmd.AddCommand(
		&cobra.Command{
			Use:   "import",
			Short: "Import the JSON catalog into a SQLite database",
			Run:   runImport,
		},
		&cobra.Command{
			Use:   "info",
			Short: "Show catalog statistics",
			Run:   runInfo,
		},
	)
	rootCmd.AddCommand(catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadCatalog() *catalog.Catalog {
	if dbPath != "" {
		store, err := catalog.OpenStore(context.Background(), dbPath)
		if err != nil {
			color.Red("Error opening catalog database: %v", err)
			os.Exit(1)
		}
		defer store.Close()
		cat, err := store.LoadCatalog(context.Background())
		if err != nil {
			color.Red("Error loading catalog from %s: %v", dbPath, err)
			os.Exit(1)
		}
		return cat
	}

	cat, err := catalog.Load(dataDir)
	if err != nil {
		color.Red("Error loading catalog: %v", err)
		os.Exit(1)
	}
	return cat
}

func runPlan(cmd *cobra.Command, args []string) {
	setupLogging()

	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgYellow)

	if !quiet && !jsonOut {
		titleColor.Println("\n╭───────────────────────────╮")
		titleColor.Println("│  Production Chain         │")
		titleColor.Println("│  Planner                  │")
		titleColor.Println("╰───────────────────────────╯")
		fmt.Println()
	}

	cat := loadCatalog()
	if !quiet && !jsonOut {
		infoColor.Printf("📦 Loaded %d items, %d devices, %d recipes\n\n",
			len(cat.Items()), len(cat.Devices()), len(cat.Recipes()))
	}

	if configFile == "" {
		color.Red("Error: --config is required")
		os.Exit(1)
	}
	config, err := models.LoadPlannerConfig(configFile)
	if err != nil {
		color.Red("Error loading config: %v", err)
		os.Exit(1)
	}
	if err := models.ValidatePlannerConfig(config); err != nil {
		color.Red("Invalid config: %v", err)
		os.Exit(1)
	}
	if !quiet && !jsonOut {
		infoColor.Printf("📄 Loaded config from %s\n\n", configFile)
	}

	var roots []*models.ProductionNode
	switch mode {
	case "lp":
		roots, err = lp.New(cat).Plan(config)
	case "recursive":
		roots, err = recursive.New(cat).Plan(config)
	default:
		color.Red("Unknown mode %q (want lp or recursive)", mode)
		os.Exit(1)
	}
	if err != nil {
		color.Red("Planning failed: %v", err)
		os.Exit(1)
	}
	if len(roots) == 0 {
		color.Red("No plan found for the configured targets")
		os.Exit(1)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(roots); err != nil {
			color.Red("Error encoding plan: %v", err)
			os.Exit(1)
		}
		return
	}

	printTargets(config, roots, successColor)
	printPlanTable(roots)
	printSaturationWarnings(roots)
}

func printTargets(config *models.PlannerConfig, roots []*models.ProductionNode, successColor *color.Color) {
	successColor.Printf("✓ Planned %d target(s)\n\n", len(config.Targets))
	for _, root := range roots {
		net := root.NetOutputRate
		if root.Rate-net > solver.Epsilon {
			fmt.Printf("   🎯 %s: %.2f/min net (%.2f/min gross, remainder feeds the chain)\n",
				root.ItemName, net, root.Rate)
		} else {
			fmt.Printf("   🎯 %s: %.2f/min\n", root.ItemName, net)
		}
	}
	fmt.Println()
}

func printPlanTable(roots []*models.ProductionNode) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Step", "Item", "Rate/min", "Machines", "Device", "Heat/min", "Furnaces"}),
	)

	for i, m := range solver.MergePlan(roots) {
		step := "🏭 Produce"
		machines := fmt.Sprintf("%.2f", m.DeviceCount)
		device := m.DeviceID
		if m.IsRaw {
			step = "⛏️ Supply"
			machines = ""
			device = ""
		}
		heat := ""
		if m.HeatConsumption > solver.Epsilon {
			heat = fmt.Sprintf("%.1f", m.HeatConsumption)
		}
		furnaces := ""
		if m.ParentFurnaceCount > 0 {
			furnaces = fmt.Sprintf("%.0f× %s", m.ParentFurnaceCount, m.ParentFurnaceID)
		}

		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			step,
			m.ItemName,
			fmt.Sprintf("%.2f", m.Rate),
			machines,
			device,
			heat,
			furnaces,
		})
	}

	_ = table.Render()
}

func printSaturationWarnings(roots []*models.ProductionNode) {
	warnColor := color.New(color.FgRed)
	seen := make(map[string]bool)

	var walk func(n *models.ProductionNode)
	walk = func(n *models.ProductionNode) {
		c := n.Canonical()
		if seen[c.Key()] {
			return
		}
		seen[c.Key()] = true
		if c.IsBeltSaturated {
			warnColor.Printf("\n⚠️  %s exceeds belt throughput: %.1f/min > %.1f/min, split across parallel belts\n",
				c.ItemName, c.Rate, c.BeltLimit)
		}
		if n.Kind == models.KindConsumptionRef {
			return
		}
		for _, in := range c.Inputs {
			walk(in)
		}
	}
	for _, root := range roots {
		walk(root)
	}
}

func runImport(cmd *cobra.Command, args []string) {
	setupLogging()

	if dbPath == "" {
		color.Red("Error: --db is required")
		os.Exit(1)
	}
	cat, err := catalog.Load(dataDir)
	if err != nil {
		color.Red("Error loading catalog: %v", err)
		os.Exit(1)
	}

	store, err := catalog.OpenStore(context.Background(), dbPath)
	if err != nil {
		color.Red("Error opening %s: %v", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Import(context.Background(), cat); err != nil {
		color.Red("Error importing catalog: %v", err)
		os.Exit(1)
	}

	color.Green("✓ Imported %d items, %d devices, %d recipes into %s",
		len(cat.Items()), len(cat.Devices()), len(cat.Recipes()), dbPath)
}

func runInfo(cmd *cobra.Command, args []string) {
	setupLogging()
	cat := loadCatalog()

	infoColor := color.New(color.FgCyan)
	infoColor.Println("📊 Catalog:")
	fmt.Printf("   • Items:   %d\n", len(cat.Items()))
	fmt.Printf("   • Devices: %d\n", len(cat.Devices()))
	fmt.Printf("   • Recipes: %d\n", len(cat.Recipes()))

	raw := 0
	for _, item := range cat.Items() {
		if !cat.HasProducer(item.ID) {
			raw++
		}
	}
	fmt.Printf("   • Raw materials (no producing recipe): %d\n", raw)

	heatConsumers := 0
	for _, d := range cat.Devices() {
		if d.ConsumesHeat() {
			heatConsumers++
		}
	}
	fmt.Printf("   • Heat-consuming devices: %d\n", heatConsumers)
}
