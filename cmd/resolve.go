package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/classboard/classboard/config"
	coreschedule "github.com/classboard/classboard/core/schedule"
	"github.com/classboard/classboard/core/scope"
	"github.com/classboard/classboard/infra/configdir"
	"github.com/classboard/classboard/infra/logger"
	"github.com/classboard/classboard/infra/sqlite"
)

var (
	resolveDate  string
	resolveScope string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the effective schedule for a class on a date",
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDate, "date", time.Now().Format("2006-01-02"), "target date (YYYY-MM-DD)")
	resolveCmd.Flags().StringVar(&resolveScope, "scope", "", "institution/grade/class")
	_ = resolveCmd.MarkFlagRequired("scope")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	date, err := time.ParseInLocation("2006-01-02", resolveDate, time.Local)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	decl := scope.Parse(resolveScope)
	if decl.Level() != scope.LevelInstitutionGradeClass {
		return fmt.Errorf("scope must be institution/grade/class")
	}
	parts := decl.Parts()
	sctx := scope.Context{Institution: parts[0], Grade: parts[1], Class: parts[2]}

	logg := logger.New("resolve-command")
	cfgDir, err := configdir.New(cfg.Data.Dir, logg)
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	store, err := sqlite.Open(cfg.Data.RulesDB)
	if err != nil {
		return fmt.Errorf("rules db: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Errorf("store close: %v", err)
		}
	}()

	ctx := context.Background()
	doc, err := cfgDir.Schedule(ctx, sctx.Institution, sctx.Grade, sctx.Class)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	tt, err := cfgDir.Timetable(ctx, sctx.Institution, sctx.Grade)
	if err != nil {
		return fmt.Errorf("load timetable: %w", err)
	}
	eff, err := coreschedule.NewResolver(store, logg).Resolve(ctx, date, sctx, doc, tt)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(eff)
}
