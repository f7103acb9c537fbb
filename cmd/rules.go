package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classboard/classboard/config"
	coreautorun "github.com/classboard/classboard/core/autorun"
	"github.com/classboard/classboard/infra/configdir"
	"github.com/classboard/classboard/infra/logger"
	"github.com/classboard/classboard/infra/sqlite"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Autorun rule commands",
}

var rulesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored override rules",
	RunE:  runRulesLs,
}

func init() {
	rulesCmd.AddCommand(rulesLsCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("rules-command")
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

	svc := coreautorun.NewService(store, coreautorun.NewValidator(cfgDir), nil, logg)
	views, err := svc.List(context.Background())
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	if len(views) == 0 {
		fmt.Println("no rules stored")
		return nil
	}
	for _, v := range views {
		fmt.Printf("%s  %-17s %-8s prio=%d  scope=%s\n",
			v.ID, v.Kind, v.Status, v.Priority, strings.Join(v.Scope, ","))
	}
	return nil
}
