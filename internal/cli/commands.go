// Package cli provides shopctl, the operator CLI for the shop inventory.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"go-shop-inventory/internal/app"
	"go-shop-inventory/internal/config"
	"go-shop-inventory/internal/logger"
	"go-shop-inventory/internal/service"
)

// Env holds what the commands run against. Tests inject Services directly;
// otherwise they are built from config on first use.
type Env struct {
	Services *app.Services
	Log      *zap.Logger
	Timezone *time.Location

	stores *app.Stores
}

func (e *Env) open(v *viper.Viper) error {
	// injected by tests
	if e.Services != nil {
		if e.Log == nil {
			e.Log = zap.NewNop()
		}
		if e.Timezone == nil {
			e.Timezone = time.UTC
		}
		return nil
	}

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return err
	}
	if lvl := v.GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if drv := strings.ToLower(v.GetString("store")); drv != "" {
		if drv != config.DriverPostgres && drv != config.DriverMemory {
			return fmt.Errorf("unknown store %q", drv)
		}
		cfg.StoreDriver = drv
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return err
	}
	stores, err := app.OpenStores(cfg, log)
	if err != nil {
		return err
	}
	e.stores = stores
	e.Log = log
	e.Timezone = cfg.Location()
	e.Services = app.NewServices(cfg, stores, nil, nil, log)
	return nil
}

func (e *Env) close() error {
	if e.stores == nil {
		return nil
	}
	_ = e.Log.Sync()
	return e.stores.Close()
}

// NewRootCmd builds the shopctl command tree around env.
func NewRootCmd(env *Env) *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operator tooling for the shop inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.open(v)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return env.close()
		},
	}

	root.PersistentFlags().String("config", "", "config file")
	root.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().String("store", "", "store backend: postgres|memory (overrides STORE_DRIVER)")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("store", root.PersistentFlags().Lookup("store"))
	v.SetEnvPrefix("SHOPCTL")
	v.AutomaticEnv()

	root.AddCommand(
		resetPasswordCmd(env),
		restockCmd(env),
		adjustCmd(env),
		stockCmd(env),
		summaryCmd(env),
		movementCmd(env),
	)
	return root
}

// Execute runs shopctl with os.Args.
func Execute() error {
	return NewRootCmd(&Env{}).Execute()
}

func resetPasswordCmd(env *Env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a user's password without the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			if err := env.Services.Auth.ResetPassword(cmd.Context(), email, password); err != nil {
				return err
			}
			env.Log.Info("password reset", zap.String("email", email))
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}

func restockCmd(env *Env) *cobra.Command {
	var (
		color, size, cost, note string
		quantity                int
	)
	cmd := &cobra.Command{
		Use:   "restock <product-id>",
		Short: "Receive stock into one color/size cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			req := service.RestockRequest{ColorName: color, SizeName: size, Quantity: quantity, Note: note}
			if cost != "" {
				d, err := decimal.NewFromString(cost)
				if err != nil {
					return fmt.Errorf("invalid --cost %q", cost)
				}
				req.PurchaseCost = &d
			}
			res, err := env.Services.Inventory.Restock(cmd.Context(), id, req, "shopctl")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "color name")
	cmd.Flags().StringVar(&size, "size", "", "size name")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "units received")
	cmd.Flags().StringVar(&cost, "cost", "", "purchase cost per unit")
	cmd.Flags().StringVar(&note, "note", "", "ledger note")
	return cmd
}

func adjustCmd(env *Env) *cobra.Command {
	var (
		color, size, note string
		delta             int
	)
	cmd := &cobra.Command{
		Use:   "adjust <product-id>",
		Short: "Correct a cell by a signed delta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			res, err := env.Services.Inventory.Adjust(cmd.Context(), id, service.AdjustRequest{
				ColorName: color,
				SizeName:  size,
				Delta:     delta,
				Note:      note,
			}, "shopctl")
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "color name")
	cmd.Flags().StringVar(&size, "size", "", "size name")
	cmd.Flags().IntVar(&delta, "delta", 0, "signed quantity change")
	cmd.Flags().StringVar(&note, "note", "", "reason for the correction")
	return cmd
}

func stockCmd(env *Env) *cobra.Command {
	var (
		category    string
		low         bool
		page, limit int
	)
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Print current stock per cell",
		RunE: func(cmd *cobra.Command, args []string) error {
			catID, err := optionalUUID(category)
			if err != nil {
				return err
			}
			report, err := env.Services.Reports.CurrentStock(cmd.Context(), service.StockQuery{
				CategoryID: catID,
				LowStock:   low,
				Page:       page,
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().BoolVar(&low, "low", false, "only products with a low-stock cell")
	cmd.Flags().IntVar(&page, "page", 1, "page")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultPageSize, "page size")
	return cmd
}

func summaryCmd(env *Env) *cobra.Command {
	var (
		category    string
		month, year int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the monthly movement summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			catID, err := optionalUUID(category)
			if err != nil {
				return err
			}
			now := time.Now().In(env.Timezone)
			if !cmd.Flags().Changed("month") {
				month = int(now.Month())
			}
			if !cmd.Flags().Changed("year") {
				year = now.Year()
			}
			summary, err := env.Services.Reports.MonthlySummary(cmd.Context(), service.SummaryQuery{
				Month:      month,
				Year:       year,
				CategoryID: catID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default current)")
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	return cmd
}

func movementCmd(env *Env) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Print daily inbound/outbound units",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := env.Services.Reports.StockMovement(cmd.Context(), days)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "days to look back (max 365)")
	return cmd
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", raw)
	}
	return &id, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
