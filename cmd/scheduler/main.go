package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/app"
	"github.com/Freeeeeet/demand_scheduler/internal/config"
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/service"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const usage = `Usage: scheduler <command> [flags]

Commands:
  migrate [up|down|version]  apply or roll back database migrations
  grid                       availability grid of a unit
  free                       members of a unit free at one slot
  check                      check a slot for a demand without writing
  assign                     assign a member to a demand at a date and time
  workdays                   set the working days of a member
  audit                      search for duplicate active demands
  serve                      run the periodic audit and the metrics endpoint
`

// Коды выхода: 1 ошибка, 2 слот недоступен
const exitConflict = 2

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Config loaded",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("env_file", cfg.EnvFileLoaded),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if err := run(ctx, cmd, args, cfg, logger); err != nil {
		if conflict, ok := model.AsSchedulingConflict(err); ok {
			printJSON(conflictOutput(conflict))
			logger.Sync()
			os.Exit(exitConflict)
		}
		logger.Error("Command failed", zap.String("command", cmd), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg *config.Config, logger *zap.Logger) error {
	switch cmd {
	case "migrate", "grid", "free", "check", "assign", "workdays", "audit", "serve":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	c, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	switch cmd {
	case "migrate":
		return runMigrate(ctx, c, args, logger)
	case "grid":
		return runGrid(ctx, c, args)
	case "free":
		return runFree(ctx, c, args)
	case "check":
		return runCheck(ctx, c, args)
	case "assign":
		return runAssign(ctx, c, args)
	case "workdays":
		return runWorkdays(ctx, c, args)
	case "audit":
		return runAudit(ctx, c, args)
	default:
		return runServe(ctx, c, args, cfg, logger)
	}
}

func runMigrate(ctx context.Context, c *app.Container, args []string, logger *zap.Logger) error {
	migrator, err := app.NewMigrator(c.Pool, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up":
		return migrator.Run(ctx)
	case "down":
		return migrator.Down(ctx)
	case "version":
		version, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		printJSON(map[string]int64{"version": version})
		return nil
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
}

func runGrid(ctx context.Context, c *app.Container, args []string) error {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	unit := fs.String("unit", "", "unit ID")
	start := fs.String("start", model.DateOf(time.Now()).String(), "first date (YYYY-MM-DD)")
	days := fs.Int("days", 7, "number of days")
	fromHour := fs.Int("from-hour", 8, "first hour of the day")
	toHour := fs.Int("to-hour", 18, "last hour of the day")
	interval := fs.Int("interval", 30, "slot interval in minutes")
	members := fs.String("members", "", "comma separated member IDs (default: whole unit)")
	_ = fs.Parse(args)

	unitID, err := parseID("unit", *unit)
	if err != nil {
		return err
	}
	memberIDs, err := parseIDs(*members)
	if err != nil {
		return err
	}

	grid, err := c.Availability.GetUnitGrid(ctx, service.GridRequest{
		UnitID:          unitID,
		StartDate:       *start,
		Days:            *days,
		StartHour:       *fromHour,
		EndHour:         *toHour,
		IntervalMinutes: *interval,
		MemberIDs:       memberIDs,
	})
	if err != nil {
		return err
	}

	printJSON(grid)
	return nil
}

func runFree(ctx context.Context, c *app.Container, args []string) error {
	fs := flag.NewFlagSet("free", flag.ExitOnError)
	unit := fs.String("unit", "", "unit ID")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	clock := fs.String("time", "", "time (HH:MM)")
	_ = fs.Parse(args)

	unitID, err := parseID("unit", *unit)
	if err != nil {
		return err
	}
	d, t, err := parseSlot(*date, *clock)
	if err != nil {
		return err
	}

	members, err := c.Availability.FreeMembersAt(ctx, unitID, d, t)
	if err != nil {
		return err
	}

	if members == nil {
		members = []model.Member{}
	}
	printJSON(members)
	return nil
}

type assignFlags struct {
	demand, member, date, clock *string
}

func newAssignFlags(name string) (*flag.FlagSet, assignFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, assignFlags{
		demand: fs.String("demand", "", "demand ID"),
		member: fs.String("member", "", "member ID"),
		date:   fs.String("date", "", "date (YYYY-MM-DD)"),
		clock:  fs.String("time", "", "time (HH:MM)"),
	}
}

func (f assignFlags) parse() (demandID, memberID uuid.UUID, date model.Date, clock model.ClockTime, err error) {
	if demandID, err = parseID("demand", *f.demand); err != nil {
		return
	}
	if memberID, err = parseID("member", *f.member); err != nil {
		return
	}
	date, clock, err = parseSlot(*f.date, *f.clock)
	return
}

func runCheck(ctx context.Context, c *app.Container, args []string) error {
	fs, flags := newAssignFlags("check")
	_ = fs.Parse(args)

	demandID, memberID, date, clock, err := flags.parse()
	if err != nil {
		return err
	}

	check, err := c.Assignment.CheckSlot(ctx, demandID, memberID, date, clock)
	if err != nil {
		return err
	}

	printJSON(check)
	return nil
}

func runAssign(ctx context.Context, c *app.Container, args []string) error {
	fs, flags := newAssignFlags("assign")
	_ = fs.Parse(args)

	demandID, memberID, date, clock, err := flags.parse()
	if err != nil {
		return err
	}

	demand, err := c.Assignment.Assign(ctx, demandID, memberID, date, clock)
	if err != nil {
		return err
	}

	printJSON(demand)
	return nil
}

func runWorkdays(ctx context.Context, c *app.Container, args []string) error {
	fs := flag.NewFlagSet("workdays", flag.ExitOnError)
	member := fs.String("member", "", "member ID")
	days := fs.String("days", "", "comma separated weekdays, e.g. MONDAY,FRIDAY (empty: every day)")
	_ = fs.Parse(args)

	memberID, err := parseID("member", *member)
	if err != nil {
		return err
	}
	set, err := parseWeekdays(*days)
	if err != nil {
		return err
	}

	if err := c.Members.UpdateWorkingDays(ctx, memberID, set); err != nil {
		return err
	}

	updated, err := c.Members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	printJSON(updated)
	return nil
}

func runAudit(ctx context.Context, c *app.Container, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	from := fs.String("from", model.DateOf(time.Now()).String(), "first date (YYYY-MM-DD)")
	days := fs.Int("days", 30, "number of days")
	_ = fs.Parse(args)

	start, err := model.ParseDate(*from)
	if err != nil {
		return err
	}

	anomalies, err := c.Integrity.Audit(ctx, start, *days)
	if err != nil {
		return err
	}

	type duplicate struct {
		MemberID    uuid.UUID `json:"member_id"`
		Date        string    `json:"date"`
		Time        string    `json:"time"`
		KeptID      uuid.UUID `json:"kept_demand_id"`
		DuplicateID uuid.UUID `json:"duplicate_demand_id"`
	}
	out := make([]duplicate, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, duplicate{
			MemberID:    a.Key.MemberID,
			Date:        a.Key.Date.String(),
			Time:        a.Key.Time.String(),
			KeptID:      a.KeptID,
			DuplicateID: a.DuplicateID,
		})
	}

	printJSON(out)
	return nil
}

func runServe(ctx context.Context, c *app.Container, args []string, cfg *config.Config, logger *zap.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	interval := fs.Duration("audit-interval", app.DefaultAuditInterval, "integrity audit interval")
	_ = fs.Parse(args)

	if cfg.MetricsAddr != "" {
		shutdown := app.StartMetricsServer(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	scheduler := app.NewScheduler(c.Integrity, *interval, logger)
	scheduler.Start(ctx)

	// Block until we receive a signal
	<-ctx.Done()
	scheduler.Stop()

	logger.Info("Shutting down")
	return nil
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errors.Wrapf(model.ErrInvalidInput, "-%s: %v", name, err)
	}
	return id, nil
}

func parseIDs(raw string) ([]uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := parseID("members", part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseWeekdays(raw string) (model.WeekdaySet, error) {
	if strings.TrimSpace(raw) == "" {
		return model.NewWeekdaySet(), nil
	}
	return model.ParseWeekdaySet(strings.Split(raw, ","))
}

func parseSlot(date, clock string) (model.Date, model.ClockTime, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Date{}, model.ClockTime{}, err
	}
	t, err := model.ParseClockTime(clock)
	if err != nil {
		return model.Date{}, model.ClockTime{}, err
	}
	return d, t, nil
}

func conflictOutput(conflict *model.SchedulingConflictError) any {
	return struct {
		Assigned            bool                 `json:"assigned"`
		Reason              model.ConflictReason `json:"reason"`
		ConflictingDemandID *uuid.UUID           `json:"conflicting_demand_id,omitempty"`
	}{
		Reason:              conflict.Reason,
		ConflictingDemandID: conflict.ConflictingDemandID,
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
