package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clockwise-hr/timeclock-backend-go/internal/config"
	"github.com/clockwise-hr/timeclock-backend-go/internal/domain/payroll"
	appHTTP "github.com/clockwise-hr/timeclock-backend-go/internal/handler/http"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/cron"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/database"
	"github.com/clockwise-hr/timeclock-backend-go/internal/pkg/jwt"
	"github.com/clockwise-hr/timeclock-backend-go/internal/repository/postgresql"
	attendanceService "github.com/clockwise-hr/timeclock-backend-go/internal/service/attendance"
	payrollService "github.com/clockwise-hr/timeclock-backend-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	auditSink := postgresql.NewAuditRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	workHoursCalculator := attendanceService.NewWorkHoursCalculator()
	rates := payroll.DefaultRateTable()
	rates.NightShiftAllowance = cfg.Payroll.NightShiftHourlyAllowance
	payCalculator := payrollService.NewCalculator(rates)

	attendanceSvc := attendanceService.NewAttendanceService(
		db,
		attendanceRepo,
		shiftRepo,
		auditSink,
		workHoursCalculator,
	)
	payrollSvc := payrollService.NewPayrollService(
		db,
		payrollRepo,
		employeeRepo,
		attendanceRepo,
		shiftRepo,
		payCalculator,
		auditSink,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	scheduler := cron.NewScheduler()
	attendanceJobs := cron.NewAttendanceJobs(attendanceRepo, shiftRepo, workHoursCalculator, db)
	attendanceJobs.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(jwtService, attendanceHandler, payrollHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
