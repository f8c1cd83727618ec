package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gatecascade/gatecascade/sim"
	"github.com/gatecascade/gatecascade/sim/scenario"
)

var (
	serveAddr           string
	serveMaxSteps       int
	serveMaxEvaluations int
)

// serveLimits bound the worst-case latency of a single request, since neither
// the solver nor the minimizer can be cancelled mid-run.
type serveLimits struct {
	MaxSteps       int
	MaxEvaluations int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulator and optimizers over an HTTP JSON API",
	Run: func(cmd *cobra.Command, args []string) {
		gin.SetMode(gin.ReleaseMode)
		router := newRouter(serveLimits{MaxSteps: serveMaxSteps, MaxEvaluations: serveMaxEvaluations})
		srv := &http.Server{Addr: serveAddr, Handler: router}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("listen: %v", err)
			}
		}()
		logrus.Infof("Serving on %s (max steps %d, max evaluations %d)", serveAddr, serveMaxSteps, serveMaxEvaluations)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Fatalf("Server shutdown: %v", err)
		}
	},
}

func newRouter(limits serveLimits) *gin.Engine {
	// Scenario documents are strict over HTTP as they are in YAML files.
	gin.EnableJsonDecoderDisallowUnknownFields()
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &apiHandler{limits: limits}
	api := router.Group("/api/v1")
	{
		api.POST("/snapshot", h.Snapshot)
		api.POST("/simulate", h.Simulate)
		api.POST("/optimize/steady", h.OptimizeSteady)
		api.POST("/optimize/goal", h.OptimizeGoal)
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// apiHandler serves scenario documents posted as JSON.
type apiHandler struct {
	limits serveLimits
}

// bind decodes, limits and validates the posted scenario. It writes the error
// response itself and returns nil on failure.
func (h *apiHandler) bind(c *gin.Context) *scenario.Scenario {
	var sc scenario.Scenario
	if err := c.ShouldBindJSON(&sc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid scenario document: %v", err)})
		return nil
	}
	if err := sc.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	if h.limits.MaxSteps > 0 && sc.StepCount() > h.limits.MaxSteps {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("steps %d exceed the server limit of %d", sc.StepCount(), h.limits.MaxSteps)})
		return nil
	}
	if h.limits.MaxEvaluations > 0 {
		if sc.Optimizer == nil {
			sc.Optimizer = &scenario.OptimizerSpec{}
		}
		if sc.Optimizer.MaxEvaluations == 0 || sc.Optimizer.MaxEvaluations > h.limits.MaxEvaluations {
			sc.Optimizer.MaxEvaluations = h.limits.MaxEvaluations
		}
	}
	return &sc
}

func respond(c *gin.Context, result any, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if isPreconditionError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": uuid.NewString(), "result": result})
}

func isPreconditionError(err error) bool {
	for _, target := range []error{sim.ErrInvalidConfig, sim.ErrDimensionMismatch, sim.ErrOutOfBounds, sim.ErrInvalidInput, sim.ErrInvalidBounds} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Snapshot handles POST /api/v1/snapshot
func (h *apiHandler) Snapshot(c *gin.Context) {
	sc := h.bind(c)
	if sc == nil {
		return
	}
	snap, err := sim.SimulateSnapshot(sc.CascadeConfig(), sc.Inflow, sc.SimOpenings(), sc.UpstreamLevel)
	respond(c, snap, err)
}

// Simulate handles POST /api/v1/simulate
func (h *apiHandler) Simulate(c *gin.Context) {
	sc := h.bind(c)
	if sc == nil {
		return
	}
	traj, err := sim.SimulateTransient(sc.CascadeConfig(), sc.Inputs())
	respond(c, traj, err)
}

// OptimizeSteady handles POST /api/v1/optimize/steady
func (h *apiHandler) OptimizeSteady(c *gin.Context) {
	sc := h.bind(c)
	if sc == nil {
		return
	}
	report, err := optimizeSteady(sc)
	respond(c, report, err)
}

// OptimizeGoal handles POST /api/v1/optimize/goal
func (h *apiHandler) OptimizeGoal(c *gin.Context) {
	sc := h.bind(c)
	if sc == nil {
		return
	}
	if sc.Goal == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal block is required"})
		return
	}
	report, err := optimizeGoal(sc)
	respond(c, report, err)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().IntVar(&serveMaxSteps, "max-steps", 10000, "Reject scenarios with more steps than this (0 = unlimited)")
	serveCmd.Flags().IntVar(&serveMaxEvaluations, "max-evaluations", 2000, "Cap on optimizer evaluations per request (0 = unlimited)")
}
