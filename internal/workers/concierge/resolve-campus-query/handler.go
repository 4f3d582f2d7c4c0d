package resolvecampusquery

import (
	"context"
	"fmt"
	"time"

	"campus-concierge/internal/common/camunda"
	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/errors"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/common/metrics"
	"campus-concierge/internal/common/observability"
	"campus-concierge/internal/concierge"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType   = "concierge.query.resolve"
	WorkerName = "resolve-campus-query"
)

// QueryResolver is the part of the concierge engine the worker needs.
type QueryResolver interface {
	ResolveDetailed(ctx context.Context, req concierge.Request) concierge.Result
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	resolver     QueryResolver
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	jobWorker    *camunda.CamundaWorker
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Resolver      QueryResolver
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", WorkerName, err)
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("invalid configuration for %s: resolver is required", WorkerName)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": WorkerName})

	return &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		resolver:     opts.Resolver,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(loggerInstance),
		now:          time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing campus query", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		h.obs.RecordJobProcessed(ctx, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output := h.Execute(ctx, input)
	h.completeJob(ctx, client, job, output)

	elapsed := time.Since(startTime)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, elapsed, "completed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidQueryInputError(fmt.Sprintf("job variables are not a JSON object: %v", err))
	}
	return parseVariables(variables)
}

func parseVariables(variables map[string]interface{}) (*Input, error) {
	if err := GetInputSchema().ValidateValue(variables).Err(); err != nil {
		return nil, errors.NewInvalidQueryInputError(err.Error())
	}

	input := &Input{Query: variables["query"].(string)}
	if allow, ok := variables["allowLlm"].(bool); ok {
		input.AllowLLM = &allow
	}
	return input, nil
}

// Execute never fails: every query gets a payload.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	result := h.resolver.ResolveDetailed(ctx, concierge.Request{
		Query:    input.Query,
		AllowLLM: input.AllowLLM,
	})

	output := &Output{
		Response:     result.Payload,
		ResolutionID: uuid.NewString(),
		ResolvedAt:   h.now().UTC(),
		Stage:        result.Stage,
	}

	if p := result.Payload; p != nil {
		h.obs.RecordResolution(ctx, string(p.Action), string(p.Intent), p.Verified, result.Duration)
	}
	return output
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.ToVariables())
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Campus query job completed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"resolutionId": output.ResolutionID,
		"stage":        output.Stage,
		"action":       output.Response.Action,
		"intent":       output.Response.Intent,
	})
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is required for registration", WorkerName)
	}

	h.jobWorker = camunda.NewWorker(
		h.camunda.GetClient(),
		TaskType,
		h.config.MaxJobsActive,
		h.config.Timeout,
		h,
		h.logger,
	)
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.jobWorker.Stop()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return nil
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func extractErrorCode(err error) string {
	return string(errors.Normalize(err).Code)
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[WorkerName]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
	}

	return cfg
}
