package summarizeappcontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-concierge/internal/common/camunda"
	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/errors"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/common/metrics"
	"campus-concierge/internal/common/observability"
	"campus-concierge/internal/providers/appcontext"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType   = "concierge.context.summarize"
	WorkerName = "summarize-app-context"
)

type ContextSummarizer interface {
	Summarize(ctx context.Context, topics ...string) (string, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	summarizer   ContextSummarizer
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	jobWorker    *camunda.CamundaWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Summarizer    ContextSummarizer
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", WorkerName, err)
	}
	if opts.Summarizer == nil {
		return nil, fmt.Errorf("invalid configuration for %s: summarizer is required", WorkerName)
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
		summarizer:   opts.Summarizer,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(loggerInstance),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Summarizing app context", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.process(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.obs.RecordJobProcessed(ctx, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)

	elapsed := time.Since(startTime)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, elapsed, "completed")
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidQueryInputError(fmt.Sprintf("job variables are not a JSON object: %v", err))
	}
	input, err := parseVariables(variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// parseVariables validates the shape, then normalizes and dedupes topic names.
func parseVariables(variables map[string]interface{}) (*Input, error) {
	if err := GetInputSchema().ValidateValue(variables).Err(); err != nil {
		return nil, errors.NewInvalidQueryInputError(err.Error())
	}

	raw := variables["topics"].([]interface{})
	seen := make(map[string]bool, len(raw))
	input := &Input{Topics: make([]string, 0, len(raw))}
	for _, v := range raw {
		topic := strings.ToLower(strings.TrimSpace(v.(string)))
		if !appcontext.ValidTopic(topic) {
			return nil, errors.NewUnknownTopicError(topic)
		}
		if seen[topic] {
			continue
		}
		seen[topic] = true
		input.Topics = append(input.Topics, topic)
	}
	return input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	text, err := h.summarizer.Summarize(ctx, input.Topics...)
	if err != nil {
		return nil, err
	}
	return &Output{Context: text, Topics: input.Topics}, nil
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

	h.logger.Info("App context job completed", map[string]interface{}{
		"jobKey": job.GetKey(),
		"topics": output.Topics,
		"chars":  len(output.Context),
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

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
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
