package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"diadesorte/config"
	"diadesorte/domain/interfaces"
	"diadesorte/domain/services"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the advisor
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	batchesCounter        metric.Int64Counter
	ticketsCounter        metric.Int64Counter
	batchDurationHist     metric.Float64Histogram
	ticketAttemptsHist    metric.Int64Histogram
	drawsSavedCounter     metric.Int64Counter
	historyRefreshCounter metric.Int64Counter
}

var _ interfaces.GenerationMetrics = (*MetricsProvider)(nil)

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initializeWithReader(reader); err != nil {
		return err
	}

	otel.SetMeterProvider(mp.meterProvider)
	log.Info("Metrics provider initialized successfully")
	return nil
}

// initializeWithReader builds the meter provider on reader; callers hold mu
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("diadesorte")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.batchesCounter, err = mp.meter.Int64Counter(
		BatchesTotal,
		metric.WithDescription("Total number of generation requests by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create batches counter: %w", err)
	}

	mp.ticketsCounter, err = mp.meter.Int64Counter(
		TicketsTotal,
		metric.WithDescription("Total number of tickets generated"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create tickets counter: %w", err)
	}

	mp.batchDurationHist, err = mp.meter.Float64Histogram(
		BatchDuration,
		metric.WithDescription("Duration of batch generation in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create batch duration histogram: %w", err)
	}

	mp.ticketAttemptsHist, err = mp.meter.Int64Histogram(
		TicketAttempts,
		metric.WithDescription("Candidates drawn before a ticket passed every rule"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket attempts histogram: %w", err)
	}

	mp.drawsSavedCounter, err = mp.meter.Int64Counter(
		HistoryDrawsSavedTotal,
		metric.WithDescription("Total number of draws written by history refreshes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create draws saved counter: %w", err)
	}

	mp.historyRefreshCounter, err = mp.meter.Int64Counter(
		HistoryRefreshesTotal,
		metric.WithDescription("Total number of history refreshes by trigger and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create history refresh counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordBatch records one generation request
func (mp *MetricsProvider) RecordBatch(outcome string, quantity int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String(LabelOutcome, outcome))
	mp.batchesCounter.Add(ctx, 1, attrs)
	mp.batchDurationHist.Record(ctx, duration.Seconds(), attrs)
	if outcome == services.OutcomeSuccess {
		mp.ticketsCounter.Add(ctx, int64(quantity))
	}
}

// RecordTicketAttempts records how many candidates one ticket needed
func (mp *MetricsProvider) RecordTicketAttempts(attempts int) {
	if !mp.isEnabled() {
		return
	}

	mp.ticketAttemptsHist.Record(context.Background(), int64(attempts))
}

// RecordHistoryRefresh records a history refresh and the draws it saved
func (mp *MetricsProvider) RecordHistoryRefresh(trigger string, saved int, err error) {
	if !mp.isEnabled() {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	ctx := context.Background()
	mp.historyRefreshCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelTrigger, trigger),
		attribute.String(LabelOutcome, outcome),
	))
	if saved > 0 {
		mp.drawsSavedCounter.Add(ctx, int64(saved))
	}
}

// isEnabled checks that instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
