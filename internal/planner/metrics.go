package planner

import (
	"net/http"

	"github.com/annel0/botplanner/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter наблюдатель поиска, публикующий метрики Prometheus.
// Один экспортер может обслуживать контексты всех ботов.
type MetricsExporter struct {
	gatherer prometheus.Gatherer

	plansBuilt      *prometheus.CounterVec
	cachedPlans     prometheus.Counter
	predictionSteps *prometheus.CounterVec
	rollbacks       *prometheus.CounterVec
	sequenceStops   *prometheus.CounterVec
	planLength      prometheus.Histogram
	simulatedSteps  prometheus.Histogram
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg.
// При reg == nil используется отдельный реестр.
func NewMetricsExporter(reg *prometheus.Registry) *MetricsExporter {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	me := &MetricsExporter{
		gatherer: reg,
		plansBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botplanner",
			Name:      "plans_built_total",
			Help:      "Построенные планы по источнику.",
		}, []string{"source"}),
		cachedPlans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "botplanner",
			Name:      "cached_plan_frames_total",
			Help:      "Тики, исполненные из кешированного плана.",
		}),
		predictionSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botplanner",
			Name:      "prediction_steps_total",
			Help:      "Симулированные шаги по стратегии.",
		}, []string{"action"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botplanner",
			Name:      "rollbacks_total",
			Help:      "Откаты к точке сохранения по стратегии.",
		}, []string{"action"}),
		sequenceStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "botplanner",
			Name:      "sequence_stops_total",
			Help:      "Завершённые последовательности по стратегии и причине.",
		}, []string{"action", "reason"}),
		planLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "botplanner",
			Name:      "plan_length_steps",
			Help:      "Длина построенного плана.",
			Buckets:   []float64{1, 2, 4, 8, 12, 16, 24, 32},
		}),
		simulatedSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "botplanner",
			Name:      "simulated_steps_per_plan",
			Help:      "Вызовы физического движка за один поиск.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
		}),
	}
	reg.MustRegister(me.plansBuilt, me.cachedPlans, me.predictionSteps, me.rollbacks,
		me.sequenceStops, me.planLength, me.simulatedSteps)
	return me
}

// Gatherer реестр с метриками экспортера
func (m *MetricsExporter) Gatherer() prometheus.Gatherer { return m.gatherer }

// StartHTTP запускает эндпоинт /metrics в отдельной горутине
func (m *MetricsExporter) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}

func (m *MetricsExporter) OnSequenceStarted(Action, int) {}

func (m *MetricsExporter) OnSequenceStopped(a Action, reason SequenceStopReason, _ int) {
	m.sequenceStops.WithLabelValues(a.Name(), reason.String()).Inc()
}

func (m *MetricsExporter) OnPredictionStep(_ *PredictionContext, a Action) {
	m.predictionSteps.WithLabelValues(a.Name()).Inc()
}

func (m *MetricsExporter) OnRollback(action string, _, _ int) {
	m.rollbacks.WithLabelValues(action).Inc()
}

func (m *MetricsExporter) OnPlanBuilt(plan *Plan) {
	m.plansBuilt.WithLabelValues(plan.Source.String()).Inc()
	m.planLength.Observe(float64(len(plan.Steps)))
	m.simulatedSteps.Observe(float64(plan.SimulatedSteps))
}

func (m *MetricsExporter) OnCachedPlanUsed() {
	m.cachedPlans.Inc()
}
