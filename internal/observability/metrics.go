package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TCPConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knnect_tcp_connections_total",
		Help: "Total de conexiones TCP de rastreadores aceptadas",
	})
	RecordsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knnect_records_received_total",
		Help: "Total de registros NMEA recibidos (líneas)",
	})
	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "knnect_parse_errors_total",
		Help: "Errores al decodificar registros GPRMC, por motivo",
	}, []string{"reason"})
	FeaturesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knnect_features_published_total",
		Help: "Features GeoJSON publicados al hub",
	})
	DeliveryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knnect_delivery_errors_total",
		Help: "Entregas fallidas a suscriptores (se da de baja al suscriptor)",
	})
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "knnect_store_errors_total",
		Help: "Errores al persistir en Redis",
	})
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "knnect_subscribers",
		Help: "Suscriptores vivos registrados en el hub",
	})
	ParseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "knnect_parse_latency_seconds",
		Help:    "Latencia del parseo por registro",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveParseLatency(start time.Time) {
	ParseLatency.Observe(time.Since(start).Seconds())
}

func StartMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	_ = http.ListenAndServe(":"+port, nil)
}
