package metrics

import (
	"github.com/muxable/dtm/pkg/dtm"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records a run for the node exporter textfile collector. A bench run
// is too short lived to be scraped, so the registry is written out at exit.
type Metrics struct {
	reg *prometheus.Registry

	Commands         *prometheus.CounterVec // labels: device, opcode
	ShortResponses   *prometheus.CounterVec // labels: device, opcode
	ResponseBytes    *prometheus.CounterVec // labels: device
	PacketsReceived  *prometheus.GaugeVec   // labels: phase
	PacketsEstimated prometheus.Gauge
	PacketErrorRate  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dtm_commands_total",
			Help: "HCI commands sent.",
		}, []string{"device", "opcode"}),
		ShortResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dtm_short_responses_total",
			Help: "Responses shorter than the expected length.",
		}, []string{"device", "opcode"}),
		ResponseBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dtm_response_bytes_total",
			Help: "Response bytes read.",
		}, []string{"device"}),
		PacketsReceived: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dtm_packets_received",
			Help: "Packets counted by the receiver at test end.",
		}, []string{"phase"}),
		PacketsEstimated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dtm_packets_estimated",
			Help: "Packets the transmitter is estimated to have sent.",
		}),
		PacketErrorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dtm_packet_error_rate",
			Help: "1 - received/estimated sent.",
		}),
	}
	m.reg.MustRegister(m.Commands, m.ShortResponses, m.ResponseBytes, m.PacketsReceived, m.PacketsEstimated, m.PacketErrorRate)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveExchange implements dtm.Observer.
func (m *Metrics) ObserveExchange(e *dtm.Exchange) {
	op := e.Command.Opcode().String()
	m.Commands.WithLabelValues(e.Device, op).Inc()
	m.ResponseBytes.WithLabelValues(e.Device).Add(float64(len(e.Response)))
	if e.Short() {
		m.ShortResponses.WithLabelValues(e.Device, op).Inc()
	}
}

func (m *Metrics) ObservePER(r *dtm.PERResult) {
	m.PacketsEstimated.Set(r.EstimatedSent)
	if r.ReceivedValid {
		m.PacketsReceived.WithLabelValues("per").Set(float64(r.Received))
	}
	if per, ok := r.PacketErrorRate(); ok {
		m.PacketErrorRate.Set(per)
	}
}

func (m *Metrics) ObservePowerProfile(r *dtm.PowerProfileResult) {
	for phase, n := range r.ReceivedPackets {
		m.PacketsReceived.WithLabelValues(phase).Set(float64(n))
	}
}

func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
