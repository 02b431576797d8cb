// Package report writes a yaml record of a run: every exchange in hex and the
// measured results, so bench sessions can be compared later.
package report

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/muxable/dtm/pkg/dtm"
	"github.com/muxable/dtm/pkg/hci"
	"gopkg.in/yaml.v3"
)

type Step struct {
	Name     string `yaml:"name"`
	Device   string `yaml:"device"`
	Opcode   string `yaml:"opcode"`
	Command  string `yaml:"command"`
	Response string `yaml:"response"`
	Expected int    `yaml:"expected"`
	Short    bool   `yaml:"short,omitempty"`
}

type Session struct {
	Channel      uint8  `yaml:"channel"`
	FrequencyMHz int    `yaml:"frequency_mhz"`
	PHY          string `yaml:"phy"`
	DataLength   uint8  `yaml:"data_length"`
	Payload      uint8  `yaml:"payload"`
}

type PER struct {
	ElapsedSeconds float64  `yaml:"elapsed_seconds"`
	EstimatedSent  float64  `yaml:"estimated_sent"`
	Received       *uint64  `yaml:"received"`
	PER            *float64 `yaml:"per"`
}

type Power struct {
	Version         string            `yaml:"version,omitempty"`
	HWID            string            `yaml:"hw_id,omitempty"`
	RegisterValue   string            `yaml:"register_value,omitempty"`
	RegisterWrite   string            `yaml:"register_write,omitempty"`
	ReceivedPackets map[string]uint64 `yaml:"received_packets,omitempty"`
}

type Report struct {
	RunID      string    `yaml:"run_id"`
	Program    string    `yaml:"program"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Session    Session   `yaml:"session"`
	Steps      []Step    `yaml:"steps"`
	PER        *PER      `yaml:"per,omitempty"`
	Power      *Power    `yaml:"power,omitempty"`
	Error      string    `yaml:"error,omitempty"`
}

func New(program string, s dtm.Session) *Report {
	phy := s.PHY
	if phy == 0 {
		phy = hci.PHY1M
	}
	return &Report{
		RunID:     uuid.NewString(),
		Program:   program,
		StartedAt: time.Now(),
		Session: Session{
			Channel:      s.Channel,
			FrequencyMHz: hci.RFChannelFrequency(s.Channel),
			PHY:          phy.String(),
			DataLength:   s.DataLength,
			Payload:      uint8(s.Payload),
		},
	}
}

func (r *Report) AddSteps(steps []dtm.Step) {
	for _, s := range steps {
		r.Steps = append(r.Steps, Step{
			Name:     s.Name,
			Device:   s.Device,
			Opcode:   s.Command.Opcode().String(),
			Command:  s.Command.String(),
			Response: s.ResponseHex(),
			Expected: s.Layout.Length,
			Short:    s.Short(),
		})
	}
}

func (r *Report) SetPER(res *dtm.PERResult) {
	r.AddSteps(res.Steps)
	p := &PER{
		ElapsedSeconds: res.Sample.Elapsed().Seconds(),
		EstimatedSent:  res.EstimatedSent,
	}
	if res.ReceivedValid {
		received := res.Received
		p.Received = &received
	}
	if per, ok := res.PacketErrorRate(); ok {
		p.PER = &per
	}
	r.PER = p
}

func (r *Report) SetPowerProfile(res *dtm.PowerProfileResult) {
	r.AddSteps(res.Steps)
	p := &Power{ReceivedPackets: res.ReceivedPackets}
	if res.VersionValid {
		p.Version = fmt.Sprintf("%08x", res.Version)
	}
	if res.HWIDValid {
		p.HWID = fmt.Sprintf("%08x", res.HWID)
	}
	if res.RegisterValue != 0 || res.RegisterWrite != 0 {
		p.RegisterValue = fmt.Sprintf("0x%08x", res.RegisterValue)
		p.RegisterWrite = fmt.Sprintf("0x%08x", res.RegisterWrite)
	}
	r.Power = p
}

// Finish stamps the end time and records err, if any.
func (r *Report) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Error = err.Error()
	}
}

func (r *Report) Write(path string) error {
	buf, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
