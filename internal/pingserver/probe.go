package pingserver

import (
	"fmt"
	"time"

	"github.com/abemar/pingconsole/internal/config"
	probing "github.com/prometheus-community/pro-bing"
)

// Reply is one echo reply.
type Reply struct {
	Addr  string
	Bytes int
	Seq   int
	RTT   time.Duration
}

// Summary is the outcome of a finished probe.
type Summary struct {
	Addr   string
	Sent   int
	Recv   int
	Loss   float64
	MinRTT time.Duration
	AvgRTT time.Duration
	MaxRTT time.Duration
}

// Probe is one probe run against a single target.
type Probe interface {
	// Run blocks until the probe finishes or Stop is called, invoking
	// onReply for every echo reply.
	Run(onReply func(Reply)) (Summary, error)
	Stop()
}

// Prober creates probes.
type Prober interface {
	New(target string) (Probe, error)
}

// ICMPProber issues ICMP echo probes.
type ICMPProber struct {
	cfg config.ProbeConfig
}

func NewICMPProber(cfg config.ProbeConfig) *ICMPProber {
	return &ICMPProber{cfg: cfg}
}

func (p *ICMPProber) New(target string) (Probe, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return nil, fmt.Errorf("new pinger: %w", err)
	}
	if p.cfg.Interval > 0 {
		pinger.Interval = p.cfg.Interval
	}
	if p.cfg.Timeout > 0 {
		pinger.Timeout = p.cfg.Timeout
	}
	if p.cfg.Count > 0 {
		pinger.Count = p.cfg.Count
	}
	if p.cfg.Size > 0 {
		pinger.Size = p.cfg.Size
	}
	pinger.SetPrivileged(p.cfg.Privileged)
	return &icmpProbe{pinger: pinger}, nil
}

type icmpProbe struct {
	pinger *probing.Pinger
}

func (p *icmpProbe) Run(onReply func(Reply)) (Summary, error) {
	p.pinger.OnRecv = func(pkt *probing.Packet) {
		addr := ""
		if pkt.IPAddr != nil {
			addr = pkt.IPAddr.String()
		}
		onReply(Reply{Addr: addr, Bytes: pkt.Nbytes, Seq: pkt.Seq, RTT: pkt.Rtt})
	}
	err := p.pinger.Run()
	st := p.pinger.Statistics()
	return Summary{
		Addr:   st.Addr,
		Sent:   st.PacketsSent,
		Recv:   st.PacketsRecv,
		Loss:   st.PacketLoss,
		MinRTT: st.MinRtt,
		AvgRTT: st.AvgRtt,
		MaxRTT: st.MaxRtt,
	}, err
}

func (p *icmpProbe) Stop() {
	p.pinger.Stop()
}

func formatReply(r Reply) string {
	return fmt.Sprintf("Reply from %s: bytes=%d seq=%d time=%v", r.Addr, r.Bytes, r.Seq, r.RTT)
}

func formatSummary(s Summary) string {
	return fmt.Sprintf("--- %s ping statistics --- %d packets transmitted, %d received, %.1f%% packet loss, rtt min/avg/max = %v/%v/%v",
		s.Addr, s.Sent, s.Recv, s.Loss, s.MinRTT, s.AvgRTT, s.MaxRTT)
}
