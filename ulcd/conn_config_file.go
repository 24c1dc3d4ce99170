package ulcd

import (
	"errors"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML representation of a ConnectionConfig.
//
//	device: /dev/ttyUSB0
//	baud_rate: 115200
//	timeout: 500ms
//	timeout_policy: per_attempt
//	resync_attempts: 10
//	resync_timeout: 10ms
//	resync_drain: true
//	resync_on_open: false
//	settle_delay: 200ms
//	baud_ack_policy: new_speed
type fileConfig struct {
	Device         string         `yaml:"device"`
	BaudRate       int            `yaml:"baud_rate"`
	Timeout        time.Duration  `yaml:"timeout"`
	TimeoutPolicy  string         `yaml:"timeout_policy"`
	ResyncAttempts int            `yaml:"resync_attempts"`
	ResyncTimeout  time.Duration  `yaml:"resync_timeout"`
	ResyncDrain    *bool          `yaml:"resync_drain"`
	ResyncOnOpen   bool           `yaml:"resync_on_open"`
	SettleDelay    *time.Duration `yaml:"settle_delay"`
	BaudAckPolicy  string         `yaml:"baud_ack_policy"`
}

// LoadConnectionConfig reads a YAML connection description from r.
//
// Keys that are absent keep their defaults. opts are applied after the values
// read from r, so they take precedence.
func LoadConnectionConfig(r io.Reader, opts ...ConnOption) (*ConnectionConfig, error) {
	var fc fileConfig

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, newError(KindConfiguration, "config", "invalid YAML", err)
	}

	fileOpts, err := fc.options()
	if err != nil {
		return nil, err
	}

	return NewConnectionConfig(fc.Device, append(fileOpts, opts...)...)
}

func (fc *fileConfig) options() ([]ConnOption, error) {
	var opts []ConnOption

	if fc.BaudRate != 0 {
		opts = append(opts, WithBaudRate(fc.BaudRate))
	}
	if fc.Timeout != 0 {
		opts = append(opts, WithTimeout(fc.Timeout))
	}
	if fc.TimeoutPolicy != "" {
		p, err := ParseTimeoutPolicy(fc.TimeoutPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTimeoutPolicy(p))
	}
	if fc.ResyncAttempts != 0 {
		opts = append(opts, WithResyncAttempts(fc.ResyncAttempts))
	}
	if fc.ResyncTimeout != 0 {
		opts = append(opts, WithResyncTimeout(fc.ResyncTimeout))
	}
	if fc.ResyncDrain != nil {
		opts = append(opts, WithResyncDrain(*fc.ResyncDrain))
	}
	if fc.ResyncOnOpen {
		opts = append(opts, WithResyncOnOpen(true))
	}
	if fc.SettleDelay != nil {
		opts = append(opts, WithSettleDelay(*fc.SettleDelay))
	}
	if fc.BaudAckPolicy != "" {
		p, err := ParseBaudAckPolicy(fc.BaudAckPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBaudAckPolicy(p))
	}

	return opts, nil
}
