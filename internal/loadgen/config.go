// Package loadgen drives synthetic traffic against a running careerpulse
// server and verifies what it stored.
package loadgen

import (
	"errors"
	"time"
)

// Defaults applied by Config.withDefaults.
const (
	defaultSubjects           = 50
	defaultAnalysesPerSubject = 5
	defaultWorkers            = 8
	defaultTimeout            = 10 * time.Second
	defaultProfile            = "application_quality"
)

// ErrVerification marks stored state that does not match what was submitted.
var ErrVerification = errors.New("verification failed")

// Config holds configuration for a load run.
type Config struct {
	BaseURL            string        // Base URL of the service
	Subjects           int           // Number of synthetic subjects
	AnalysesPerSubject int           // Distinct analyses scored per subject
	DuplicateRatio     float64       // Share of analyses submitted a second time, 0..1
	Workers            int           // Number of concurrent requests
	Timeout            time.Duration // HTTP request timeout
	Profile            string        // Weight profile used for every analysis
	Seed               uint64        // Random seed; 0 picks one from the clock
}

func (c Config) withDefaults() Config {
	if c.Subjects <= 0 {
		c.Subjects = defaultSubjects
	}
	if c.AnalysesPerSubject <= 0 {
		c.AnalysesPerSubject = defaultAnalysesPerSubject
	}
	c.DuplicateRatio = min(max(c.DuplicateRatio, 0), 1)
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Profile == "" {
		c.Profile = defaultProfile
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	return c
}

// Stats holds run statistics.
type Stats struct {
	Generated  int           `json:"generated"`
	Submitted  int           `json:"submitted"`
	Created    int           `json:"created"`
	Duplicate  int           `json:"duplicate"`
	Rejected   int           `json:"rejected"`
	Failed     int           `json:"failed"`
	Activities int           `json:"activities"`
	Verified   int           `json:"verified"`
	Duration   time.Duration `json:"duration"`
}
