// Package seeder generates fake reports and responders for development and
// demos.
package seeder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Config holds seeder settings.
type Config struct {
	APIURL    string
	Count     int
	Interval  time.Duration
	CenterLat float64
	CenterLon float64
}

// Runner posts generated reports to the coordination API using the
// development identity headers.
type Runner struct {
	Config     Config
	HTTPClient *http.Client
}

// NewRunner creates a seeder runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		Config: cfg,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Run submits Count fake reports, one per Interval.
func (r *Runner) Run() error {
	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Seeding %d reports against %s", r.Config.Count, r.Config.APIURL)

	success := 0
	for i := 0; i < r.Config.Count; i++ {
		report := GenerateReport(r.Config.CenterLat, r.Config.CenterLon)
		if err := r.submit(report); err != nil {
			log.Printf("report %d failed: %v", i+1, err)
		} else {
			success++
		}

		if r.Config.Interval > 0 && i < r.Config.Count-1 {
			time.Sleep(r.Config.Interval)
		}
	}

	log.Printf("Seeding complete: %d/%d reports submitted", success, r.Config.Count)
	return nil
}

func (r *Runner) submit(report interface{}) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, r.Config.APIURL+"/api/v1/reports", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", gofakeit.UUID())
	req.Header.Set("X-User-Role", "citizen")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("api returned %d", resp.StatusCode)
	}
	return nil
}
